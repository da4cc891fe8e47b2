// Package runtime maps function runtime tags (nodejs4.3, nodejs6.10, ...) to
// the installer that understands their dependency manifest. Tags are matched
// by family prefix; functions whose runtime has no registered family are
// skipped by the orchestrator.
package runtime
