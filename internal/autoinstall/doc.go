// Package autoinstall ensures the dependency manifest of every deployable unit
// is installed exactly once per run before the unit is packaged.
//
// An Orchestrator owns the run-scoped set of manifest directories it has
// dispatched. Targets (functions or components) are resolved to a manifest
// directory, either through the upward manifest search or, for components,
// directly from the component root, and each directory is handed to the
// installer at most once. Bulk runs process targets strictly in order and
// await every install before resolving the next target. The package also
// provides the lifecycle plugin that exposes the bulk actions and the hook
// that runs before a function is packaged.
package autoinstall
