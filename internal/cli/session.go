package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agentx-labs/autoinstall/internal/autoinstall"
	"github.com/agentx-labs/autoinstall/internal/config"
	"github.com/agentx-labs/autoinstall/internal/installer"
	"github.com/agentx-labs/autoinstall/internal/lifecycle"
	"github.com/agentx-labs/autoinstall/internal/locator"
	"github.com/agentx-labs/autoinstall/internal/packager"
	"github.com/agentx-labs/autoinstall/internal/project"
	"github.com/agentx-labs/autoinstall/internal/runtime"
)

// session holds what one command invocation works with: the loaded project,
// its settings, and a lifecycle host with the packager action and the
// autoinstall plugin registered. One session is one run.
type session struct {
	project  *project.Project
	settings *config.Settings
	orch     *autoinstall.Orchestrator
	host     *lifecycle.Host

	out io.Writer

	// mu guards results and out; hooks may report from concurrent host runs.
	mu      sync.Mutex
	results []autoinstall.Result
}

// resolveProjectRoot returns --project or the nearest directory above the
// working directory that holds the project file.
func resolveProjectRoot(fsys afero.Fs) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return project.FindRoot(fsys, wd)
}

func newSession(cmd *cobra.Command) (*session, error) {
	fsys := afero.NewOsFs()

	root, err := resolveProjectRoot(fsys)
	if err != nil {
		return nil, err
	}
	if err := config.Load(root); err != nil {
		return nil, err
	}
	settings, err := config.Current()
	if err != nil {
		return nil, err
	}
	proj, err := project.Load(fsys, root)
	if err != nil {
		return nil, err
	}

	inst := installer.NewCommand(settings.Install.Command, settings.Install.Args...)
	if verbosity > 1 {
		inst.Stdout = cmd.ErrOrStderr()
		inst.Stderr = cmd.ErrOrStderr()
	}

	s := &session{
		project:  proj,
		settings: settings,
		host:     lifecycle.NewHost(),
		out:      cmd.OutOrStdout(),
	}
	s.orch = autoinstall.New(autoinstall.Options{
		Locator:  locator.New(fsys, settings.ManifestFile),
		Runtimes: runtime.NodeDispatcher(settings.RuntimePrefix, inst),
		OnResult: s.record,
	})

	pkg := packager.New(fsys, settings.DistPath(proj.RootPath))
	if err := s.host.AddAction(pkg.Action(proj)); err != nil {
		return nil, err
	}
	plugin := autoinstall.NewPlugin(s.orch, proj)
	plugin.HookMode = autoinstall.HookMode(settings.HookMode)
	if err := s.host.Use(plugin); err != nil {
		return nil, err
	}
	return s, nil
}

// record prints one result line as it happens and keeps it for the summary.
func (s *session) record(r autoinstall.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)

	switch r.Outcome {
	case autoinstall.Dispatched:
		fmt.Fprintf(s.out, "  ✓ %s: installed in %s\n", r.Target, s.rel(r.Dir))
	case autoinstall.AlreadyInstalled:
		fmt.Fprintf(s.out, "  ✓ %s: already installed (%s)\n", r.Target, s.rel(r.Dir))
	case autoinstall.NoManifest:
		fmt.Fprintf(s.out, "  - %s: no %s found, skipped\n", r.Target, s.settings.ManifestFile)
	case autoinstall.Unsupported:
		fmt.Fprintf(s.out, "  - %s: runtime not supported, skipped\n", r.Target)
	}
}

// rel shortens dir to a project-relative path for display.
func (s *session) rel(dir string) string {
	return relPath(s.project.RootPath, dir)
}

func (s *session) printSummary() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dispatched, already, skipped int
	for _, r := range s.results {
		switch r.Outcome {
		case autoinstall.Dispatched:
			dispatched++
		case autoinstall.AlreadyInstalled:
			already++
		default:
			skipped++
		}
	}

	p := message.NewPrinter(language.English)
	fmt.Fprintln(s.out)
	p.Fprintf(s.out, "✓ Installed %d folder(s).", dispatched)
	if already > 0 {
		p.Fprintf(s.out, " %d already installed.", already)
	}
	if skipped > 0 {
		p.Fprintf(s.out, " %d skipped.", skipped)
	}
	fmt.Fprintln(s.out)
}
