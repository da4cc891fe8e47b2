package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentx-labs/autoinstall/internal/autoinstall"
	"github.com/agentx-labs/autoinstall/internal/config"
	"github.com/agentx-labs/autoinstall/internal/installer"
	"github.com/agentx-labs/autoinstall/internal/project"
	"github.com/agentx-labs/autoinstall/internal/runtime"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project file and the install tool",
	Long: `Validate the project file, check that the install command is available (and
new enough, for npm), and report functions that have no package.json.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fsys := afero.NewOsFs()

	root, err := resolveProjectRoot(fsys)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	if err := config.Load(root); err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	settings, err := config.Current()
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}

	fmt.Fprintln(out, "Install tool check:")
	runToolCheck(cmd, out, settings)

	fmt.Fprintln(out, "Project check:")
	if err := runProjectCheck(out, fsys, root); err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Manifest check:")
	return runManifestCheck(out, s)
}

func runToolCheck(cmd *cobra.Command, out io.Writer, settings *config.Settings) {
	name := settings.Install.Command
	constraint := ""
	if filepath.Base(name) == installer.DefaultCommand {
		constraint = settings.NpmMinVersion
	}

	v, ok, err := installer.CheckVersion(cmd.Context(), name, constraint)
	switch {
	case err != nil:
		fmt.Fprintf(out, "  [MISS] %v\n", err)
	case !ok:
		fmt.Fprintf(out, "  [WARN] %s %s does not satisfy %s\n", name, v, constraint)
	case constraint != "":
		fmt.Fprintf(out, "  [ OK ] %s %s satisfies %s\n", name, v, constraint)
	default:
		fmt.Fprintf(out, "  [ OK ] %s %s\n", name, v)
	}
}

func runProjectCheck(out io.Writer, fsys afero.Fs, root string) error {
	path := project.FilePath(root)

	p, err := project.Load(fsys, root)
	if err != nil {
		var invalid *project.InvalidError
		if !errors.As(err, &invalid) {
			fmt.Fprintf(out, "  [FAIL] %v\n", err)
			return err
		}
		fmt.Fprintf(out, "  [FAIL] %d validation issue(s) in %s:\n", len(invalid.Issues), path)
		for _, issue := range invalid.Issues {
			fmt.Fprintf(out, "    - %s\n", issue)
		}
		return err
	}

	fmt.Fprintf(out, "  [ OK ] %s: %d component(s), %d function(s)\n", path, len(p.Components), len(p.Functions))
	return nil
}

func runManifestCheck(out io.Writer, s *session) error {
	var missing, unsupported int
	for _, fn := range s.project.Functions {
		t := autoinstall.FunctionTarget(s.project, fn)
		dir, ok, err := s.orch.Resolve(t)
		if err != nil {
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", fn.Name, err)
			return err
		}
		if ok {
			fmt.Fprintf(out, "  [ OK ] %s: %s\n", fn.Name, s.rel(dir))
			continue
		}
		if !runtime.Supported(s.settings.RuntimePrefix, fn.Runtime) {
			unsupported++
			fmt.Fprintf(out, "  [INFO] %s: runtime %s is not installed by %s\n", fn.Name, fn.Runtime, s.settings.Install.Command)
			continue
		}
		missing++
		fmt.Fprintf(out, "  [WARN] %s: no %s in its folder or any parent inside the project\n", fn.Name, s.settings.ManifestFile)
	}

	if missing == 0 && unsupported == 0 {
		fmt.Fprintln(out, "  [ OK ] every function has a manifest")
	}
	return nil
}
