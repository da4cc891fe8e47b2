package cli

import (
	"fmt"

	"github.com/agentx-labs/autoinstall/internal/autoinstall"
	"github.com/agentx-labs/autoinstall/internal/lifecycle"
	"github.com/agentx-labs/autoinstall/internal/packager"
	"github.com/spf13/cobra"
)

var functionAutoinstallAll bool

func init() {
	functionAutoinstallCmd.Flags().BoolVarP(&functionAutoinstallAll, "all", "a", false, "Autoinstall all functions")
	functionCmd.AddCommand(functionAutoinstallCmd)
	functionCmd.AddCommand(functionPackageCmd)
	rootCmd.AddCommand(functionCmd)
}

var functionCmd = &cobra.Command{
	Use:   "function",
	Short: "Work with project functions",
}

var functionAutoinstallCmd = &cobra.Command{
	Use:   "autoinstall [function...]",
	Short: "Install function dependencies",
	Long: `Install dependencies of each function that has a package.json in its folder
or a parent folder inside the project. Functions sharing a package.json are
installed once. Names may be glob patterns such as "api-*".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAutoinstall(cmd, autoinstall.ActionFunctionAutoinstall, args, functionAutoinstallAll)
	},
}

var functionPackageCmd = &cobra.Command{
	Use:   "package <function>",
	Short: "Install dependencies, then zip a function",
	Args:  cobra.ExactArgs(1),
	RunE:  runPackage,
}

// runAutoinstall runs a bulk autoinstall action through the host.
func runAutoinstall(cmd *cobra.Command, action string, names []string, all bool) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Installing dependencies...")
	if _, err := s.host.Run(cmd.Context(), action, &lifecycle.Event{Names: names, All: all}); err != nil {
		return err
	}
	s.printSummary()
	return nil
}

func runPackage(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	evt, err := s.host.Run(cmd.Context(), lifecycle.ActionPackageFunction, &lifecycle.Event{Target: args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "✓ Packaged %s: %s\n", args[0], s.rel(evt.Data[packager.DataArtifact]))
	return nil
}
