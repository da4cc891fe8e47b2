package cli

import (
	"fmt"
	"os"

	"github.com/agentx-labs/autoinstall/internal/branding"
	"github.com/agentx-labs/autoinstall/internal/logging"
	"github.com/spf13/cobra"
)

var (
	projectFlag string
	verbosity   int
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs the dependencies of serverless functions and components
by running npm install in the nearest folder holding a package.json, once per
folder per run. It also runs automatically before a function is packaged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmd.SetContext(logging.NewCobraContext(cmd, verbosity))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project root (default: discovered from the working directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-vv streams install output)")
}

// Execute runs the root command. info carries the values injected via
// ldflags; anything missing is read from the binary's embedded build info.
func Execute(info BuildInfo) error {
	build = info

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
