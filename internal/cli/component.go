package cli

import (
	"github.com/agentx-labs/autoinstall/internal/autoinstall"
	"github.com/spf13/cobra"
)

var componentAutoinstallAll bool

func init() {
	componentAutoinstallCmd.Flags().BoolVarP(&componentAutoinstallAll, "all", "a", false, "Autoinstall all components")
	componentCmd.AddCommand(componentAutoinstallCmd)
	rootCmd.AddCommand(componentCmd)
}

var componentCmd = &cobra.Command{
	Use:   "component",
	Short: "Work with project components",
}

var componentAutoinstallCmd = &cobra.Command{
	Use:   "autoinstall [component...]",
	Short: "Install component dependencies",
	Long: `Install dependencies in each component folder. A component folder that was
already installed for a function in the same run is not installed again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAutoinstall(cmd, autoinstall.ActionComponentAutoinstall, args, componentAutoinstallAll)
	},
}
