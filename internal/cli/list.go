package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/autoinstall/internal/autoinstall"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List functions and the folder their dependencies are installed in",
	Long: `List every function in the project with its runtime and the folder holding
the package.json that would be installed for it. Nothing is installed.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a function for display.
type listEntry struct {
	Name      string `json:"name"`
	Component string `json:"component,omitempty"`
	Runtime   string `json:"runtime"`
	Manifest  string `json:"manifest,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	var entries []listEntry
	for _, fn := range s.project.Functions {
		entry := listEntry{Name: fn.Name, Runtime: fn.Runtime}
		if fn.Component != nil {
			entry.Component = fn.Component.Name
		}

		dir, ok, err := s.orch.Resolve(autoinstall.FunctionTarget(s.project, fn))
		if err != nil {
			return fmt.Errorf("resolving %s: %w", fn.Name, err)
		}
		if ok {
			entry.Manifest = s.rel(dir)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No functions declared.")
		return nil
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tCOMPONENT\tRUNTIME\tMANIFEST")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, dash(e.Component), e.Runtime, dash(e.Manifest))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
