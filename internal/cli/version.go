package cli

import (
	"encoding/json"
	"fmt"
	goruntime "runtime"
	"runtime/debug"

	"github.com/agentx-labs/autoinstall/internal/branding"
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary. Fields left at their zero value
// are filled from the module and VCS data the Go toolchain embeds.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	Module    string `json:"module"`
	GoVersion string `json:"go"`
	Platform  string `json:"platform"`
}

var build BuildInfo

// complete fills unset fields from debug.ReadBuildInfo. "dev" and "unknown"
// count as unset so `go install` builds report their module version.
func (b BuildInfo) complete(read func() (*debug.BuildInfo, bool)) BuildInfo {
	b.Platform = goruntime.GOOS + "/" + goruntime.GOARCH
	b.GoVersion = goruntime.Version()
	if b.Module == "" {
		b.Module = branding.GoModule()
	}

	info, ok := read()
	if !ok {
		return b.withPlaceholders()
	}
	if unset(b.Version) && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if unset(b.Commit) {
				b.Commit = s.Value
			}
		case "vcs.time":
			if unset(b.Date) {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b.withPlaceholders()
}

func (b BuildInfo) withPlaceholders() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
}

func unset(s string) bool {
	return s == "" || s == "dev" || s == "unknown"
}

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := build.complete(debug.ReadBuildInfo)

		switch {
		case versionShort:
			fmt.Fprintln(out, info.Version)
		case versionJSON:
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling build info: %w", err)
			}
			fmt.Fprintln(out, string(data))
		default:
			commit := info.Commit
			if info.Modified {
				commit += "+dirty"
			}
			fmt.Fprintf(out, "%s %s (%s)\n  commit:   %s\n  built:    %s\n  go:       %s %s\n",
				branding.CLIName(), info.Version, info.Module, commit, info.Date, info.GoVersion, info.Platform)
		}
		return nil
	},
}
