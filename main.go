// Command autoinstall installs function dependency manifests before packaging.
package main

import (
	"os"

	"github.com/agentx-labs/autoinstall/internal/cli"
)

// Release builds set these with
//
//	-ldflags "-X main.version=... -X main.commit=... -X main.date=..."
//
// Plain `go build` and `go install` builds leave them empty and the version
// command reads the embedded module and VCS data instead.
var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cli.Execute(cli.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		os.Exit(1)
	}
}
