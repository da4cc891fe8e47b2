// Package logging builds the logr.Logger used by the CLI and attaches it to
// command contexts. Library packages read it back with
// logr.FromContextOrDiscard.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
)

// New returns a logger writing one line per entry to w. Entries logged at
// V(n) with n > verbosity are dropped.
func New(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(p, a string) {
		if p == "" {
			fmt.Fprintln(w, a)
			return
		}
		fmt.Fprintln(w, p, a)
	}, funcr.Options{Verbosity: verbosity})
}

// NewCobraContext attaches a stderr logger to the command's context.
func NewCobraContext(cmd *cobra.Command, verbosity int) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logr.NewContext(ctx, New(cmd.ErrOrStderr(), verbosity))
}
