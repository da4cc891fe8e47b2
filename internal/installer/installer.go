package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Installer installs the dependencies declared by the manifest in dir.
type Installer interface {
	Install(ctx context.Context, dir string) error
}

// Func adapts a plain function to the Installer interface.
type Func func(ctx context.Context, dir string) error

// Install calls f(ctx, dir).
func (f Func) Install(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// Default install command.
const (
	DefaultCommand = "npm"
)

// DefaultArgs are the arguments passed to DefaultCommand.
var DefaultArgs = []string{"install"}

// Command runs an external program with its working directory set to the
// manifest directory.
type Command struct {
	Name string
	Args []string
	// Env is appended to the current process environment.
	Env []string

	// Stdout and Stderr receive the command output; nil discards stdout and
	// keeps stderr only for error reporting.
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommand returns a Command for name and args, falling back to
// DefaultCommand and DefaultArgs when name is empty.
func NewCommand(name string, args ...string) *Command {
	if name == "" {
		name = DefaultCommand
		if len(args) == 0 {
			args = DefaultArgs
		}
	}
	return &Command{Name: name, Args: append([]string(nil), args...)}
}

// String renders the command line, e.g. "npm install".
func (c *Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Install runs the command in dir and waits for it to finish.
func (c *Command) Install(ctx context.Context, dir string) error {
	bin, err := exec.LookPath(c.Name)
	if err != nil {
		return fmt.Errorf("%s not found: %w", c.Name, err)
	}

	cmd := exec.CommandContext(ctx, bin, c.Args...)
	cmd.Dir = dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	stdout := c.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	var stderrBuf bytes.Buffer
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, &stderrBuf)
	} else {
		cmd.Stderr = &stderrBuf
	}
	cmd.Stdout = stdout

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderrBuf.String()); msg != "" {
			return fmt.Errorf("%s in %s: %w: %s", c, dir, err, msg)
		}
		return fmt.Errorf("%s in %s: %w", c, dir, err)
	}
	return nil
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
