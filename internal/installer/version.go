package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ToolVersion runs `<name> --version` and parses the reported version.
func ToolVersion(ctx context.Context, name string) (*semver.Version, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s --version: %w", name, err)
	}

	return ParseVersion(out.String())
}

// ParseVersion extracts a semantic version from tool output such as
// "10.2.4\n" or "v18.17.0". Only the first line is considered.
func ParseVersion(output string) (*semver.Version, error) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(output), "\n", 2)[0])
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty version output")
	}
	// Some tools print "<name> <version>".
	raw := strings.TrimPrefix(fields[len(fields)-1], "v")
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", raw, err)
	}
	return v, nil
}

// CheckVersion reports the installed version of name and whether it satisfies
// constraint (e.g. ">= 3.0.0"). An empty constraint is always satisfied.
func CheckVersion(ctx context.Context, name, constraint string) (*semver.Version, bool, error) {
	v, err := ToolVersion(ctx, name)
	if err != nil {
		return nil, false, err
	}
	ok, err := Satisfies(v, constraint)
	return v, ok, err
}

// Satisfies reports whether v meets constraint.
func Satisfies(v *semver.Version, constraint string) (bool, error) {
	if strings.TrimSpace(constraint) == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
