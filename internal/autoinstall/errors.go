package autoinstall

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTargets is returned when neither target names nor "all" were given.
var ErrNoTargets = errors.New("target name or --all required")

// NotFoundError reports target names that did not resolve. No install is
// dispatched when it is returned.
type NotFoundError struct {
	Kind  string
	Names []string
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "target"
	}
	return fmt.Sprintf("%s not found: %s", kind, strings.Join(e.Names, ", "))
}

// InstallError reports a failed install dispatch. The directory stays marked
// as installed for the rest of the run.
type InstallError struct {
	Dir string
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installing %s: %v", e.Dir, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}
