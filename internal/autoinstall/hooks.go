package autoinstall

import (
	"context"

	"github.com/agentx-labs/autoinstall/internal/lifecycle"
)

// BulkHandler returns the action handler that installs the targets of src
// selected by evt.Names or evt.All. The event is returned unchanged.
func (o *Orchestrator) BulkHandler(src Source) lifecycle.Handler {
	return func(ctx context.Context, evt *lifecycle.Event) (*lifecycle.Event, error) {
		targets, err := Select(ctx, src, evt.Names, evt.All)
		if err != nil {
			return nil, err
		}
		if _, err := o.Run(ctx, targets); err != nil {
			return nil, err
		}
		return evt, nil
	}
}

// PrePackageHook returns the hook that installs the dependencies of the
// target named by evt.Target before it is packaged. The event is returned
// unchanged.
func (o *Orchestrator) PrePackageHook(src Source) lifecycle.Handler {
	return func(ctx context.Context, evt *lifecycle.Event) (*lifecycle.Event, error) {
		t, ok := src.Lookup(evt.Target)
		if !ok {
			return nil, &NotFoundError{Kind: src.Kind(), Names: []string{evt.Target}}
		}
		if _, err := o.InstallTarget(ctx, t); err != nil {
			return nil, err
		}
		return evt, nil
	}
}
