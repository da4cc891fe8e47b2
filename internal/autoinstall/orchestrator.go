package autoinstall

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/agentx-labs/autoinstall/internal/installer"
	"github.com/agentx-labs/autoinstall/internal/locator"
	"github.com/agentx-labs/autoinstall/internal/runtime"
)

// Outcome describes what happened to a single target.
type Outcome int

// Target outcomes.
const (
	// Dispatched means the target's manifest directory was installed now.
	Dispatched Outcome = iota
	// AlreadyInstalled means the manifest directory was handled earlier in the run.
	AlreadyInstalled
	// NoManifest means no manifest governs the target; nothing to install.
	NoManifest
	// Unsupported means the target's runtime has no installer.
	Unsupported
)

func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "installed"
	case AlreadyInstalled:
		return "already installed"
	case NoManifest:
		return "no manifest"
	case Unsupported:
		return "unsupported runtime"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome for one target.
type Result struct {
	Target  string
	Dir     string
	Outcome Outcome
}

// Options configure an Orchestrator.
type Options struct {
	// Locator finds manifests; defaults to package.json on the OS filesystem.
	Locator *locator.Locator
	// Runtimes picks the installer per runtime tag. Required.
	Runtimes *runtime.Dispatcher
	// OnResult, if set, is called after each target is handled.
	OnResult func(Result)
}

// Orchestrator dispatches installs at most once per manifest directory for
// its lifetime. Construct one per run.
type Orchestrator struct {
	id       string
	locator  *locator.Locator
	runtimes *runtime.Dispatcher
	onResult func(Result)

	mu         sync.Mutex
	installed  map[string]struct{}
	dispatched []string

	flight singleflight.Group
}

// New returns an Orchestrator with an empty installed set.
func New(opts Options) *Orchestrator {
	loc := opts.Locator
	if loc == nil {
		loc = locator.New(nil, "")
	}
	runtimes := opts.Runtimes
	if runtimes == nil {
		runtimes = runtime.NewDispatcher(nil)
	}
	return &Orchestrator{
		id:        uuid.NewString(),
		locator:   loc,
		runtimes:  runtimes,
		onResult:  opts.OnResult,
		installed: make(map[string]struct{}),
	}
}

// ID identifies the run in log output.
func (o *Orchestrator) ID() string {
	return o.id
}

// Installed returns the dispatched manifest directories in dispatch order.
func (o *Orchestrator) Installed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.dispatched...)
}

// Reset forgets every dispatched directory, starting a new run.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.installed = make(map[string]struct{})
	o.dispatched = nil
}

// EnsureInstalled installs dir with the untagged (fallback) installer unless
// dir was already dispatched by this Orchestrator.
func (o *Orchestrator) EnsureInstalled(ctx context.Context, dir string) (bool, error) {
	inst, ok := o.runtimes.DispatchInstaller("")
	if !ok {
		return false, fmt.Errorf("no installer configured for %s", dir)
	}
	return o.ensure(ctx, dir, inst)
}

// ensure dispatches inst for dir at most once. The directory is marked before
// the install starts and is not unmarked if the install fails. Concurrent
// callers for the same directory wait for the in-flight install and share
// its error. The install runs to completion even if the caller that started
// it is cancelled; each caller stops waiting when its own ctx is done.
func (o *Orchestrator) ensure(ctx context.Context, dir string, inst installer.Installer) (bool, error) {
	key, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", dir, err)
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("run", o.id)
	installCtx := context.WithoutCancel(ctx)

	ran := false
	ch := o.flight.DoChan(key, func() (interface{}, error) {
		o.mu.Lock()
		if _, done := o.installed[key]; done {
			o.mu.Unlock()
			return nil, nil
		}
		o.installed[key] = struct{}{}
		o.dispatched = append(o.dispatched, key)
		o.mu.Unlock()
		ran = true

		log.Info("Autoinstalling package", "dir", key)
		if err := inst.Install(installCtx, key); err != nil {
			return nil, &InstallError{Dir: key, Err: err}
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return ran, res.Err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve returns the manifest directory of t. ok is false when t should be
// skipped: its runtime has no installer or no manifest governs it.
func (o *Orchestrator) Resolve(t Target) (dir string, ok bool, err error) {
	r, err := o.resolve(t)
	if err != nil {
		return "", false, err
	}
	return r.dir, r.outcome == Dispatched, nil
}

type resolution struct {
	dir       string
	installer installer.Installer
	// outcome is Dispatched when the target is installable.
	outcome Outcome
}

func (o *Orchestrator) resolve(t Target) (resolution, error) {
	tag := t.Runtime()
	if t.Filtered() && tag == "" {
		return resolution{outcome: Unsupported}, nil
	}
	if !t.Filtered() {
		tag = ""
	}
	inst, ok := o.runtimes.DispatchInstaller(tag)
	if !ok {
		return resolution{outcome: Unsupported}, nil
	}

	boundary := t.SearchBoundary()
	if boundary == "" {
		dir, err := filepath.Abs(t.InstallRoot())
		if err != nil {
			return resolution{}, fmt.Errorf("resolving %s: %w", t.InstallRoot(), err)
		}
		return resolution{dir: dir, installer: inst, outcome: Dispatched}, nil
	}

	dir, found, err := o.locator.Locate(t.InstallRoot(), boundary)
	if err != nil {
		return resolution{}, fmt.Errorf("locating manifest for %s: %w", t.TargetName(), err)
	}
	if !found {
		return resolution{outcome: NoManifest}, nil
	}
	return resolution{dir: dir, installer: inst, outcome: Dispatched}, nil
}

// InstallTarget resolves t and ensures its manifest directory is installed.
// Targets without a manifest or with an unsupported runtime are skipped
// without error.
func (o *Orchestrator) InstallTarget(ctx context.Context, t Target) (Result, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("run", o.id, "target", t.TargetName())

	res := Result{Target: t.TargetName()}
	r, err := o.resolve(t)
	if err != nil {
		return res, err
	}
	res.Dir = r.dir

	switch r.outcome {
	case Unsupported:
		log.V(1).Info("skipping target with unsupported runtime", "runtime", t.Runtime())
		res.Outcome = Unsupported
	case NoManifest:
		log.V(1).Info("no manifest found", "root", t.InstallRoot())
		res.Outcome = NoManifest
	default:
		dispatched, err := o.ensure(ctx, r.dir, r.installer)
		if err != nil {
			return res, err
		}
		res.Outcome = AlreadyInstalled
		if dispatched {
			res.Outcome = Dispatched
		}
	}

	if o.onResult != nil {
		o.onResult(res)
	}
	return res, nil
}

// Report summarizes a batch.
type Report struct {
	Results []Result
}

// Count returns how many results had outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Run handles targets one after another in the given order. Each install is
// awaited before the next target is resolved. The first error ends the batch;
// installs already dispatched stay dispatched.
func (o *Orchestrator) Run(ctx context.Context, targets []Target) (*Report, error) {
	report := &Report{}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := o.InstallTarget(ctx, t)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}
