package autoinstall

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/spf13/afero"

	"github.com/agentx-labs/autoinstall/internal/locator"
	"github.com/agentx-labs/autoinstall/internal/project"
	"github.com/agentx-labs/autoinstall/internal/runtime"
)

// spyInstaller records every install dispatch in order.
type spyInstaller struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (s *spyInstaller) Install(_ context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, dir)
	return s.fail[dir]
}

func (s *spyInstaller) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func testContext(t *testing.T) context.Context {
	return logr.NewContext(context.Background(), testr.NewWithOptions(t, testr.Options{Verbosity: 1}))
}

func writeManifest(t *testing.T, fsys afero.Fs, dir string) {
	t.Helper()
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(dir, "package.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
}

// fixture is a project on an in-memory filesystem:
//
//	/proj/shared/package.json   governs a, b, c
//	/proj/d/package.json
//	/proj/e/package.json
//	/proj/bare/f                no manifest
//	/proj/py/g                  python runtime
type fixture struct {
	fs      afero.Fs
	project *project.Project
	spy     *spyInstaller
	orch    *Orchestrator
	results []Result
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeManifest(t, fsys, "/proj/shared")
	writeManifest(t, fsys, "/proj/d")
	writeManifest(t, fsys, "/proj/e")
	writeManifest(t, fsys, "/proj/py")
	for _, dir := range []string{"/proj/shared/a", "/proj/shared/b", "/proj/shared/c/handler", "/proj/bare/f", "/proj/py/g"} {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	p, err := project.Build("/proj", &project.File{
		Name: "demo",
		Components: []project.ComponentSpec{
			{Name: "shared", Functions: []project.FunctionSpec{
				{Name: "a", Runtime: "nodejs4.3"},
				{Name: "b", Runtime: "nodejs4.3"},
				{Name: "c", Runtime: "nodejs6.10", Path: "shared/c/handler"},
			}},
			{Name: "d"},
			{Name: "e"},
		},
		Functions: []project.FunctionSpec{
			{Name: "d", Runtime: "nodejs4.3", Path: "d"},
			{Name: "e", Runtime: "nodejs4.3", Path: "e"},
			{Name: "f", Runtime: "nodejs4.3", Path: "bare/f"},
			{Name: "g", Runtime: "python2.7", Path: "py/g"},
		},
	})
	if err != nil {
		t.Fatalf("building project: %v", err)
	}

	f := &fixture{fs: fsys, project: p, spy: &spyInstaller{}}
	f.orch = New(Options{
		Locator:  locator.New(fsys, ""),
		Runtimes: runtime.NodeDispatcher("", f.spy),
		OnResult: func(r Result) { f.results = append(f.results, r) },
	})
	return f
}

func (f *fixture) function(t *testing.T, name string) Target {
	t.Helper()
	tgt, ok := Functions(f.project).Lookup(name)
	if !ok {
		t.Fatalf("function %s not in fixture", name)
	}
	return tgt
}

func TestEnsureInstalled_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	dispatched, err := f.orch.EnsureInstalled(ctx, "/proj/d")
	if err != nil || !dispatched {
		t.Fatalf("first call = (%v, %v), want (true, nil)", dispatched, err)
	}
	dispatched, err = f.orch.EnsureInstalled(ctx, "/proj/d/")
	if err != nil || dispatched {
		t.Fatalf("second call = (%v, %v), want (false, nil)", dispatched, err)
	}

	if got := f.spy.Calls(); !reflect.DeepEqual(got, []string{"/proj/d"}) {
		t.Errorf("install calls = %v, want exactly one for /proj/d", got)
	}
	if got := f.orch.Installed(); !reflect.DeepEqual(got, []string{"/proj/d"}) {
		t.Errorf("Installed() = %v", got)
	}
}

func TestEnsureInstalled_NoFallback(t *testing.T) {
	o := New(Options{Runtimes: runtime.NewDispatcher(nil)})
	if _, err := o.EnsureInstalled(context.Background(), "/proj/d"); err == nil {
		t.Fatal("expected error without an untagged installer, got nil")
	}
}

func TestRun_SharedManifestSequentialOrder(t *testing.T) {
	f := newFixture(t)
	targets := []Target{
		f.function(t, "a"),
		f.function(t, "d"),
		f.function(t, "b"),
		f.function(t, "e"),
		f.function(t, "c"),
	}

	report, err := f.orch.Run(testContext(t), targets)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	wantCalls := []string{"/proj/shared", "/proj/d", "/proj/e"}
	if got := f.spy.Calls(); !reflect.DeepEqual(got, wantCalls) {
		t.Errorf("install calls = %v, want %v", got, wantCalls)
	}

	wantOutcomes := []Outcome{Dispatched, Dispatched, AlreadyInstalled, Dispatched, AlreadyInstalled}
	if len(report.Results) != len(wantOutcomes) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(wantOutcomes))
	}
	for i, want := range wantOutcomes {
		if report.Results[i].Outcome != want {
			t.Errorf("result %d (%s) = %s, want %s", i, report.Results[i].Target, report.Results[i].Outcome, want)
		}
	}
	if report.Count(Dispatched) != 3 || report.Count(AlreadyInstalled) != 2 {
		t.Errorf("counts = %d dispatched, %d already installed", report.Count(Dispatched), report.Count(AlreadyInstalled))
	}
	if len(f.results) != 5 {
		t.Errorf("OnResult called %d times, want 5", len(f.results))
	}
}

func TestRun_NoManifestSkipsInstall(t *testing.T) {
	f := newFixture(t)

	report, err := f.orch.Run(testContext(t), []Target{f.function(t, "f")})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls := f.spy.Calls(); len(calls) != 0 {
		t.Errorf("install calls = %v, want none", calls)
	}
	if report.Results[0].Outcome != NoManifest {
		t.Errorf("outcome = %s, want %s", report.Results[0].Outcome, NoManifest)
	}
}

func TestRun_UnsupportedRuntimeSkipped(t *testing.T) {
	f := newFixture(t)

	report, err := f.orch.Run(testContext(t), []Target{f.function(t, "g")})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if calls := f.spy.Calls(); len(calls) != 0 {
		t.Errorf("install calls = %v, want none for python function", calls)
	}
	if report.Results[0].Outcome != Unsupported {
		t.Errorf("outcome = %s, want %s", report.Results[0].Outcome, Unsupported)
	}
}

func TestRun_InstallFailureStopsBatchWithoutRetry(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("npm ERR!")
	f.spy.fail = map[string]error{"/proj/shared": boom}
	ctx := testContext(t)

	report, err := f.orch.Run(ctx, []Target{f.function(t, "d"), f.function(t, "a"), f.function(t, "e")})
	if err == nil {
		t.Fatal("expected install error, got nil")
	}
	var installErr *InstallError
	if !errors.As(err, &installErr) || installErr.Dir != "/proj/shared" {
		t.Fatalf("error = %v, want *InstallError for /proj/shared", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the installer failure", err)
	}
	if len(report.Results) != 1 {
		t.Errorf("report has %d results, want only the target before the failure", len(report.Results))
	}
	if got := f.spy.Calls(); !reflect.DeepEqual(got, []string{"/proj/d", "/proj/shared"}) {
		t.Errorf("install calls = %v, e must not run after the failure", got)
	}

	// Same run: the failed directory stays marked and is not retried.
	res, err := f.orch.InstallTarget(ctx, f.function(t, "b"))
	if err != nil {
		t.Fatalf("InstallTarget error: %v", err)
	}
	if res.Outcome != AlreadyInstalled {
		t.Errorf("outcome = %s, want %s", res.Outcome, AlreadyInstalled)
	}
	if n := len(f.spy.Calls()); n != 2 {
		t.Errorf("install calls = %d, want 2 (no retry)", n)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	if _, err := f.orch.Run(ctx, []Target{f.function(t, "d")}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if calls := f.spy.Calls(); len(calls) != 0 {
		t.Errorf("install calls = %v, want none", calls)
	}
}

func TestComponentTargetsShareDedupWithFunctions(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	comps := Components(f.project).Targets()
	if _, err := f.orch.Run(ctx, comps); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := []string{"/proj/shared", "/proj/d", "/proj/e"}
	if got := f.spy.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("install calls = %v, want %v", got, want)
	}

	res, err := f.orch.InstallTarget(ctx, f.function(t, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != AlreadyInstalled {
		t.Errorf("function a outcome = %s, want %s", res.Outcome, AlreadyInstalled)
	}
}

func TestResolve(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target Target
		dir    string
		ok     bool
	}{
		{"nested function", f.function(t, "c"), "/proj/shared", true},
		{"own manifest", f.function(t, "d"), "/proj/d", true},
		{"no manifest", f.function(t, "f"), "", false},
		{"python", f.function(t, "g"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok, err := f.orch.Resolve(tt.target)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if dir != tt.dir || ok != tt.ok {
				t.Errorf("Resolve = (%q, %v), want (%q, %v)", dir, ok, tt.dir, tt.ok)
			}
		})
	}
	if calls := f.spy.Calls(); len(calls) != 0 {
		t.Errorf("Resolve dispatched installs: %v", calls)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)

	if _, err := f.orch.EnsureInstalled(ctx, "/proj/d"); err != nil {
		t.Fatal(err)
	}
	f.orch.Reset()
	if got := f.orch.Installed(); len(got) != 0 {
		t.Errorf("Installed() after Reset = %v", got)
	}
	if dispatched, err := f.orch.EnsureInstalled(ctx, "/proj/d"); err != nil || !dispatched {
		t.Errorf("after Reset = (%v, %v), want (true, nil)", dispatched, err)
	}
	if n := len(f.spy.Calls()); n != 2 {
		t.Errorf("install calls = %d, want 2", n)
	}
}

func TestNew_UniqueRunIDs(t *testing.T) {
	a, b := New(Options{}), New(Options{})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("run ids %q and %q should be non-empty and distinct", a.ID(), b.ID())
	}
}

func TestEnsureInstalled_ConcurrentCallersWaitForSingleDispatch(t *testing.T) {
	release := make(chan struct{})
	var calls, finished int32

	slow := runtime.NewDispatcher(installerFunc(func(ctx context.Context, dir string) error {
		atomic.AddInt32(&calls, 1)
		<-release
		atomic.StoreInt32(&finished, 1)
		return nil
	}))
	o := New(Options{Runtimes: slow})
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.EnsureInstalled(ctx, "/proj/shared"); err != nil {
				errs <- err
				return
			}
			if atomic.LoadInt32(&finished) != 1 {
				errs <- errors.New("caller returned before the install finished")
			}
		}()
	}

	// Give every caller a chance to block on the in-flight install.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("install dispatched %d times, want 1", n)
	}
}

type installerFunc func(ctx context.Context, dir string) error

func (f installerFunc) Install(ctx context.Context, dir string) error { return f(ctx, dir) }

func TestLocate_OsFilesystem(t *testing.T) {
	root := t.TempDir()
	fnDir := filepath.Join(root, "comp", "fn")
	if err := os.MkdirAll(fnDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "comp", "package.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := project.Build(root, &project.File{
		Name:      "os",
		Functions: []project.FunctionSpec{{Name: "fn", Runtime: "nodejs", Path: "comp/fn"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	spy := &spyInstaller{}
	o := New(Options{Runtimes: runtime.NodeDispatcher("", spy)})
	tgt, _ := Functions(p).Lookup("fn")
	if _, err := o.InstallTarget(testContext(t), tgt); err != nil {
		t.Fatal(err)
	}
	if got := spy.Calls(); !reflect.DeepEqual(got, []string{filepath.Join(root, "comp")}) {
		t.Errorf("install calls = %v", got)
	}
}

func TestRun_EmptyRuntimeTagSkipped(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeManifest(t, fsys, "/proj/x")
	p, err := project.Build("/proj", &project.File{
		Name:      "untagged",
		Functions: []project.FunctionSpec{{Name: "x", Path: "x"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	spy := &spyInstaller{}
	o := New(Options{Locator: locator.New(fsys, ""), Runtimes: runtime.NodeDispatcher("", spy)})

	report, err := o.Run(testContext(t), Functions(p).Targets())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Results[0].Outcome != Unsupported {
		t.Errorf("outcome = %s, want %s", report.Results[0].Outcome, Unsupported)
	}
	if calls := spy.Calls(); len(calls) != 0 {
		t.Errorf("install calls = %v, want none for a function without a runtime", calls)
	}
}

func TestEnsureInstalled_CancelledStarterDoesNotCancelWaiters(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var installCtxErr error

	o := New(Options{Runtimes: runtime.NewDispatcher(installerFunc(func(ctx context.Context, dir string) error {
		close(started)
		<-release
		installCtxErr = ctx.Err()
		return nil
	}))})

	starterCtx, cancel := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := o.EnsureInstalled(starterCtx, "/proj/shared")
		starterErr <- err
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := o.EnsureInstalled(context.Background(), "/proj/shared")
		waiterErr <- err
	}()

	cancel()
	if err := <-starterErr; !errors.Is(err, context.Canceled) {
		t.Errorf("starter error = %v, want context.Canceled", err)
	}

	// Give the waiter time to join the in-flight install.
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-waiterErr; err != nil {
		t.Errorf("waiter error = %v, want nil", err)
	}
	if installCtxErr != nil {
		t.Errorf("install context was cancelled: %v", installCtxErr)
	}
}
