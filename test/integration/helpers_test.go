//go:build integration

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // HOME, holds ~/.autoinstall/config.yaml
	ProjectDir string // project root with autoinstall.yaml
	BinDir     string // fake install tool and its record file
	Record     string // one line per install, the folder it ran in
	FakeNpm    string // path of the fake install tool
}

// setupTestEnv creates isolated temp directories and a fake install tool
// that records the folder it runs in. HOME is redirected so user config is
// sandboxed.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available, skipping")
	}

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
		BinDir:     t.TempDir(),
	}
	env.Record = filepath.Join(env.BinDir, "installs.log")
	env.FakeNpm = filepath.Join(env.BinDir, "fake-npm")

	script := "#!/bin/sh\n" +
		"pwd >> \"" + env.Record + "\"\n" +
		"mkdir -p node_modules\n" +
		"touch node_modules/.installed\n"
	if err := os.WriteFile(env.FakeNpm, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake npm: %v", err)
	}

	t.Setenv("HOME", env.HomeDir)
	return env
}

// setupProject lays out a project:
//
//	autoinstall.yaml
//	backend/package.json        governs hello and world
//	backend/hello/
//	backend/nested/world/
//	workers/cron/               python, never installed
//	standalone/package.json
//	orphan/                     no manifest
func setupProject(t *testing.T, root string) {
	t.Helper()

	writeFile(t, filepath.Join(root, "autoinstall.yaml"), `name: demo
components:
  - name: backend
    functions:
      - name: hello
        runtime: nodejs4.3
      - name: world
        runtime: nodejs4.3
        path: backend/nested/world
  - name: jobs
    path: workers
    functions:
      - name: cron
        runtime: python2.7
functions:
  - name: standalone
    runtime: nodejs6.10
  - name: orphan
    runtime: nodejs6.10
`)
	writeFile(t, filepath.Join(root, "backend", "package.json"), `{"name": "backend"}`)
	writeFile(t, filepath.Join(root, "backend", "hello", "index.js"), "exports.handler = () => {}\n")
	writeFile(t, filepath.Join(root, "backend", "nested", "world", "index.js"), "exports.handler = () => {}\n")
	writeFile(t, filepath.Join(root, "workers", "cron", "main.py"), "def handler(e, c): pass\n")
	writeFile(t, filepath.Join(root, "standalone", "package.json"), `{"name": "standalone"}`)
	writeFile(t, filepath.Join(root, "standalone", "index.js"), "exports.handler = () => {}\n")
	writeFile(t, filepath.Join(root, "orphan", "index.js"), "exports.handler = () => {}\n")
}

// installs returns the folders the fake tool ran in, relative to root.
func installs(t *testing.T, env *testEnv) []string {
	t.Helper()
	data, err := os.ReadFile(env.Record)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("reading %s: %v", env.Record, err)
	}

	root, err := filepath.EvalSymlinks(env.ProjectDir)
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		dir, err := filepath.EvalSymlinks(line)
		if err != nil {
			dir = line
		}
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			rel = dir
		}
		dirs = append(dirs, filepath.ToSlash(rel))
	}
	return dirs
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}
