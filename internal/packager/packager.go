package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"

	"github.com/agentx-labs/autoinstall/internal/lifecycle"
	"github.com/agentx-labs/autoinstall/internal/project"
)

// DataArtifact is the event data key holding the written archive path.
const DataArtifact = "artifact"

// excludedNames are skipped while archiving.
var excludedNames = map[string]bool{
	".git":      true,
	".DS_Store": true,
}

// Packager writes function archives into a dist directory.
type Packager struct {
	fs      afero.Fs
	distDir string
}

// New returns a Packager writing to distDir on fsys. A nil fsys uses the OS
// filesystem.
func New(fsys afero.Fs, distDir string) *Packager {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Packager{fs: fsys, distDir: filepath.Clean(distDir)}
}

// DistDir returns the directory archives are written to.
func (p *Packager) DistDir() string {
	return p.distDir
}

// ArchivePath returns where the archive of fn is written.
func (p *Packager) ArchivePath(fn *project.Function) string {
	return filepath.Join(p.distDir, fn.Name+".zip")
}

// Package archives the root of fn and returns the archive path. An existing
// archive is replaced.
func (p *Packager) Package(fn *project.Function) (string, error) {
	info, err := p.fs.Stat(fn.RootPath)
	if err != nil {
		return "", fmt.Errorf("function %s: %w", fn.Name, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("function %s: %s is not a directory", fn.Name, fn.RootPath)
	}

	if err := p.fs.MkdirAll(p.distDir, 0755); err != nil {
		return "", fmt.Errorf("creating dist directory %s: %w", p.distDir, err)
	}

	dst := p.ArchivePath(fn)
	out, err := p.fs.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}

	zw := zip.NewWriter(out)
	if err := p.addTree(zw, fn.RootPath); err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("archiving %s: %w", fn.Name, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finishing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	return dst, nil
}

func (p *Packager) addTree(zw *zip.Writer, root string) error {
	return afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if excludedNames[info.Name()] || path == p.distDir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		if info.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		// Symlinks and other special files are skipped.
		if !info.Mode().IsRegular() {
			return nil
		}
		return p.addFile(zw, path, name, info)
	})
}

func (p *Packager) addFile(zw *zip.Writer, path, name string, info os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// Action returns the host "function package" action for functions of proj.
// The archive path is recorded in the event under DataArtifact.
func (p *Packager) Action(proj *project.Project) lifecycle.Action {
	return lifecycle.Action{
		Name:        lifecycle.ActionPackageFunction,
		Description: "Package a function into a zip archive",
		Parameters:  "function",
		Handler: func(ctx context.Context, evt *lifecycle.Event) (*lifecycle.Event, error) {
			fn, ok := proj.Function(evt.Target)
			if !ok {
				return nil, fmt.Errorf("function not found: %s", evt.Target)
			}
			if p.distDir == filepath.Clean(fn.RootPath) {
				return nil, fmt.Errorf("dist directory %s must not be the function root", p.distDir)
			}

			path, err := p.Package(fn)
			if err != nil {
				return nil, err
			}
			logr.FromContextOrDiscard(ctx).V(1).Info("packaged function", "function", fn.Name, "archive", path)
			evt.Set(DataArtifact, path)
			return evt, nil
		},
	}
}
