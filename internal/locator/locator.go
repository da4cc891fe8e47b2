package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultManifest is the manifest file name searched for when none is configured.
const DefaultManifest = "package.json"

// Locator resolves manifest directories using read-only filesystem checks.
type Locator struct {
	fs       afero.Fs
	manifest string
}

// New returns a Locator that looks for manifestName on fsys. A nil fsys uses
// the OS filesystem and an empty manifestName uses DefaultManifest.
func New(fsys afero.Fs, manifestName string) *Locator {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if manifestName == "" {
		manifestName = DefaultManifest
	}
	return &Locator{fs: fsys, manifest: manifestName}
}

// ManifestName returns the file name the Locator searches for.
func (l *Locator) ManifestName() string {
	return l.manifest
}

// Locate returns the nearest directory at or above unitRoot that contains the
// manifest file, staying strictly inside projectRoot. found is false when no
// eligible directory has a manifest; that is not an error.
func (l *Locator) Locate(unitRoot, projectRoot string) (dir string, found bool, err error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", false, fmt.Errorf("resolving project root %s: %w", projectRoot, err)
	}
	dir, err = filepath.Abs(unitRoot)
	if err != nil {
		return "", false, fmt.Errorf("resolving unit root %s: %w", unitRoot, err)
	}

	for Within(root, dir) {
		ok, err := l.hasManifest(dir)
		if err != nil {
			return "", false, err
		}
		if ok {
			return dir, true, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without leaving the boundary.
			break
		}
		dir = parent
	}

	return "", false, nil
}

// hasManifest reports whether dir directly contains the manifest as a file.
func (l *Locator) hasManifest(dir string) (bool, error) {
	path := filepath.Join(dir, l.manifest)
	info, err := l.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking manifest in %s: %w", dir, err)
	}
	return !info.IsDir(), nil
}

// Within reports whether path lies strictly inside root. Both paths are
// compared as cleaned absolute paths, so "/a/b" is inside "/a/" but
// "/a-other" is not inside "/a" and "/a" is not inside itself.
func Within(root, path string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}
