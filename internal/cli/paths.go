package cli

import (
	"path/filepath"
	"strings"
)

// relPath returns dir relative to root for display, or dir unchanged when it
// lies outside root. The root itself is shown as ".".
func relPath(root, dir string) string {
	if dir == "" {
		return "-"
	}
	r, err := filepath.Rel(root, dir)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return dir
	}
	return r
}
