package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext, so sibling artifacts
// can be derived from a source file ("ep1.srt" → "ep1.filtered.srt").
// A path without an extension gets ext appended; dotfiles keep their
// name.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return ""
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := filepath.Base(path)
	old := filepath.Ext(base)
	if old == "" || old == base {
		return path + ext
	}
	return path[:len(path)-len(old)] + ext
}
