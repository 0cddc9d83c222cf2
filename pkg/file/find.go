package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FindRecentAfter walks dir and returns every file modified after
// since, optionally restricted to the given extensions (compared
// case-insensitively, leading dot included). Results are sorted so
// repeated scans see the same order.
func FindRecentAfter(dir string, since time.Time, exts ...string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(exts) > 0 && !hasExt(path, exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(since) {
			matches = append(matches, path)
		}
		return nil
	})

	sort.Strings(matches)
	return matches, err
}

func hasExt(path string, exts []string) bool {
	got := filepath.Ext(path)
	for _, ext := range exts {
		if strings.EqualFold(got, ext) {
			return true
		}
	}
	return false
}
