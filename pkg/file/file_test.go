package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestFindRecentAfter_FiltersByTimeAndExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cutoff := time.Now().Add(-time.Hour)
	fresh := cutoff.Add(30 * time.Minute)
	stale := cutoff.Add(-30 * time.Minute)

	writeFile(t, filepath.Join(dir, "new.srt"), fresh)
	writeFile(t, filepath.Join(dir, "nested", "deep.SRT"), fresh)
	writeFile(t, filepath.Join(dir, "old.srt"), stale)
	writeFile(t, filepath.Join(dir, "notes.txt"), fresh)

	got, err := FindRecentAfter(dir, cutoff, ".srt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "nested", "deep.SRT"),
		filepath.Join(dir, "new.srt"),
	}, got)
}

func TestFindRecentAfter_NoExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cutoff := time.Now().Add(-time.Hour)
	writeFile(t, filepath.Join(dir, "notes.txt"), cutoff.Add(time.Minute))

	got, err := FindRecentAfter(dir, cutoff)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindRecentAfter_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := FindRecentAfter(filepath.Join(t.TempDir(), "absent"), time.Time{})
	assert.Error(t, err)
}

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/subs/ep1.filtered.srt", ReplaceExt("/subs/ep1.srt", "filtered.srt"))
	assert.Equal(t, "/subs/ep1.summary.json", ReplaceExt("/subs/ep1.srt", ".summary.json"))
	assert.Equal(t, "/subs/readme.txt", ReplaceExt("/subs/readme", "txt"))
	assert.Equal(t, "/subs/.env.bak", ReplaceExt("/subs/.env", "bak"))
	assert.Equal(t, "", ReplaceExt("", "srt"))
}
