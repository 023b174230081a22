package fs

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWalkMatchesMarkdownRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "java/basis/a.md", "# A")
	writeFile(t, root, "database/redis/b.md", "# B")
	writeFile(t, root, "notes.txt", "plain")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, filepath.Join(root, "database", "redis", "b.md"), files[0].Path)
	assert.Equal(t, filepath.Join(root, "java", "basis", "a.md"), files[1].Path)
}

func TestWalkExcludesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep/a.md", "# A")
	writeFile(t, root, "node_modules/pkg/readme.md", "# R")

	files, err := NewWalker(nil, []string{"**/node_modules/**", "node_modules/"}).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "keep", "a.md"), files[0].Path)
}

func TestWalkWarnsAboutUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "redis/persistence.md", "# RDB")
	locked := filepath.Join(root, "locked")
	writeFile(t, root, "locked/hidden.md", "# Hidden")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	files, err := NewWalker(nil, nil, WithLogger(logger)).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "persistence.md", filepath.Base(files[0].Path))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "skipping unreadable entry")
	assert.Contains(t, logs.String(), locked)
}

func TestWalkMissingRootIsEmpty(t *testing.T) {
	files, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReadFileRejectsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "bad.md")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0644))

	_, err := Reader{}.ReadFile(path)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	good := writeFile(t, root, "good.md", "# 标题\n内容")
	content, err := Reader{}.ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "# 标题\n内容", content)
}
