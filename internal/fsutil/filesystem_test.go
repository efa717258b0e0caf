package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fsys FileSystem, name, content string) {
	t.Helper()
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()

	_, err := m.Create("out/run_lightcurve.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, m.MkdirAll("out/plots", 0o755))
	assert.True(t, m.Exists("out"))
	assert.True(t, m.Exists("out/plots"))

	writeFile(t, m, "out/run_lightcurve.txt", "1 2 3\n")
	writeFile(t, m, "out/plots/run.png", "png")

	data, err := m.ReadFile("out/./run_lightcurve.txt")
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", string(data))

	data[0] = 'x'
	again, _ := m.ReadFile("out/run_lightcurve.txt")
	assert.Equal(t, "1 2 3\n", string(again))

	assert.Equal(t, []string{
		filepath.Clean("out/plots/run.png"),
		filepath.Clean("out/run_lightcurve.txt"),
	}, m.Files("out"))

	_, err = m.ReadFile("out/missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_CreateTruncates(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("out", 0o755))
	writeFile(t, m, "out/a.txt", "long content")
	writeFile(t, m, "out/a.txt", "short")
	data, err := m.ReadFile("out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("out", 0o755))
	writeFile(t, m, "out/a.txt", "a")

	require.NoError(t, m.Remove("out/a.txt"))
	assert.False(t, m.Exists("out/a.txt"))
	assert.Empty(t, m.Files("out"))
	assert.True(t, errors.Is(m.Remove("out/a.txt"), fs.ErrNotExist))
}

func TestOSFileSystem(t *testing.T) {
	dir := t.TempDir()
	var fsys FileSystem = OSFileSystem{}

	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, fsys.MkdirAll(sub, 0o755))
	assert.True(t, fsys.Exists(sub))

	name := filepath.Join(sub, "f.txt")
	assert.False(t, fsys.Exists(name))
	writeFile(t, fsys, name, "hello")
	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, fsys.Remove(name))
	assert.False(t, fsys.Exists(name))
}
