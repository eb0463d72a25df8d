package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	f := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "server")
	require.NoError(t, os.WriteFile(path, []byte("bin"), 0644))

	exists, err := f.FileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.FileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	// A directory is not a file.
	exists, err = f.FileExists(dir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsExecutable(t *testing.T) {
	f := New()
	dir := t.TempDir()

	executable := filepath.Join(dir, "runnable")
	require.NoError(t, os.WriteFile(executable, []byte("#!/bin/sh\n"), 0755))
	plain := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(plain, []byte("text"), 0644))

	ok, err := f.IsExecutable(executable)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.IsExecutable(plain)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.IsExecutable(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirExists(t *testing.T) {
	f := New()
	dir := t.TempDir()

	exists, err := f.DirExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.DirExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadWriteRemove(t *testing.T) {
	f := New()
	path := filepath.Join(t.TempDir(), "info.json")

	require.NoError(t, f.WriteFile(path, `{"pid":1}`))
	data, err := f.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"pid":1}`, string(data))

	require.NoError(t, f.Remove(path))
	exists, err := f.FileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMkdirAll(t *testing.T) {
	f := New()
	nested := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, f.MkdirAll(nested))
	exists, err := f.DirExists(nested)
	require.NoError(t, err)
	assert.True(t, exists)
}
