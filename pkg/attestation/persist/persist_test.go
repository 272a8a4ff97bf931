// Copyright 2025 The lcp-enclave-go Authors

package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFileWritesAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "file")
	require.NoError(t, AtomicWriteFile(path, []byte("hello"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteFileOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, AtomicWriteFile(path, []byte("v1"), 0o600))
	require.NoError(t, AtomicWriteFile(path, []byte("v2"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestAtomicWriteFileLeavesNoTempFileBehindOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	require.NoError(t, AtomicWriteFile(path, []byte("data"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "file", entries[0].Name())
}
