package filex

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesAndIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	require.NoError(t, EnsureDir(dir))
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	name := filepath.Join(tmp, "occupied")
	require.NoError(t, os.WriteFile(name, []byte("x"), 0o660))

	require.Error(t, EnsureDir(filepath.Join(name, "sub")))
}

func TestWriteAtomic_WritesFullContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "blob.bin")
	data := []byte("attachment bytes")

	require.NoError(t, WriteAtomic(path, bytes.NewReader(data)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestWriteAtomic_LeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")

	require.NoError(t, WriteAtomic(path, bytes.NewReader([]byte("x"))))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "blob.bin", entries[0].Name())
}

func TestMove_RenamesAndRemovesSource(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.bin")
	dst := filepath.Join(tmp, "nested", "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o660))

	require.NoError(t, Move(src, dst))

	require.False(t, Exists(src))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestCopy_PreservesSource(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src.bin")
	dst := filepath.Join(tmp, "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o660))

	require.NoError(t, Copy(src, dst))

	require.True(t, Exists(src))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}
