package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_ReadMissing_ReportsNotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())

	data, ok, err := s.Read("internal/widget")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, data)
}

func TestFileStore_WriteThenRead_RoundTrips(t *testing.T) {
	s := NewFileStore(t.TempDir())
	content := []byte("---\nuid: x\n---\n# widget\n")

	require.NoError(t, s.Write("internal/widget", content))

	data, ok, err := s.Read("internal/widget")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, content, data)
}

func TestFileStore_PathMapping(t *testing.T) {
	s := NewFileStore("docs")

	require.Equal(t, filepath.Join("docs", "internal", "protect.md"), s.Path("internal/protect"))
	require.Equal(t, filepath.Join("docs", "main.md"), s.Path("/main/"))
}

func TestFileStore_WriteCreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)

	require.NoError(t, s.Write("a/b/c/unit", []byte("x\n")))
	_, err := os.Stat(filepath.Join(root, "a", "b", "c", "unit.md"))
	require.NoError(t, err)
}

func TestFileStore_WriteLeavesNoTempFilesBehind(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)

	require.NoError(t, s.Write("unit", []byte("first\n")))
	require.NoError(t, s.Write("unit", []byte("second\n")))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "unit.md", entries[0].Name())

	data, ok, err := s.Read("unit")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("second\n"), data)
}
