package cococonv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// readOutput returns the content of the file at path.
func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// fixDate pins the creation date written into documents for the duration of the test.
func fixDate(t *testing.T) {
	t.Helper()
	now = func() time.Time { return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func TestFileStem(t *testing.T) {
	require.Equal(t, "000000397133", fileStem("000000397133.jpg"))
	require.Equal(t, "397133", fileStem("train2017/397133.jpg"))
	require.Equal(t, "a.b", fileStem("a.b.png"))
	require.Equal(t, "42", fileStem("42"))
}

func TestNumericStem(t *testing.T) {
	id, err := numericStem("000000397133.jpg")
	require.NoError(t, err)
	require.Equal(t, int64(397133), id)

	_, err = numericStem("image_5.jpg")
	require.ErrorIs(t, err, ErrParse)
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 200*1024)
	path := writeFile(t, dir, "lines.txt", "a\n\n"+long+"\r\nb")

	lines, err := readLines(path)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	require.Equal(t, "a", lines[0])
	require.Equal(t, "", lines[1])
	require.Equal(t, long, strings.TrimSpace(lines[2]))
	require.Equal(t, "b", lines[3])

	_, err = readLines(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0644))
	require.Equal(t, "second", readOutput(t, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")

	err = writeFileAtomic(filepath.Join(dir, "missing", "out.json"), []byte("x"), 0644)
	require.Error(t, err)
}
