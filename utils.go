package cococonv

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxLineSize bounds a single line of a line-delimited annotation file.
const maxLineSize = 64 << 20

// fileStem returns the base name of path without its last extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// numericStem parses the stem of fileName (e.g. "000000397133.jpg") as a base 10 integer.
func numericStem(fileName string) (int64, error) {
	stem := fileStem(fileName)
	id, err := strconv.ParseInt(strings.TrimSpace(stem), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: file name %q does not contain a numeric id", ErrParse, fileName)
	}
	return id, nil
}

// readLines returns a slice of lines read from the file at path.
func readLines(path string) (lines []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	defer closeWithErrCheck(file, &err)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %q as lines: %w", path, err)
	}

	return lines, nil
}

// readFile uses ioutil.ReadAll to read the file at path.
func readFile(path string) (data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	defer closeWithErrCheck(f, &err)

	data, err = ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %q: %w", path, err)
	}

	return data, nil
}

// readJSON reads the file at path and decodes it into v.
func readJSON(path string, v interface{}) error {
	enc, err := readFile(path)
	if err != nil {
		return err
	}
	if err := jsonCodec.Unmarshal(enc, v); err != nil {
		return fmt.Errorf("%w: invalid JSON in %q: %v", ErrParse, path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it to path, so that
// path either keeps its old content or holds all of data.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := ioutil.TempFile(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
