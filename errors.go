package cococonv

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error kinds returned by the converters. Returned errors wrap one of these and carry the file,
// line or field they refer to; test them with errors.Is.
var (
	ErrNotFound    = errors.New("not found")     // Missing input, metadata or image file.
	ErrParse       = errors.New("parse error")   // Invalid JSON or an unparseable value.
	ErrKeyNotFound = errors.New("key not found") // Missing field, short array or failed lookup.
	ErrDecode      = errors.New("decode error")  // Image file present but not decodable.
)

// wrapOpenErr classifies an error from opening or reading path.
func wrapOpenErr(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return fmt.Errorf("cannot read file %q: %w", path, err)
}

// missingKey reports that key is absent from the record described by where.
func missingKey(where, key string) error {
	return fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, where)
}
