package xmltree

import (
	"errors"
	"fmt"
)

var ErrInvalidPath = errors.New("invalid path")

// MalformedInputError is returned when text cannot be parsed into a tree.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// PathNotFoundError means the requested element or attribute does not exist.
// It is never reported as an empty value.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// IsPathNotFound reports whether err is or wraps a *PathNotFoundError.
func IsPathNotFound(err error) bool {
	var pe *PathNotFoundError
	return errors.As(err, &pe)
}
