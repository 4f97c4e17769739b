package glove

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIndex is returned when a row index falls outside [0, Rows()).
	ErrInvalidIndex = errors.New("glove: invalid index")
	// ErrUnsupported is returned by training entry points this table does not implement.
	ErrUnsupported = errors.New("glove: unsupported operation")
	// ErrNotInitialized is returned when the table is used before Initialize.
	ErrNotInitialized = errors.New("glove: table not initialized")
	// ErrShapeMismatch is returned when a vector does not have VectorLength entries.
	ErrShapeMismatch = errors.New("glove: vector length mismatch")
	// ErrNoData is returned by Load when the input holds no vectors.
	ErrNoData = errors.New("glove: no data")
)

// ParseError reports a malformed numeric token in the text interchange format.
type ParseError struct {
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("glove: line %d: malformed value %q: %v", e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
