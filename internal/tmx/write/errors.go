package write

import (
	"errors"
	"fmt"
)

// Kind classifies a write failure.
type Kind int

const (
	// KindIO is a filesystem failure; the target file is left untouched.
	KindIO Kind = iota

	// KindEncoding means the document could not be re-encoded to its
	// source encoding.
	KindEncoding

	// KindTempCollision means the sibling temporary file could not be
	// created.
	KindTempCollision
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindEncoding:
		return "encoding"
	case KindTempCollision:
		return "temp-collision"
	default:
		return "unknown"
	}
}

// WriteError is the terminal error of a failed save. The original file and
// the in-memory dirty state are intact when one is returned.
type WriteError struct {
	Kind Kind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing TMX file (%s): %v", e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a WriteError of the given kind.
func IsKind(err error, k Kind) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Kind == k
}
