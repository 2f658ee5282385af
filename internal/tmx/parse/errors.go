package parse

import (
	"errors"
	"fmt"
)

// Kind classifies a parse failure.
type Kind int

const (
	// KindMalformed is unbalanced or otherwise invalid XML, or an encoding
	// declaration that cannot be decoded.
	KindMalformed Kind = iota

	// KindNotTMX is well-formed XML whose root element is not tmx.
	KindNotTMX

	// KindIO is a failure reading the input.
	KindIO

	// KindCancelled is a cooperative cancellation observed at a unit
	// boundary.
	KindCancelled
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindNotTMX:
		return "not-tmx"
	case KindIO:
		return "io"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseError is the terminal error of a failed parse. Offset is the byte
// position in the decoded source where the failure was observed, when known.
type ParseError struct {
	Kind   Kind
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindMalformed:
		if e.Offset > 0 {
			return fmt.Sprintf("malformed TMX document at byte %d: %v", e.Offset, e.Err)
		}
		return fmt.Sprintf("malformed TMX document: %v", e.Err)
	case KindNotTMX:
		return fmt.Sprintf("not a TMX document: %v", e.Err)
	case KindIO:
		return fmt.Sprintf("reading TMX input: %v", e.Err)
	case KindCancelled:
		return fmt.Sprintf("parse cancelled: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ParseError of the given kind.
func IsKind(err error, k Kind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == k
}
