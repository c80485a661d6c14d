package agtype

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedValue is matched (via errors.Is) by every decode failure.
	ErrMalformedValue = errors.New("agtype: malformed value")

	// ErrUnsupportedEnvelope is returned when a versioned payload carries an
	// unknown version byte.
	ErrUnsupportedEnvelope = errors.New("agtype: unsupported envelope version")

	// ErrInvalidPath is returned by NewPath for sequences that do not
	// alternate vertex, edge, ..., vertex.
	ErrInvalidPath = errors.New("agtype: invalid path")
)

// MalformedValueError describes where decoding failed.
type MalformedValueError struct {
	// Offset is the byte offset of the offending span in the input.
	Offset int
	// Span is the offending input text, truncated for long inputs.
	Span string
	// Reason explains what the decoder expected.
	Reason string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("agtype: malformed value at offset %d (%q): %s", e.Offset, e.Span, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedValue) succeed.
func (e *MalformedValueError) Is(target error) bool {
	return target == ErrMalformedValue
}

const maxSpan = 32

func malformed(src string, start, end int, reason string) error {
	if start > len(src) {
		start = len(src)
	}
	if end > len(src) {
		end = len(src)
	}
	if end < start {
		end = start
	}
	if end-start > maxSpan {
		end = start + maxSpan
	}
	return &MalformedValueError{Offset: start, Span: src[start:end], Reason: reason}
}
