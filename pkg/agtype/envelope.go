package agtype

import (
	"fmt"
	"strings"
)

// Envelope selects the wire contract for a single column or parameter.
//
// AGE's text protocol carries the literal as-is (EnvelopeText). The binary
// protocol of AGE 1.x prefixes the same UTF-8 text with a one-byte format
// version (EnvelopeVersioned). Nothing else is framed: length and type are
// supplied by the surrounding transport.
type Envelope uint8

const (
	// EnvelopeText is the bare UTF-8 literal. This is the default.
	EnvelopeText Envelope = iota
	// EnvelopeVersioned prefixes the literal with EnvelopeVersion.
	EnvelopeVersioned
)

// EnvelopeVersion is the only version byte a versioned payload may carry.
const EnvelopeVersion byte = 1

// ParseEnvelope maps a configuration string ("text" or "versioned") to an
// Envelope.
func ParseEnvelope(s string) (Envelope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return EnvelopeText, nil
	case "versioned", "binary":
		return EnvelopeVersioned, nil
	}
	return EnvelopeText, fmt.Errorf("unknown agtype envelope %q (want text or versioned)", s)
}

func (e Envelope) String() string {
	if e == EnvelopeVersioned {
		return "versioned"
	}
	return "text"
}

// Decode unwraps and parses one payload.
func (e Envelope) Decode(payload []byte) (Value, error) {
	if e == EnvelopeVersioned {
		if len(payload) == 0 {
			return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedEnvelope)
		}
		if payload[0] != EnvelopeVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedEnvelope, payload[0])
		}
		payload = payload[1:]
	}
	return Decode(payload)
}

// Encode renders v and wraps it for the wire.
func (e Envelope) Encode(v Value) []byte {
	if e == EnvelopeVersioned {
		out := make([]byte, 1, 1+EncodedSize(v))
		out[0] = EnvelopeVersion
		return AppendValue(out, v)
	}
	return Encode(v)
}

// EncodedSize is the exact length of e.Encode(v).
func (e Envelope) EncodedSize(v Value) int {
	if e == EnvelopeVersioned {
		return 1 + EncodedSize(v)
	}
	return EncodedSize(v)
}
