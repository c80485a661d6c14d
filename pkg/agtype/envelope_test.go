package agtype

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		in      string
		want    Envelope
		wantErr bool
	}{
		{"", EnvelopeText, false},
		{"text", EnvelopeText, false},
		{" TEXT ", EnvelopeText, false},
		{"versioned", EnvelopeVersioned, false},
		{"binary", EnvelopeVersioned, false},
		{"v2", EnvelopeText, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEnvelope(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvelopeString(t *testing.T) {
	assert.Equal(t, "text", EnvelopeText.String())
	assert.Equal(t, "versioned", EnvelopeVersioned.String())
}

func TestTextEnvelope(t *testing.T) {
	v := Map{"n": Float(math.Inf(1))}
	payload := EnvelopeText.Encode(v)
	assert.Equal(t, `{"n": Infinity}`, string(payload))
	assert.Equal(t, len(payload), EnvelopeText.EncodedSize(v))

	got, err := EnvelopeText.Decode(payload)
	require.NoError(t, err)
	assert.True(t, Equal(v, got))
}

func TestVersionedEnvelope(t *testing.T) {
	v := List{Int(1), String("a")}
	payload := EnvelopeVersioned.Encode(v)
	require.NotEmpty(t, payload)
	assert.Equal(t, EnvelopeVersion, payload[0])
	assert.Equal(t, `[1, "a"]`, string(payload[1:]))
	assert.Equal(t, len(payload), EnvelopeVersioned.EncodedSize(v))

	got, err := EnvelopeVersioned.Decode(payload)
	require.NoError(t, err)
	assert.True(t, Equal(v, got))

	t.Run("unknown version", func(t *testing.T) {
		_, err := EnvelopeVersioned.Decode(append([]byte{2}, payload[1:]...))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedEnvelope))
		assert.False(t, errors.Is(err, ErrMalformedValue))
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := EnvelopeVersioned.Decode(nil)
		assert.True(t, errors.Is(err, ErrUnsupportedEnvelope))
	})

	t.Run("text payload read as versioned", func(t *testing.T) {
		_, err := EnvelopeVersioned.Decode([]byte(`[1]`))
		assert.True(t, errors.Is(err, ErrUnsupportedEnvelope))
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := EnvelopeVersioned.Decode([]byte{EnvelopeVersion, '['})
		assert.True(t, errors.Is(err, ErrMalformedValue))
	})
}
