package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDLengthMatchesEncodedByteCount(t *testing.T) {
	id, err := NewID(16)
	require.NoError(t, err)
	// base64.RawURLEncoding of 16 bytes is ceil(16*4/3) = 22 chars.
	assert.Len(t, id, 22)
}

func TestNewIDIsUnpredictable(t *testing.T) {
	a, err := NewID(16)
	require.NoError(t, err)
	b, err := NewID(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewIDIsURLSafe(t *testing.T) {
	id, err := NewID(32)
	require.NoError(t, err)
	for _, r := range id {
		assert.False(t, r == '+' || r == '/' || r == '=', "unexpected character %q in id %q", r, id)
	}
}
