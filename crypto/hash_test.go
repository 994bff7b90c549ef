package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesDeterministic(t *testing.T) {
	h1 := FromBytes([]byte("alpha"))
	h2 := FromBytes([]byte("alpha"))
	assert.Equal(t, h1, h2)

	h3 := FromBytes([]byte("beta"))
	assert.NotEqual(t, h1, h3)
}

func TestFromBytesTwiceMatchesConcatenation(t *testing.T) {
	iv := []byte("0123456789abcdef")
	ciphertext := []byte("some-ciphertext-bytes")

	got := FromBytesTwice(iv, ciphertext)
	want := FromBytes(append(append([]byte{}, iv...), ciphertext...))
	assert.Equal(t, want, got)
}

func TestHashRoundTripHex(t *testing.T) {
	h := FromBytes([]byte("round-trip"))
	parsed, err := HashFromHex(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestHashFromBytesRejectsBadLength(t *testing.T) {
	_, err := HashFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidHashLength)
}

func TestZeroHashIsZero(t *testing.T) {
	assert.True(t, ZeroHash.IsZero())
	assert.False(t, FromBytes([]byte("x")).IsZero())
}
