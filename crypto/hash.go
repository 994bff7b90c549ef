// Package crypto provides the cryptographic primitives the chain-of-trust
// storage engine is built on: content hashing, symmetric envelopes,
// post-quantum signing keys and asymmetric secure-data envelopes.
package crypto

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// HashBytes is the fixed width of a Hash value. The algorithm is chosen once
// at build time, not per event, so a chain's hashes are always comparable.
const HashBytes = 16

// Hash is a 128-bit content digest used throughout the chain for integrity:
// event payload hashes, header hashes, public-key identities.
type Hash [HashBytes]byte

// ZeroHash is the all-zero sentinel, used where "no hash" needs a typed value
// rather than a pointer (e.g. an unset Encryption tag).
var ZeroHash Hash

// FromBytes hashes a single byte string.
func FromBytes(b []byte) Hash {
	full := blake3.Sum256(b)
	var h Hash
	copy(h[:], full[:HashBytes])
	return h
}

// FromBytesTwice hashes the concatenation of two byte strings without an
// intermediate allocation of the joined buffer. Used when hashing an IV
// prepended to ciphertext.
func FromBytesTwice(b1, b2 []byte) Hash {
	hasher := blake3.New(32, nil)
	_, _ = hasher.Write(b1)
	_, _ = hasher.Write(b2)
	full := hasher.Sum(nil)
	var h Hash
	copy(h[:], full[:HashBytes])
	return h
}

// HashFromBytes reconstructs a Hash from its raw 16-byte form.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashBytes {
		return h, ErrInvalidHashLength
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the raw digest bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashBytes)
	copy(out, h[:])
	return out
}

// IsZero reports whether h is the unset sentinel value.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String renders the hash as lowercase hex, for logging and error messages.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex parses a hex-encoded hash, e.g. from a config file or CLI flag.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(b)
}
