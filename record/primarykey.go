// Package record defines the on-disk event format: metadata tags, the
// optional payload, and the three pluggable serialization formats a chain
// may be configured with.
package record

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/forestrie/go-chainvault/crypto"
)

// PrimaryKey is the 64-bit identity of a logical entity on a chain. Once
// assigned at store time it never changes, even across compaction.
type PrimaryKey uint64

// NewPrimaryKey allocates a fresh random identifier, the common case for
// Dio.Store.
func NewPrimaryKey() (PrimaryKey, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("record: generating primary key: %w", err)
	}
	return PrimaryKey(binary.BigEndian.Uint64(b[:])), nil
}

// PrimaryKeyFromString derives a stable identifier from a caller-chosen
// name, so that well-known entities (e.g. a chain's root group) can be
// referred to without persisting a generated key anywhere else.
func PrimaryKeyFromString(s string) PrimaryKey {
	h := crypto.FromBytes([]byte(s))
	return PrimaryKey(binary.BigEndian.Uint64(h.Bytes()[:8]))
}

// PrimaryKeyFromU64 wraps an externally-meaningful integer (e.g. a
// user-facing sequence number) as a PrimaryKey.
func PrimaryKeyFromU64(n uint64) PrimaryKey {
	return PrimaryKey(n)
}

// VecID names a stable "collection bucket" under a parent entity -- the
// grouping that DaoVec/DaoMap children are attached under.
type VecID uint64

// NewVecID allocates a fresh random bucket identifier.
func NewVecID() (VecID, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("record: generating vec id: %w", err)
	}
	return VecID(binary.BigEndian.Uint64(b[:])), nil
}

// VecIDFromString derives a stable bucket identifier from a name, so two
// independent writers attaching to "the same" collection agree on its id
// without coordinating out of band.
func VecIDFromString(s string) VecID {
	h := crypto.FromBytes([]byte("vec:" + s))
	return VecID(binary.BigEndian.Uint64(h.Bytes()[:8]))
}
