package record

import "github.com/forestrie/go-chainvault/crypto"

// ReadOptionKind enumerates the read-access policies an entity may declare.
type ReadOptionKind uint8

const (
	// ReadEveryone means the payload is stored in plaintext.
	ReadEveryone ReadOptionKind = iota
	// ReadEveryoneHint means the payload is plaintext but a symmetric key is
	// still recorded alongside it, e.g. to keep wire format uniform with
	// encrypted siblings in the same collection.
	ReadEveryoneHint
	// ReadSpecific means the payload is encrypted to a single symmetric key,
	// identified by hash.
	ReadSpecific
	// ReadInherit defers to the parent entity's Authorization.
	ReadInherit
)

// ReadOption declares who may decrypt/read an entity's payload.
type ReadOption struct {
	Kind    ReadOptionKind `cbor:"0,keyasint"`
	KeyHash crypto.Hash    `cbor:"1,keyasint"` // valid for ReadEveryoneHint, ReadSpecific
}

// Everyone returns the plaintext read policy.
func Everyone() ReadOption { return ReadOption{Kind: ReadEveryone} }

// EveryoneHint returns the plaintext-with-hint-key read policy.
func EveryoneHint(key crypto.Hash) ReadOption {
	return ReadOption{Kind: ReadEveryoneHint, KeyHash: key}
}

// ReadSpecificKey returns the encrypted-to-one-key read policy.
func ReadSpecificKey(key crypto.Hash) ReadOption {
	return ReadOption{Kind: ReadSpecific, KeyHash: key}
}

// InheritRead returns the "defer to parent" read policy.
func InheritRead() ReadOption { return ReadOption{Kind: ReadInherit} }

// WriteOptionKind enumerates the write-access policies an entity may declare.
type WriteOptionKind uint8

const (
	// WriteEveryone means any session may commit a new event for this key.
	WriteEveryone WriteOptionKind = iota
	// WriteSpecific means only a session holding the named signing key may write.
	WriteSpecific
	// WriteGroup means any one of a fixed set of signing keys may write.
	WriteGroup
	// WriteInherit defers to the parent entity's Authorization.
	WriteInherit
)

// WriteOption declares who may author new events for an entity.
type WriteOption struct {
	Kind    WriteOptionKind `cbor:"0,keyasint"`
	KeyHash crypto.Hash     `cbor:"1,keyasint"`   // valid for WriteSpecific
	Group   []crypto.Hash   `cbor:"2,keyasint,omitempty"` // valid for WriteGroup
}

// WriteAnyone returns the unrestricted write policy.
func WriteAnyone() WriteOption { return WriteOption{Kind: WriteEveryone} }

// WriteSpecificKey restricts writes to a single signing key.
func WriteSpecificKey(key crypto.Hash) WriteOption {
	return WriteOption{Kind: WriteSpecific, KeyHash: key}
}

// WriteAnyOfGroup restricts writes to any one of the given signing keys.
func WriteAnyOfGroup(keys ...crypto.Hash) WriteOption {
	return WriteOption{Kind: WriteGroup, Group: append([]crypto.Hash(nil), keys...)}
}

// InheritWrite returns the "defer to parent" write policy.
func InheritWrite() WriteOption { return WriteOption{Kind: WriteInherit} }

// Accepts reports whether a session holding the given set of public signing
// key hashes satisfies this write policy. It never resolves WriteInherit --
// callers must first resolve inheritance via the chain's parent walk.
func (w WriteOption) Accepts(heldKeys []crypto.Hash) bool {
	switch w.Kind {
	case WriteEveryone:
		return true
	case WriteSpecific:
		for _, h := range heldKeys {
			if h == w.KeyHash {
				return true
			}
		}
		return false
	case WriteGroup:
		for _, g := range w.Group {
			for _, h := range heldKeys {
				if h == g {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// Authorization is the access policy declared for an entity.
type Authorization struct {
	Read  ReadOption  `cbor:"0,keyasint"`
	Write WriteOption `cbor:"1,keyasint"`
}
