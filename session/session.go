// Package session models the per-caller bundle of keys and identity used to
// authorize and decrypt events as they pass through the lint pipeline.
package session

import "github.com/forestrie/go-chainvault/crypto"

// RolePurpose names a role scope a session may be queried for, e.g. group
// membership checked when resolving a Group write option.
type RolePurpose string

// KeySet bundles every key category a role or scope can carry.
type KeySet struct {
	ReadKeys        []crypto.EncryptKey
	SignKeys        []crypto.PrivateSignKey
	PublicReadKeys  []crypto.PublicEncryptKey
	PrivateReadKeys []crypto.PrivateEncryptKey
}

// HasReadKeyForHash reports whether the set can decrypt a payload encrypted
// under the symmetric key identified by hash.
func (k KeySet) HasReadKeyForHash(hash crypto.Hash) (crypto.EncryptKey, bool) {
	for _, key := range k.ReadKeys {
		if key.Hash() == hash {
			return key, true
		}
	}
	return crypto.EncryptKey{}, false
}

// HasSignKeyForHash reports whether the set can sign/hold authority for the
// public signing key identified by hash.
func (k KeySet) HasSignKeyForHash(hash crypto.Hash) (crypto.PrivateSignKey, bool) {
	for _, key := range k.SignKeys {
		if key.PublicKey().Hash() == hash {
			return key, true
		}
	}
	return crypto.PrivateSignKey{}, false
}

// PrivateReadKeyForHash finds an asymmetric private key able to open an
// envelope sealed to the public key identified by hash.
func (k KeySet) PrivateReadKeyForHash(hash crypto.Hash) (crypto.PrivateEncryptKey, bool) {
	for _, key := range k.PrivateReadKeys {
		if key.PublicKey().Hash() == hash {
			return key, true
		}
	}
	return crypto.PrivateEncryptKey{}, false
}

// GroupRole is one role purpose a group or sudo session carries its own
// KeySet for.
type GroupRole struct {
	Purpose RolePurpose
	Keys    KeySet
}

// Session is the polymorphic capability queried by the lint pipeline: does
// the caller hold a read/write key, under what role, for what identity.
// UserSession, SudoSession and GroupSession each implement it.
type Session interface {
	// Identity is the user identity string this session was issued for.
	Identity() string
	// UID is the optional numeric identity, if the caller's identity
	// provider assigns one.
	UID() (uint32, bool)
	// Keys returns the session's own (role-less) key bundle.
	Keys() KeySet
	// Roles returns every role-scoped key bundle this session carries
	// (group memberships, sudo elevation).
	Roles() []GroupRole
}

// Role looks up a single role purpose among a session's role-scoped bundles
// (Roles); the session's own keys are not searched. The lint pipeline does
// not call it: it matches keys through AllKeys.
func Role(s Session, purpose RolePurpose) (GroupRole, bool) {
	for _, r := range s.Roles() {
		if r.Purpose == purpose {
			return r, true
		}
	}
	return GroupRole{}, false
}

// AllKeys flattens a session's own keys and every role's keys into one
// KeySet, the view the lint pipeline uses when looking for "any key that
// matches, regardless of which role it came under".
func AllKeys(s Session) KeySet {
	merged := s.Keys()
	for _, r := range s.Roles() {
		merged.ReadKeys = append(merged.ReadKeys, r.Keys.ReadKeys...)
		merged.SignKeys = append(merged.SignKeys, r.Keys.SignKeys...)
		merged.PublicReadKeys = append(merged.PublicReadKeys, r.Keys.PublicReadKeys...)
		merged.PrivateReadKeys = append(merged.PrivateReadKeys, r.Keys.PrivateReadKeys...)
	}
	return merged
}
