package record

import "github.com/forestrie/go-chainvault/crypto"

// Metadata is the ordered set of tags carried by an event. Order is
// significant: it is preserved across serialization, since the metadata's
// byte form is itself the input to the header hash (§3 invariant 1).
type Metadata struct {
	Tags []Tag
}

// Append adds a tag, preserving insertion order.
func (m *Metadata) Append(t Tag) {
	m.Tags = append(m.Tags, t)
}

func (m Metadata) find(kind TagKind) (Tag, bool) {
	for _, t := range m.Tags {
		if t.Kind == kind {
			return t, true
		}
	}
	return Tag{}, false
}

// GetDataKey returns the entity this event mutates, if any.
func (m Metadata) GetDataKey() (PrimaryKey, bool) {
	t, ok := m.find(TagDataKey)
	return t.DataKey, ok
}

// GetParent returns the parent attachment, if any.
func (m Metadata) GetParent() (ParentRef, bool) {
	t, ok := m.find(TagParent)
	return t.Parent, ok
}

// GetTombstone returns the tombstoned key, if this event is a tombstone.
func (m Metadata) GetTombstone() (PrimaryKey, bool) {
	t, ok := m.find(TagTombstone)
	return t.Tombstone, ok
}

// GetAuthorization returns the declared access policy, if any.
func (m Metadata) GetAuthorization() (Authorization, bool) {
	t, ok := m.find(TagAuthorization)
	return t.Authorization, ok
}

// GetTypeName returns the payload's fully qualified type name, if present.
func (m Metadata) GetTypeName() (string, bool) {
	t, ok := m.find(TagTypeName)
	return t.TypeName, ok
}

// GetPublicKey returns an announced signing key, if this event announces one.
func (m Metadata) GetPublicKey() (PublicKeyAnnouncement, bool) {
	t, ok := m.find(TagPublicKey)
	return t.PublicKey, ok
}

// GetSignature returns the signature assertion, if this event carries one.
func (m Metadata) GetSignature() (Signature, bool) {
	t, ok := m.find(TagSignature)
	return t.Signature, ok
}

// GetTimestamp returns the commit timestamp, if set.
func (m Metadata) GetTimestamp() (int64, bool) {
	t, ok := m.find(TagTimestamp)
	return t.Timestamp, ok
}

// GetEncryption returns the symmetric key hash the payload is encrypted
// under, if the payload is encrypted.
func (m Metadata) GetEncryption() (crypto.Hash, bool) {
	t, ok := m.find(TagEncryption)
	return t.Encryption, ok
}
