package record

import "github.com/forestrie/go-chainvault/crypto"

// TagKind discriminates the metadata tag carried by a Tag value. An event's
// Metadata is an ordered list of Tags; a given event carries any subset of
// kinds (DataKey and Timestamp are the only ones present on nearly every
// event in practice, but none are structurally required).
type TagKind uint8

const (
	TagDataKey TagKind = iota
	TagTypeName
	TagParent
	TagTombstone
	TagPublicKey
	TagSignature
	TagAuthorization
	TagTimestamp
	TagEncryption
)

// ParentRef names the parent entity and collection bucket a child is
// attached under. Set once at store time and immutable thereafter.
type ParentRef struct {
	ParentID PrimaryKey `cbor:"0,keyasint"`
	VecID    VecID      `cbor:"1,keyasint"`
}

// Signature asserts that the listed payload hashes were signed by the named
// key. One Signature tag is emitted per distinct signing key used within a
// commit batch, at the end of the batch (see lint package).
type Signature struct {
	PublicKeyHash crypto.Hash   `cbor:"0,keyasint"`
	Hashes        []crypto.Hash `cbor:"1,keyasint"`
}

// PublicKeyAnnouncement carries an encoded PublicSignKey plus enough
// information (the Falcon tier) to decode it.
type PublicKeyAnnouncement struct {
	Tier  crypto.SignTier `cbor:"0,keyasint"`
	Bytes []byte          `cbor:"1,keyasint"`
}

// Tag is one metadata entry. Exactly the fields relevant to Kind are
// meaningful; this mirrors a tagged union using a discriminant field, which
// keeps the CBOR/msgpack/JSON encodings simple and lets Metadata remain an
// ordinary ordered slice.
type Tag struct {
	Kind TagKind `cbor:"0,keyasint"`

	DataKey       PrimaryKey            `cbor:"1,keyasint,omitempty"`
	TypeName      string                `cbor:"2,keyasint,omitempty"`
	Parent        ParentRef             `cbor:"3,keyasint,omitempty"`
	Tombstone     PrimaryKey            `cbor:"4,keyasint,omitempty"`
	PublicKey     PublicKeyAnnouncement `cbor:"5,keyasint,omitempty"`
	Signature     Signature             `cbor:"6,keyasint,omitempty"`
	Authorization Authorization         `cbor:"7,keyasint,omitempty"`
	Timestamp     int64                 `cbor:"8,keyasint,omitempty"`
	Encryption    crypto.Hash           `cbor:"9,keyasint,omitempty"`
}

func DataKeyTag(pk PrimaryKey) Tag        { return Tag{Kind: TagDataKey, DataKey: pk} }
func TypeNameTag(name string) Tag         { return Tag{Kind: TagTypeName, TypeName: name} }
func ParentTag(parent PrimaryKey, vec VecID) Tag {
	return Tag{Kind: TagParent, Parent: ParentRef{ParentID: parent, VecID: vec}}
}
func TombstoneTag(pk PrimaryKey) Tag { return Tag{Kind: TagTombstone, Tombstone: pk} }
func PublicKeyTag(tier crypto.SignTier, encoded []byte) Tag {
	return Tag{Kind: TagPublicKey, PublicKey: PublicKeyAnnouncement{Tier: tier, Bytes: encoded}}
}
func SignatureTag(keyHash crypto.Hash, hashes []crypto.Hash) Tag {
	return Tag{Kind: TagSignature, Signature: Signature{PublicKeyHash: keyHash, Hashes: hashes}}
}
func AuthorizationTag(auth Authorization) Tag {
	return Tag{Kind: TagAuthorization, Authorization: auth}
}
func TimestampTag(nanos int64) Tag { return Tag{Kind: TagTimestamp, Timestamp: nanos} }
func EncryptionTag(keyHash crypto.Hash) Tag {
	return Tag{Kind: TagEncryption, Encryption: keyHash}
}
