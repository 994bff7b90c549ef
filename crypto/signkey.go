package crypto

import (
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/falcon1024"
	"github.com/cloudflare/circl/sign/falcon512"
)

// SignTier identifies which Falcon parameter set a key pair uses. Bit128/192
// map onto Falcon512 and Bit256 maps onto Falcon1024, mirroring the
// KeySize -> Falcon tier mapping of the original implementation.
type SignTier int

const (
	Falcon512 SignTier = iota
	Falcon1024
)

func (t SignTier) scheme() sign.Scheme {
	switch t {
	case Falcon1024:
		return falcon1024.Scheme()
	default:
		return falcon512.Scheme()
	}
}

func tierForSize(size KeySize) (SignTier, error) {
	switch size {
	case Bit128, Bit192:
		return Falcon512, nil
	case Bit256:
		return Falcon1024, nil
	default:
		return 0, ErrSignKeyTierUnsupported
	}
}

// PrivateSignKey signs event payload hashes so that later readers can verify
// they were authored by a holder of the corresponding PublicSignKey.
type PrivateSignKey struct {
	tier SignTier
	pub  sign.PublicKey
	priv sign.PrivateKey
}

// PublicSignKey is the verification half of a PrivateSignKey. Its Hash is
// used as the key's identity everywhere in the chain (PublicKey tags,
// WriteOption.Specific, Signature.public_key_hash).
type PublicSignKey struct {
	tier SignTier
	pub  sign.PublicKey
}

// GeneratePrivateSignKey creates a fresh Falcon key pair at the tier implied
// by size.
func GeneratePrivateSignKey(size KeySize) (PrivateSignKey, error) {
	tier, err := tierForSize(size)
	if err != nil {
		return PrivateSignKey{}, err
	}
	pub, priv, err := tier.scheme().GenerateKey()
	if err != nil {
		return PrivateSignKey{}, err
	}
	return PrivateSignKey{tier: tier, pub: pub, priv: priv}, nil
}

// PublicKey derives the verification key from a private key.
func (k PrivateSignKey) PublicKey() PublicSignKey {
	return PublicSignKey{tier: k.tier, pub: k.pub}
}

func (k PublicSignKey) encoded() []byte {
	b, _ := k.pub.MarshalBinary()
	return b
}

// Hash identifies this key pair by the hash of its public half.
func (k PrivateSignKey) Hash() Hash { return FromBytes(k.PublicKey().encoded()) }

// Sign produces a detached signature over data.
func (k PrivateSignKey) Sign(data []byte) ([]byte, error) {
	return k.tier.scheme().Sign(k.priv, data, nil), nil
}

// Hash identifies a public key by the hash of its encoded bytes; this is the
// value carried in WriteOption.Specific, Group members, and Signature tags.
func (k PublicSignKey) Hash() Hash { return FromBytes(k.encoded()) }

// Bytes returns the encoded public key, e.g. for a PublicKey metadata tag.
func (k PublicSignKey) Bytes() []byte { return k.encoded() }

// PublicSignKeyFromBytes reconstructs a public key announced via a PublicKey tag.
func PublicSignKeyFromBytes(tier SignTier, b []byte) (PublicSignKey, error) {
	pub, err := tier.scheme().UnmarshalBinaryPublicKey(b)
	if err != nil {
		return PublicSignKey{}, err
	}
	return PublicSignKey{tier: tier, pub: pub}, nil
}

// Verify checks a detached signature produced by the matching PrivateSignKey.
func (k PublicSignKey) Verify(data, sig []byte) bool {
	return k.tier.scheme().Verify(k.pub, data, sig, nil)
}
