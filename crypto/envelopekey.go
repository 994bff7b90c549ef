package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/nacl/box"
)

// PrivateEncryptKey and PublicEncryptKey form an asymmetric envelope pair
// used to wrap a per-secret symmetric key to one or more recipients (see
// PublicEncryptedSecureData and MultiEncryptedSecureData in securedata.go).
type PrivateEncryptKey struct {
	priv [32]byte
	pub  [32]byte
}

type PublicEncryptKey struct {
	pub [32]byte
}

// GeneratePrivateEncryptKey creates a fresh X25519 key pair for envelope
// encryption.
func GeneratePrivateEncryptKey() (PrivateEncryptKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return PrivateEncryptKey{}, err
	}
	return PrivateEncryptKey{priv: *priv, pub: *pub}, nil
}

// PublicKey derives the public half of the pair.
func (k PrivateEncryptKey) PublicKey() PublicEncryptKey {
	return PublicEncryptKey{pub: k.pub}
}

// Hash identifies the key pair by the hash of its public half.
func (k PrivateEncryptKey) Hash() Hash { return FromBytes(k.pub[:]) }

// Hash identifies a public encryption key, used as the recipient identity in
// MultiEncryptedSecureData entries.
func (k PublicEncryptKey) Hash() Hash { return FromBytes(k.pub[:]) }

// Bytes returns the raw public key.
func (k PublicEncryptKey) Bytes() []byte { return append([]byte(nil), k.pub[:]...) }

// PublicEncryptKeyFromBytes reconstructs a public envelope key, e.g. read
// from a stored recipient list.
func PublicEncryptKeyFromBytes(b []byte) (PublicEncryptKey, error) {
	if len(b) != 32 {
		return PublicEncryptKey{}, ErrInvalidHashLength
	}
	var k PublicEncryptKey
	copy(k.pub[:], b)
	return k, nil
}

// sealAnonymous encrypts data to the recipient's public key using an
// ephemeral sender key, so that only the holder of priv can open it (and the
// sender's identity is not recoverable from the envelope).
func sealAnonymous(recipient PublicEncryptKey, data []byte) ([]byte, error) {
	ephemeralPub, ephemeralPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	sealed := box.Seal(nil, data, &nonce, &recipient.pub, ephemeralPriv)
	// envelope = ephemeral public key || nonce || sealed box
	out := make([]byte, 0, 32+24+len(sealed))
	out = append(out, ephemeralPub[:]...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)
	return out, nil
}

func openAnonymous(priv PrivateEncryptKey, envelope []byte) ([]byte, error) {
	if len(envelope) < 32+24 {
		return nil, ErrCiphertextTooShort
	}
	var ephemeralPub [32]byte
	copy(ephemeralPub[:], envelope[:32])
	var nonce [24]byte
	copy(nonce[:], envelope[32:56])
	sealed := envelope[56:]
	opened, ok := box.Open(nil, sealed, &nonce, &ephemeralPub, &priv.priv)
	if !ok {
		return nil, ErrEnvelopeOpenFailed
	}
	return opened, nil
}
