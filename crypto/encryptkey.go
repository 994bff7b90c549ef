package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the strength tier shared by symmetric and signing keys.
type KeySize int

const (
	Bit128 KeySize = iota
	Bit192
	Bit256
)

// IVBytes is the width of the random initialization vector generated for
// every encryption; chacha20poly1305's nonce is conventionally 12 bytes but
// the chain's wire format commits to a 128-bit IV, so the low 12 bytes are
// used as the AEAD nonce and the full 16 bytes are carried in the event for
// Hash.FromBytesTwice.
const IVBytes = 16

// encryptKeyInfo is the HKDF context label binding a derived subkey to its
// use as a chacha20poly1305 AEAD key, so the same EncryptKey bytes could
// later feed a second, differently-labeled derivation without collision.
var encryptKeyInfo = []byte("go-chainvault encrypt-key chacha20poly1305 v1")

// EncryptKey is a symmetric key used to keep event payloads confidential.
// Its chacha20poly1305 AEAD also authenticates the ciphertext, so Decrypt
// fails on tampered bytes or the wrong key; who wrote the payload is
// established separately by PrivateSignKey signatures.
type EncryptKey struct {
	size  KeySize
	bytes []byte
}

// GenerateEncryptKey creates a fresh random key of the requested width.
func GenerateEncryptKey(size KeySize) (EncryptKey, error) {
	n, err := aesKeyLen(size)
	if err != nil {
		return EncryptKey{}, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return EncryptKey{}, err
	}
	return EncryptKey{size: size, bytes: b}, nil
}

// DeriveEncryptKey builds a key from a password using a memory-hard KDF; see
// DeriveEncryptKeyArgon2 in kdf.go for the concrete algorithm and parameters.
func DeriveEncryptKey(password []byte, salt []byte, size KeySize, cost KDFCost) (EncryptKey, error) {
	return DeriveEncryptKeyArgon2(password, salt, size, cost)
}

func aesKeyLen(size KeySize) (int, error) {
	switch size {
	case Bit128:
		return 16, nil
	case Bit192:
		return 24, nil
	case Bit256:
		return 32, nil
	default:
		return 0, ErrKeySizeUnsupported
	}
}

// Size reports the key's strength tier.
func (k EncryptKey) Size() KeySize { return k.size }

// Value returns the raw key bytes. Callers must not mutate the result.
func (k EncryptKey) Value() []byte { return k.bytes }

// Hash identifies the key by content hash, used to tag Encryption metadata
// and to look keys up in a session's keyring.
func (k EncryptKey) Hash() Hash { return FromBytes(k.bytes) }

// aead derives a chacha20poly1305 key of the algorithm's required width via
// HKDF-SHA256, regardless of the EncryptKey's own KeySize tier -- Bit128 and
// Bit192 keys carry less entropy than a raw chacha20poly1305 key needs, so
// the subkey is expanded rather than truncated or zero-padded.
func (k EncryptKey) aead() (cipher.AEAD, error) {
	subkey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, k.bytes, nil, encryptKeyInfo), subkey); err != nil {
		return nil, err
	}
	return chacha20poly1305.New(subkey)
}

// Encrypt seals data under a freshly generated random IV, returning the IV
// and ciphertext (AEAD tag included) separately, matching the chain's
// on-disk convention of an Encryption(key_hash) tag plus inline ciphertext.
func (k EncryptKey) Encrypt(data []byte) (iv []byte, ciphertext []byte, err error) {
	iv = make([]byte, IVBytes)
	if _, err = io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, err
	}
	aead, err := k.aead()
	if err != nil {
		return nil, nil, err
	}
	nonce := iv[:aead.NonceSize()]
	ciphertext = aead.Seal(nil, nonce, data, nil)
	return iv, ciphertext, nil
}

// Decrypt reverses Encrypt given the IV that was stored alongside the
// ciphertext.
func (k EncryptKey) Decrypt(iv []byte, ciphertext []byte) ([]byte, error) {
	aead, err := k.aead()
	if err != nil {
		return nil, err
	}
	if len(iv) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce := iv[:aead.NonceSize()]
	return aead.Open(nil, nonce, ciphertext, nil)
}
