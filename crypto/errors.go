package crypto

import "errors"

var (
	// ErrInvalidHashLength is returned when a byte slice of the wrong width is
	// used to reconstruct a Hash.
	ErrInvalidHashLength = errors.New("crypto: hash value must be exactly 16 bytes")
	// ErrKeySizeUnsupported is returned for an EncryptKey width outside {128,192,256}.
	ErrKeySizeUnsupported = errors.New("crypto: unsupported key size")
	// ErrCiphertextTooShort is returned when decrypting a buffer shorter than the IV+tag overhead.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext shorter than the minimum envelope size")
	// ErrSignKeyTierUnsupported is returned for a KeySize that has no Falcon tier mapping.
	ErrSignKeyTierUnsupported = errors.New("crypto: unsupported sign key tier")
	// ErrEnvelopeOpenFailed covers both "not a recipient" and "ciphertext tampered".
	ErrEnvelopeOpenFailed = errors.New("crypto: unable to open encrypted envelope")
	// ErrReferrerCannotUnwrap is returned by MultiEncryptedSecureData.Add when the
	// referrer private key cannot open the secret being delegated.
	ErrReferrerCannotUnwrap = errors.New("crypto: referrer key cannot unwrap the secret being shared")
)
