package lint

import (
	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
)

// SignatureAssertion is one committed Signature event's claim over
// payloadHash: the signer's key hash, the detached signature bytes, and the
// full list of payload hashes that signature covers (needed to reconstruct
// the exact digest Sign/Verify operate over).
type SignatureAssertion struct {
	SignerHash crypto.Hash
	Signature  []byte
	Hashes     []crypto.Hash
}

// SignatureIndex is the chain's payload-hash -> signature-assertion view,
// populated while replaying Signature events, queried by the read pipeline
// in Distributed mode.
type SignatureIndex interface {
	// Signers returns every signature assertion covering payloadHash.
	Signers(payloadHash crypto.Hash) []SignatureAssertion
	// TrustedPublicKey resolves a signer's key hash to its verification
	// key, if that key is currently trusted (root or promoted).
	TrustedPublicKey(hash crypto.Hash) (crypto.PublicSignKey, bool)
}

// RunReadPipeline verifies (Distributed mode only), decrypts and returns an
// event's plaintext payload bytes, ready for the caller's format-specific
// Unmarshal into a typed object.
func RunReadPipeline(s session.Session, sigs SignatureIndex, writeOpt record.WriteOption, integrity redolog.IntegrityMode, e record.Event) ([]byte, error) {
	if integrity == redolog.Distributed && len(e.Data) > 0 {
		if err := verifySignature(sigs, writeOpt, e.PayloadHash()); err != nil {
			return nil, err
		}
	}

	data := e.Data
	if encHash, ok := e.Metadata.GetEncryption(); ok {
		keys := session.AllKeys(s)
		key, ok := keys.HasReadKeyForHash(encHash)
		if !ok {
			return nil, &TransformError{Kind: TransformMissingReadKey, Hash: encHash}
		}
		if len(data) < crypto.IVBytes {
			return nil, ErrBadSignature
		}
		iv, ciphertext := data[:crypto.IVBytes], data[crypto.IVBytes:]
		plain, err := key.Decrypt(iv, ciphertext)
		if err != nil {
			return nil, err
		}
		data = plain
	}

	return data, nil
}

// verifySignature requires at least one signature assertion over
// payloadHash whose signer is acceptable under writeOpt, is currently
// trusted, and whose detached signature bytes actually verify against the
// digest of the hashes it claims to cover -- a self-declared key hash with
// no cryptographic proof of possession is not enough.
func verifySignature(sigs SignatureIndex, writeOpt record.WriteOption, payloadHash crypto.Hash) error {
	assertions := sigs.Signers(payloadHash)
	if len(assertions) == 0 {
		return ErrNoSignature
	}
	for _, a := range assertions {
		if !writeOpt.Accepts([]crypto.Hash{a.SignerHash}) {
			continue
		}
		pub, ok := sigs.TrustedPublicKey(a.SignerHash)
		if !ok {
			continue
		}
		digest := DigestHashes(a.Hashes)
		if pub.Verify(digest.Bytes(), a.Signature) {
			return nil
		}
	}
	return ErrBadSignature
}
