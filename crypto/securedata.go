package crypto

import "github.com/fxamacker/cbor/v2"

// PublicEncryptedSecureData wraps a value of T with a fresh symmetric key
// which is itself sealed to a single recipient's public envelope key. This
// is the single-recipient case; MultiEncryptedSecureData below generalizes
// to many recipients with role-delegation semantics.
type PublicEncryptedSecureData[T any] struct {
	RecipientHash Hash
	IV            []byte
	Ciphertext    []byte
	WrappedKey    []byte // the inner symmetric key, sealed to RecipientHash
}

// SealPublicEncryptedSecureData encrypts value for a single recipient.
func SealPublicEncryptedSecureData[T any](recipient PublicEncryptKey, value T) (PublicEncryptedSecureData[T], error) {
	plain, err := cbor.Marshal(value)
	if err != nil {
		return PublicEncryptedSecureData[T]{}, err
	}
	inner, err := GenerateEncryptKey(Bit256)
	if err != nil {
		return PublicEncryptedSecureData[T]{}, err
	}
	iv, ciphertext, err := inner.Encrypt(plain)
	if err != nil {
		return PublicEncryptedSecureData[T]{}, err
	}
	wrapped, err := sealAnonymous(recipient, inner.Value())
	if err != nil {
		return PublicEncryptedSecureData[T]{}, err
	}
	return PublicEncryptedSecureData[T]{
		RecipientHash: recipient.Hash(),
		IV:            iv,
		Ciphertext:    ciphertext,
		WrappedKey:    wrapped,
	}, nil
}

// Unwrap recovers T using the recipient's private key. It returns
// ErrEnvelopeOpenFailed if priv is not the intended recipient.
func (d PublicEncryptedSecureData[T]) Unwrap(priv PrivateEncryptKey) (T, error) {
	var zero T
	innerBytes, err := openAnonymous(priv, d.WrappedKey)
	if err != nil {
		return zero, err
	}
	inner := EncryptKey{size: Bit256, bytes: innerBytes}
	plain, err := inner.Decrypt(d.IV, d.Ciphertext)
	if err != nil {
		return zero, err
	}
	var value T
	if err := cbor.Unmarshal(plain, &value); err != nil {
		return zero, err
	}
	return value, nil
}

// MultiRecipient is one entry in a MultiEncryptedSecureData recipient list.
// Meta is an opaque caller-supplied string, conventionally the recipient's
// identity (a username, a group-member DID, etc.).
type MultiRecipient struct {
	Hash       Hash
	Meta       string
	WrappedKey []byte
}

// MultiEncryptedSecureData wraps a value of T with a single inner symmetric
// key, which is separately wrapped to every current recipient. This is the
// mechanism for role-based key delegation: adding a user to a group is
// structurally "rewrap the group's role key to that user's public key".
type MultiEncryptedSecureData[T any] struct {
	IV         []byte
	Ciphertext []byte
	Recipients []MultiRecipient
}

// SealMultiEncryptedSecureData encrypts value once and wraps the inner key
// to the given initial set of recipients.
func SealMultiEncryptedSecureData[T any](value T, recipients map[PublicEncryptKey]string) (MultiEncryptedSecureData[T], error) {
	plain, err := cbor.Marshal(value)
	if err != nil {
		return MultiEncryptedSecureData[T]{}, err
	}
	inner, err := GenerateEncryptKey(Bit256)
	if err != nil {
		return MultiEncryptedSecureData[T]{}, err
	}
	iv, ciphertext, err := inner.Encrypt(plain)
	if err != nil {
		return MultiEncryptedSecureData[T]{}, err
	}
	d := MultiEncryptedSecureData[T]{IV: iv, Ciphertext: ciphertext}
	for pub, meta := range recipients {
		wrapped, err := sealAnonymous(pub, inner.Value())
		if err != nil {
			return MultiEncryptedSecureData[T]{}, err
		}
		d.Recipients = append(d.Recipients, MultiRecipient{Hash: pub.Hash(), Meta: meta, WrappedKey: wrapped})
	}
	return d, nil
}

func (d MultiEncryptedSecureData[T]) recipient(hash Hash) (MultiRecipient, bool) {
	for _, r := range d.Recipients {
		if r.Hash == hash {
			return r, true
		}
	}
	return MultiRecipient{}, false
}

func (d MultiEncryptedSecureData[T]) unwrapInnerKey(priv PrivateEncryptKey) (EncryptKey, bool) {
	r, ok := d.recipient(priv.PublicKey().Hash())
	if !ok {
		return EncryptKey{}, false
	}
	innerBytes, err := openAnonymous(priv, r.WrappedKey)
	if err != nil {
		return EncryptKey{}, false
	}
	return EncryptKey{size: Bit256, bytes: innerBytes}, true
}

// Unwrap recovers T if priv corresponds to one of the current recipients.
// Per TESTABLE PROPERTY 7, it returns ok=false (not an error) once the
// recipient has been Removed, so callers can treat "no longer a member" as a
// normal control-flow outcome.
func (d MultiEncryptedSecureData[T]) Unwrap(priv PrivateEncryptKey) (value T, ok bool) {
	inner, found := d.unwrapInnerKey(priv)
	if !found {
		return value, false
	}
	plain, err := inner.Decrypt(d.IV, d.Ciphertext)
	if err != nil {
		return value, false
	}
	if err := cbor.Unmarshal(plain, &value); err != nil {
		return value, false
	}
	return value, true
}

// UnwrapShared recovers T when the caller already holds the inner symmetric
// key directly, bypassing the per-recipient wrap list entirely. This is the
// fallback path used when a session was handed the role key out of band.
func (d MultiEncryptedSecureData[T]) UnwrapShared(inner EncryptKey) (value T, ok bool) {
	plain, err := inner.Decrypt(d.IV, d.Ciphertext)
	if err != nil {
		return value, false
	}
	if err := cbor.Unmarshal(plain, &value); err != nil {
		return value, false
	}
	return value, true
}

// Add delegates access to a new recipient. referrerPriv must already be able
// to unwrap the secret -- this is what makes Add a capability-respecting
// re-wrap rather than an unconditional grant.
func (d *MultiEncryptedSecureData[T]) Add(recipient PublicEncryptKey, meta string, referrerPriv PrivateEncryptKey) error {
	inner, ok := d.unwrapInnerKey(referrerPriv)
	if !ok {
		return ErrReferrerCannotUnwrap
	}
	wrapped, err := sealAnonymous(recipient, inner.Value())
	if err != nil {
		return err
	}
	// Replace any existing entry for this recipient rather than duplicating it.
	for i, r := range d.Recipients {
		if r.Hash == recipient.Hash() {
			d.Recipients[i] = MultiRecipient{Hash: recipient.Hash(), Meta: meta, WrappedKey: wrapped}
			return nil
		}
	}
	d.Recipients = append(d.Recipients, MultiRecipient{Hash: recipient.Hash(), Meta: meta, WrappedKey: wrapped})
	return nil
}

// Remove revokes a recipient's delegated access. Existing copies of the
// unwrapped secret held by that recipient are of course unaffected; this
// only prevents future Unwrap calls from succeeding for that key.
func (d *MultiEncryptedSecureData[T]) Remove(recipientHash Hash) {
	out := d.Recipients[:0]
	for _, r := range d.Recipients {
		if r.Hash != recipientHash {
			out = append(out, r)
		}
	}
	d.Recipients = out
}
