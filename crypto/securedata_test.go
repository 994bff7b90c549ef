package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type roleSecret struct {
	Name string
	Bits []byte
}

func TestPublicEncryptedSecureDataRoundTrip(t *testing.T) {
	recipient, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)
	other, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)

	secret := roleSecret{Name: "role-key", Bits: []byte{1, 2, 3, 4}}
	sealed, err := SealPublicEncryptedSecureData(recipient.PublicKey(), secret)
	require.NoError(t, err)

	got, err := sealed.Unwrap(recipient)
	require.NoError(t, err)
	require.Equal(t, secret, got)

	_, err = sealed.Unwrap(other)
	require.Error(t, err)
}

// TestMultiEncryptedSecureDataDelegation exercises TESTABLE PROPERTY 7 / S6:
// an owner shares a role secret to a new user via Add, then revokes it via
// Remove, while the owner's own access is unaffected throughout.
func TestMultiEncryptedSecureDataDelegation(t *testing.T) {
	owner, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)
	user, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)
	stranger, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)

	roleKey := roleSecret{Name: "role", Bits: []byte("top-secret-role-material")}
	data, err := SealMultiEncryptedSecureData(roleKey, map[PublicEncryptKey]string{
		owner.PublicKey(): "owner",
	})
	require.NoError(t, err)

	// Stranger has never been a recipient.
	_, ok := data.Unwrap(stranger)
	require.False(t, ok)

	// Owner adds user, delegating via a referrer key that can already unwrap.
	err = data.Add(user.PublicKey(), "u-meta", owner)
	require.NoError(t, err)

	got, ok := data.Unwrap(user)
	require.True(t, ok)
	require.Equal(t, roleKey, got)

	// Owner still has access.
	got, ok = data.Unwrap(owner)
	require.True(t, ok)
	require.Equal(t, roleKey, got)

	// Revoke the user.
	data.Remove(user.PublicKey().Hash())
	_, ok = data.Unwrap(user)
	require.False(t, ok)

	// Owner access survives the revocation.
	got, ok = data.Unwrap(owner)
	require.True(t, ok)
	require.Equal(t, roleKey, got)
}

func TestMultiEncryptedSecureDataAddRequiresExistingAccess(t *testing.T) {
	owner, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)
	outsider, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)
	newUser, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)

	data, err := SealMultiEncryptedSecureData(roleSecret{Name: "role"}, map[PublicEncryptKey]string{
		owner.PublicKey(): "owner",
	})
	require.NoError(t, err)

	err = data.Add(newUser.PublicKey(), "meta", outsider)
	require.ErrorIs(t, err, ErrReferrerCannotUnwrap)
}

func TestMultiEncryptedSecureDataUnwrapShared(t *testing.T) {
	owner, err := GeneratePrivateEncryptKey()
	require.NoError(t, err)

	data, err := SealMultiEncryptedSecureData(roleSecret{Name: "shared"}, map[PublicEncryptKey]string{
		owner.PublicKey(): "owner",
	})
	require.NoError(t, err)

	inner, ok := data.unwrapInnerKey(owner)
	require.True(t, ok)

	got, ok := data.UnwrapShared(inner)
	require.True(t, ok)
	require.Equal(t, "shared", got.Name)
}
