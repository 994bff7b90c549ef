package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, size := range []KeySize{Bit128, Bit256} {
		priv, err := GeneratePrivateSignKey(size)
		require.NoError(t, err)

		msg := []byte("payload hash bytes")
		sig, err := priv.Sign(msg)
		require.NoError(t, err)

		pub := priv.PublicKey()
		require.True(t, pub.Verify(msg, sig))
		require.False(t, pub.Verify([]byte("tampered"), sig))
	}
}

func TestPublicKeyHashStableAcrossEncoding(t *testing.T) {
	priv, err := GeneratePrivateSignKey(Bit128)
	require.NoError(t, err)
	pub := priv.PublicKey()

	decoded, err := PublicSignKeyFromBytes(Falcon512, pub.Bytes())
	require.NoError(t, err)
	require.Equal(t, pub.Hash(), decoded.Hash())
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv1, err := GeneratePrivateSignKey(Bit128)
	require.NoError(t, err)
	priv2, err := GeneratePrivateSignKey(Bit128)
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := priv1.Sign(msg)
	require.NoError(t, err)

	require.False(t, priv2.PublicKey().Verify(msg, sig))
}
