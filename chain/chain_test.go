package chain

import (
	"testing"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/lint"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, keys ...crypto.PrivateSignKey) session.Session {
	t.Helper()
	return session.UserSession{IdentityName: "writer", OwnKeys: session.KeySet{SignKeys: keys}}
}

func openTestChain(t *testing.T, rootKey crypto.PrivateSignKey) (*Chain, string, redolog.ChainConfig) {
	t.Helper()
	cfg := redolog.ChainConfig{LogPath: t.TempDir()}
	header := redolog.ChainHeader{
		Format:          record.FormatBinary,
		RootWritePolicy: record.WriteSpecificKey(rootKey.PublicKey().Hash()),
	}
	c, err := Open(cfg, "ledger", header, false)
	require.NoError(t, err)
	return c, "ledger", cfg
}

func TestChainCommitAndLoadRoundTrip(t *testing.T) {
	key, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, key)
	defer c.Destroy()

	s := newTestSession(t, key)
	pk, err := record.NewPrimaryKey()
	require.NoError(t, err)

	batch := lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pk)}},
		Data:     []byte("payload one"),
	}}}

	_, offsets, err := c.Commit(s, batch)
	require.NoError(t, err)
	require.Len(t, offsets, 2, "one data event plus one trailing signature event")

	out, err := c.Load(s, pk)
	require.NoError(t, err)
	require.Equal(t, []byte("payload one"), out)
}

func TestChainReopenReplaysExistingEvents(t *testing.T) {
	key, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, name, cfg := openTestChain(t, key)

	s := newTestSession(t, key)
	pk, err := record.NewPrimaryKey()
	require.NoError(t, err)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pk)}},
		Data:     []byte("durable"),
	}}})
	require.NoError(t, err)
	require.NoError(t, c.Sync())

	reopened, err := Open(cfg, name, redolog.ChainHeader{}, false)
	require.NoError(t, err)
	defer reopened.Destroy()

	out, err := reopened.Load(s, pk)
	require.NoError(t, err)
	require.Equal(t, []byte("durable"), out)
}

func TestChainRootKeySelfAdmitsAndGatesSubsequentKeys(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, rootKey)
	defer c.Destroy()

	require.True(t, c.TrustsKey(rootKey.Hash()), "root key must self-admit without any prior signature")

	other, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	require.False(t, c.TrustsKey(other.Hash()))
}

func TestChainUnsignedPublicKeyAnnouncementDoesNotSelfAdmit(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, rootKey)
	defer c.Destroy()

	delegate, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)

	s := newTestSession(t, rootKey)
	announce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, delegate.PublicKey().Bytes()),
	}}}
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{announce}})
	require.NoError(t, err)

	require.False(t, c.TrustsKey(delegate.Hash()), "an unsigned, non-root key announcement must not self-admit")
}

// signHeaderHashes builds a Signature event the way lint's write pipeline
// would for a batch of data events, but over arbitrary header hashes --
// letting a test vouch for a pending PublicKey announcement, which the
// automatic per-commit signer never does since that only covers payload
// hashes of DataKey-tagged events.
func signHeaderHashes(t *testing.T, signer crypto.PrivateSignKey, hashes ...crypto.Hash) record.Event {
	t.Helper()
	digest := lint.DigestHashes(hashes)
	sigBytes, err := signer.Sign(digest.Bytes())
	require.NoError(t, err)
	return record.Event{
		Metadata: record.Metadata{Tags: []record.Tag{record.SignatureTag(signer.PublicKey().Hash(), hashes)}},
		Data:     sigBytes,
	}
}

func TestChainPendingPublicKeyPromotedBySignatureFromTrustedSigner(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, rootKey)
	defer c.Destroy()

	s := newTestSession(t, rootKey)

	// Root must actually announce its own key before it can vouch for
	// anyone else -- TrustsKey alone (construction-time root trust) isn't
	// enough to verify a signature, since verification needs the real
	// public key bytes, not just a trusted hash.
	rootAnnounce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, rootKey.PublicKey().Bytes()),
	}}}
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{rootAnnounce}})
	require.NoError(t, err)

	delegate, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	delegateAnnounce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, delegate.PublicKey().Bytes()),
	}}}
	processed, _, err := c.Commit(s, lint.WriteBatch{Events: []record.Event{delegateAnnounce}})
	require.NoError(t, err)
	delegateHeaderHash, err := processed[0].HeaderHash(c.Header().Format)
	require.NoError(t, err)

	require.False(t, c.TrustsKey(delegate.Hash()), "still pending before root vouches for it")

	sigEvent := signHeaderHashes(t, rootKey, delegateHeaderHash)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{sigEvent}})
	require.NoError(t, err)

	require.True(t, c.TrustsKey(delegate.Hash()), "a signature from an already-trusted signer must promote the pending key")
}

func TestChainForgedSignatureDoesNotPromotePendingKey(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, rootKey)
	defer c.Destroy()

	s := newTestSession(t, rootKey)
	rootAnnounce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, rootKey.PublicKey().Bytes()),
	}}}
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{rootAnnounce}})
	require.NoError(t, err)

	delegate, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	delegateAnnounce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, delegate.PublicKey().Bytes()),
	}}}
	processed, _, err := c.Commit(s, lint.WriteBatch{Events: []record.Event{delegateAnnounce}})
	require.NoError(t, err)
	delegateHeaderHash, err := processed[0].HeaderHash(c.Header().Format)
	require.NoError(t, err)

	// A forged Signature event naming root's key hash but carrying garbage
	// signature bytes (no private key held) must not promote the delegate.
	forged := record.Event{
		Metadata: record.Metadata{Tags: []record.Tag{
			record.SignatureTag(rootKey.PublicKey().Hash(), []crypto.Hash{delegateHeaderHash}),
		}},
		Data: []byte("not a real signature"),
	}
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{forged}})
	require.NoError(t, err)

	require.False(t, c.TrustsKey(delegate.Hash()), "an unverifiable signature must not promote a pending key")
}

func TestChainDistributedModeVerifiesSignatureAndSurvivesCompaction(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)

	cfg := redolog.ChainConfig{LogPath: t.TempDir()}
	header := redolog.ChainHeader{
		Format:          record.FormatBinary,
		Integrity:       redolog.Distributed,
		RootWritePolicy: record.WriteSpecificKey(rootKey.PublicKey().Hash()),
	}
	c, err := Open(cfg, "ledger", header, false)
	require.NoError(t, err)
	defer c.Destroy()

	s := newTestSession(t, rootKey)
	rootAnnounce := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.PublicKeyTag(crypto.Falcon512, rootKey.PublicKey().Bytes()),
	}}}
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{rootAnnounce}})
	require.NoError(t, err)

	pk, err := record.NewPrimaryKey()
	require.NoError(t, err)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pk)}},
		Data:     []byte("distributed payload"),
	}}})
	require.NoError(t, err)

	out, err := c.Load(s, pk)
	require.NoError(t, err)
	require.Equal(t, []byte("distributed payload"), out, "a genuine signature from the announced root key must verify")

	require.NoError(t, c.Compact())

	out, err = c.Load(s, pk)
	require.NoError(t, err, "compaction must retain the root's PublicKey announcement and Signature event so Distributed verification still succeeds")
	require.Equal(t, []byte("distributed payload"), out)
}

func TestChainCompactPreservesLiveData(t *testing.T) {
	key, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, key)
	defer c.Destroy()

	s := newTestSession(t, key)
	pkA, err := record.NewPrimaryKey()
	require.NoError(t, err)
	pkB, err := record.NewPrimaryKey()
	require.NoError(t, err)

	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pkA)}},
		Data:     []byte("v1"),
	}}})
	require.NoError(t, err)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pkA)}},
		Data:     []byte("v2"),
	}}})
	require.NoError(t, err)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pkB)}},
		Data:     []byte("b"),
	}}})
	require.NoError(t, err)

	require.NoError(t, c.Compact())

	outA, err := c.Load(s, pkA)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), outA, "compaction must keep only the latest version, not stale ones")

	outB, err := c.Load(s, pkB)
	require.NoError(t, err)
	require.Equal(t, []byte("b"), outB)
}

func TestChainRejectsWriteFromUnauthorizedSession(t *testing.T) {
	rootKey, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	c, _, _ := openTestChain(t, rootKey)
	defer c.Destroy()

	intruder, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)
	s := newTestSession(t, intruder)

	pk, err := record.NewPrimaryKey()
	require.NoError(t, err)
	_, _, err = c.Commit(s, lint.WriteBatch{Events: []record.Event{{
		Metadata: record.Metadata{Tags: []record.Tag{record.DataKeyTag(pk)}},
		Data:     []byte("nope"),
	}}})
	require.Error(t, err)
}
