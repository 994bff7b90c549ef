package dio

import (
	"testing"

	"github.com/forestrie/go-chainvault/chain"
	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Count int
}

func testChain(t *testing.T) (*chain.Chain, session.Session, crypto.PrivateSignKey) {
	t.Helper()
	key, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)

	s := session.UserSession{
		IdentityName: "writer",
		OwnKeys:      session.KeySet{SignKeys: []crypto.PrivateSignKey{key}},
	}

	cfg := redolog.ChainConfig{
		LogPath:  t.TempDir(),
		Temporal: true,
	}
	header := redolog.ChainHeader{
		Format:          record.FormatBinary,
		RootWritePolicy: record.WriteSpecificKey(key.PublicKey().Hash()),
	}
	c, err := chain.Open(cfg, "widgets", header, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Destroy() })
	return c, s, key
}

func TestStoreLoadRoundTrip(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	dao, err := Store(d, widget{Name: "bolt", Count: 4})
	require.NoError(t, err)

	_, _, err = d.Commit()
	require.NoError(t, err)

	loaded, err := Load[widget](d, dao.PK)
	require.NoError(t, err)
	require.Equal(t, "bolt", loaded.Value.Name)
	require.Equal(t, 4, loaded.Value.Count)
}

func TestUpdateReplacesLatestValue(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	dao, err := Store(d, widget{Name: "bolt", Count: 1})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	_, err = Update(d, dao.PK, widget{Name: "bolt", Count: 2})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	loaded, err := Load[widget](d, dao.PK)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Value.Count)
}

func TestDeleteTombstonesEntity(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	dao, err := Store(d, widget{Name: "bolt"})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	require.NoError(t, dao.Delete())
	_, _, err = d.Commit()
	require.NoError(t, err)

	_, err = Load[widget](d, dao.PK)
	require.ErrorIs(t, err, chain.ErrNotFound)
}

func TestDaoVecPushAndIterate(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	parent, err := Store(d, widget{Name: "bin"})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	vec, err := NewDaoVec[widget]()
	require.NoError(t, err)
	vec.Attach(parent.PK)

	_, err = vec.Push(d, widget{Name: "a"})
	require.NoError(t, err)
	_, err = vec.Push(d, widget{Name: "b"})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	it := vec.Iter(d, false)
	var names []string
	for it.Next() {
		names = append(names, it.Value().Value.Name)
	}
	require.NoError(t, it.Err())
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestDaoMapInsertGetRemove(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	parent, err := Store(d, widget{Name: "catalog"})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)

	m, err := NewDaoMap[string, widget]()
	require.NoError(t, err)
	m.Attach(parent.PK)

	_, err = m.Insert(d, "bolt", widget{Name: "bolt", Count: 10})
	require.NoError(t, err)
	_, _, err = d.Commit()
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	got, ok, err := m.Get(d, "bolt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10, got.Value.Count)

	require.NoError(t, m.Remove(d, "bolt"))
	_, _, err = d.Commit()
	require.NoError(t, err)
	require.Equal(t, 0, m.Len())

	_, ok, err = m.Get(d, "bolt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDaoMapInsertRequiresAttach(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)

	m, err := NewDaoMap[string, widget]()
	require.NoError(t, err)

	_, err = m.Insert(d, "x", widget{})
	require.ErrorIs(t, err, ErrSaveParentFirst)
}

func TestCommitFailureLeavesStagedBatchIntact(t *testing.T) {
	c, _, _ := testChain(t)
	other, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
	require.NoError(t, err)

	denyingSession := session.UserSession{
		IdentityName: "writer",
		OwnKeys:      session.KeySet{SignKeys: []crypto.PrivateSignKey{other}},
	}
	dNoAuth := New(c, denyingSession, ScopeLocal, nil)

	_, err = Store(dNoAuth, widget{Name: "forbidden"})
	require.NoError(t, err)

	_, _, err = dNoAuth.Commit()
	require.Error(t, err)
	require.Equal(t, 1, dNoAuth.Pending(), "a failed commit must not clear the staged batch")
}

func TestCloseInvalidatesDio(t *testing.T) {
	c, s, _ := testChain(t)
	d := New(c, s, ScopeLocal, nil)
	d.Close()

	_, err := Store(d, widget{})
	require.ErrorIs(t, err, ErrClosed)
}
