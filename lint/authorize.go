package lint

import (
	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/session"
)

// AuthIndex is the read-only view of chain state lint needs to resolve
// authorization without importing the chain package itself (dependencies
// flow downward: chain depends on lint, not the other way round).
type AuthIndex interface {
	// Authorization returns the last-declared Authorization for pk, if any.
	Authorization(pk record.PrimaryKey) (record.Authorization, bool)
	// Parent returns pk's parent entity, if pk was stamped with a Parent tag.
	Parent(pk record.PrimaryKey) (record.PrimaryKey, bool)
}

// pendingAuth lets a commit batch see Authorization/Parent tags staged
// earlier in the same batch, before they've reached the chain's committed
// index -- the "current transaction's pending events" the spec calls out.
type pendingAuth struct {
	auth    map[record.PrimaryKey]record.Authorization
	parents map[record.PrimaryKey]record.PrimaryKey
}

func newPendingAuth() *pendingAuth {
	return &pendingAuth{auth: map[record.PrimaryKey]record.Authorization{}, parents: map[record.PrimaryKey]record.PrimaryKey{}}
}

func (p *pendingAuth) observe(e record.Event) {
	dataKey, hasKey := e.Metadata.GetDataKey()
	if !hasKey {
		return
	}
	if auth, ok := e.Metadata.GetAuthorization(); ok {
		p.auth[dataKey] = auth
	}
	if parent, ok := e.Metadata.GetParent(); ok {
		p.parents[dataKey] = parent.ParentID
	}
}

// ResolveWriteOption walks Inherit references upward -- first through this
// batch's own pending events, then through the committed index -- until a
// non-Inherit WriteOption is found, falling back to rootPolicy at the top.
// The walk is iterative and bounded by maxDepth to make the "no cycles
// permitted" invariant a hard guarantee rather than a hope.
func ResolveWriteOption(idx AuthIndex, pending *pendingAuth, rootPolicy record.WriteOption, pk record.PrimaryKey) (record.WriteOption, error) {
	const maxDepth = 10000
	cur := pk
	visited := map[record.PrimaryKey]bool{}

	for depth := 0; depth < maxDepth; depth++ {
		if visited[cur] {
			return record.WriteOption{}, newTrustError(TrustMissingParent, pk, "authorization inheritance cycle detected")
		}
		visited[cur] = true

		if pending != nil {
			if auth, ok := pending.auth[cur]; ok && auth.Write.Kind != record.WriteInherit {
				return auth.Write, nil
			}
		}
		if idx != nil {
			if auth, ok := idx.Authorization(cur); ok && auth.Write.Kind != record.WriteInherit {
				return auth.Write, nil
			}
		}

		var parent record.PrimaryKey
		var hasParent bool
		if pending != nil {
			parent, hasParent = pending.parents[cur]
		}
		if !hasParent && idx != nil {
			parent, hasParent = idx.Parent(cur)
		}
		if !hasParent {
			return rootPolicy, nil
		}
		cur = parent
	}
	return record.WriteOption{}, newTrustError(TrustMissingParent, pk, "authorization inheritance walk exceeded max depth")
}

// ResolveReadOption mirrors ResolveWriteOption for the read side.
func ResolveReadOption(idx AuthIndex, pending *pendingAuth, pk record.PrimaryKey) (record.ReadOption, bool, error) {
	const maxDepth = 10000
	cur := pk
	visited := map[record.PrimaryKey]bool{}

	for depth := 0; depth < maxDepth; depth++ {
		if visited[cur] {
			return record.ReadOption{}, false, newTrustError(TrustMissingParent, pk, "authorization inheritance cycle detected")
		}
		visited[cur] = true

		if pending != nil {
			if auth, ok := pending.auth[cur]; ok && auth.Read.Kind != record.ReadInherit {
				return auth.Read, true, nil
			}
		}
		if idx != nil {
			if auth, ok := idx.Authorization(cur); ok && auth.Read.Kind != record.ReadInherit {
				return auth.Read, true, nil
			}
		}

		var parent record.PrimaryKey
		var hasParent bool
		if pending != nil {
			parent, hasParent = pending.parents[cur]
		}
		if !hasParent && idx != nil {
			parent, hasParent = idx.Parent(cur)
		}
		if !hasParent {
			return record.ReadOption{}, false, nil
		}
		cur = parent
	}
	return record.ReadOption{}, false, newTrustError(TrustMissingParent, pk, "authorization inheritance walk exceeded max depth")
}

// checkWriterAuthorized verifies that s holds a signing key acceptable
// under opt, returning the specific key to sign with.
func checkWriterAuthorized(s session.Session, pk record.PrimaryKey, opt record.WriteOption) (crypto.PrivateSignKey, error) {
	keys := session.AllKeys(s)
	switch opt.Kind {
	case record.WriteEveryone:
		if len(keys.SignKeys) == 0 {
			return crypto.PrivateSignKey{}, newTrustError(TrustUnauthorized, pk, "no signing key available for an Everyone-write entity")
		}
		return keys.SignKeys[0], nil
	case record.WriteSpecific:
		if key, ok := keys.HasSignKeyForHash(opt.KeyHash); ok {
			return key, nil
		}
		return crypto.PrivateSignKey{}, newTrustError(TrustUnauthorized, pk, "session lacks the required write key")
	case record.WriteGroup:
		for _, h := range opt.Group {
			if key, ok := keys.HasSignKeyForHash(h); ok {
				return key, nil
			}
		}
		return crypto.PrivateSignKey{}, newTrustError(TrustUnauthorized, pk, "session lacks any write key in the authorized group")
	default:
		return crypto.PrivateSignKey{}, newTrustError(TrustUnauthorized, pk, "unresolved write option")
	}
}
