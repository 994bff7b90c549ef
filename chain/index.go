package chain

import (
	"sync"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/lint"
	"github.com/forestrie/go-chainvault/record"
)

// childKey identifies one "collection bucket" under a parent entity.
type childKey struct {
	parent record.PrimaryKey
	vecID  record.VecID
}

// Index is the chain's materialized view, maintained under mu. Reads take
// a shared lock; every index mutation happens together under one exclusive
// acquire taken right after the redo-log append succeeds, matching §4.E's
// concurrency model.
type Index struct {
	mu sync.RWMutex

	latest   map[record.PrimaryKey]uint64
	children map[childKey][]record.PrimaryKey
	parents  map[record.PrimaryKey]record.PrimaryKey
	auth     map[record.PrimaryKey]record.Authorization

	pkRegistry  map[crypto.Hash]crypto.PublicSignKey
	sigRegistry map[crypto.Hash][]lint.SignatureAssertion // payload hash -> signature assertions

	// pendingPublicKeys holds PublicKey announcements not yet admitted to
	// pkRegistry, keyed by the header hash a later Signature event will
	// reference to vouch for them.
	pendingPublicKeys map[crypto.Hash]crypto.PublicSignKey

	// rootHashes are the key hashes named by the chain header's root write
	// policy -- the trust anchor a PublicKey announcement may
	// self-admit against without needing a prior signature.
	rootHashes map[crypto.Hash]bool

	// pkEventOffset is the log offset of a key's own PublicKey announcement
	// event, root or pending, kept so compaction can retain it.
	pkEventOffset map[crypto.Hash]uint64
	// promotedBy is the log offset of the Signature event that promoted a
	// key out of pendingPublicKeys into pkRegistry.
	promotedBy map[crypto.Hash]uint64
	// promotedByKey is the signer key hash that performed a given promotion,
	// letting TrustChainOffsets walk back toward a root.
	promotedByKey map[crypto.Hash]crypto.Hash
}

func newIndex() *Index {
	return &Index{
		latest:            map[record.PrimaryKey]uint64{},
		children:          map[childKey][]record.PrimaryKey{},
		parents:           map[record.PrimaryKey]record.PrimaryKey{},
		auth:              map[record.PrimaryKey]record.Authorization{},
		pkRegistry:        map[crypto.Hash]crypto.PublicSignKey{},
		sigRegistry:       map[crypto.Hash][]lint.SignatureAssertion{},
		pendingPublicKeys: map[crypto.Hash]crypto.PublicSignKey{},
		rootHashes:        map[crypto.Hash]bool{},
		pkEventOffset:     map[crypto.Hash]uint64{},
		promotedBy:        map[crypto.Hash]uint64{},
		promotedByKey:     map[crypto.Hash]crypto.Hash{},
	}
}

// setRootHashes records which key hashes are trusted without requiring a
// signature, derived from the chain header's root write policy.
func (ix *Index) setRootHashes(hashes ...crypto.Hash) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, h := range hashes {
		ix.rootHashes[h] = true
	}
}

// observe applies one replayed or newly-committed event to the index. It is
// the single place index state changes, used identically during initial
// replay and during live Append. data is the event's raw payload bytes --
// for a Signature event, the detached signature itself.
func (ix *Index) observe(headerHash, payloadHash crypto.Hash, offset uint64, md record.Metadata, data []byte) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if dataKey, ok := md.GetDataKey(); ok {
		if _, isTomb := md.GetTombstone(); isTomb {
			delete(ix.latest, dataKey)
		} else {
			ix.latest[dataKey] = offset
		}

		if parent, ok := md.GetParent(); ok {
			ix.parents[dataKey] = parent.ParentID
			key := childKey{parent: parent.ParentID, vecID: parent.VecID}
			if !containsPK(ix.children[key], dataKey) {
				ix.children[key] = append(ix.children[key], dataKey)
			}
		}

		if auth, ok := md.GetAuthorization(); ok {
			ix.auth[dataKey] = auth
		}
	}

	if pubKeyAnnouncement, ok := md.GetPublicKey(); ok {
		pub, err := crypto.PublicSignKeyFromBytes(pubKeyAnnouncement.Tier, pubKeyAnnouncement.Bytes)
		if err == nil {
			ix.pkEventOffset[pub.Hash()] = offset
			if ix.rootHashes[pub.Hash()] {
				ix.pkRegistry[pub.Hash()] = pub
			} else {
				ix.pendingPublicKeys[headerHash] = pub
			}
		}
	}

	if sig, ok := md.GetSignature(); ok {
		assertion := lint.SignatureAssertion{SignerHash: sig.PublicKeyHash, Signature: data, Hashes: sig.Hashes}
		for _, hash := range sig.Hashes {
			ix.sigRegistry[hash] = append(ix.sigRegistry[hash], assertion)
		}

		// Promotion of a pending key requires an actual cryptographic
		// verification against an already-trusted signer's real public
		// key -- a self-declared PublicKeyHash with no proof of
		// possession must never admit a new key into the registry.
		if signerKey, trusted := ix.pkRegistry[sig.PublicKeyHash]; trusted {
			digest := lint.DigestHashes(sig.Hashes)
			if signerKey.Verify(digest.Bytes(), data) {
				for _, hash := range sig.Hashes {
					if candidate, pending := ix.pendingPublicKeys[hash]; pending {
						ix.pkRegistry[candidate.Hash()] = candidate
						delete(ix.pendingPublicKeys, hash)
						ix.promotedBy[candidate.Hash()] = offset
						ix.promotedByKey[candidate.Hash()] = sig.PublicKeyHash
					}
				}
			}
		}
	}
}

func containsPK(list []record.PrimaryKey, pk record.PrimaryKey) bool {
	for _, v := range list {
		if v == pk {
			return true
		}
	}
	return false
}

// Authorization implements lint.AuthIndex.
func (ix *Index) Authorization(pk record.PrimaryKey) (record.Authorization, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	a, ok := ix.auth[pk]
	return a, ok
}

// Parent implements lint.AuthIndex.
func (ix *Index) Parent(pk record.PrimaryKey) (record.PrimaryKey, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.parents[pk]
	return p, ok
}

// Signers implements lint.SignatureIndex.
func (ix *Index) Signers(payloadHash crypto.Hash) []lint.SignatureAssertion {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	signers := ix.sigRegistry[payloadHash]
	out := make([]lint.SignatureAssertion, len(signers))
	copy(out, signers)
	return out
}

// Latest returns the offset of the most recent live (non-tombstoned) event
// for pk.
func (ix *Index) Latest(pk record.PrimaryKey) (uint64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	off, ok := ix.latest[pk]
	return off, ok
}

// Children returns the ordered, de-duplicated child primary keys under
// (parent, vecID).
func (ix *Index) Children(parent record.PrimaryKey, vecID record.VecID) []record.PrimaryKey {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	kids := ix.children[childKey{parent: parent, vecID: vecID}]
	out := make([]record.PrimaryKey, len(kids))
	copy(out, kids)
	return out
}

// TrustedPublicKey looks up a previously-admitted signing key by its own
// hash. A root key only appears here once it has actually been announced
// via a PublicKey event; use IsRootKey to test root trust independent of
// whether that announcement has happened yet.
func (ix *Index) TrustedPublicKey(hash crypto.Hash) (crypto.PublicSignKey, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	k, ok := ix.pkRegistry[hash]
	return k, ok
}

// IsRootKey reports whether hash is named by the chain header's root write
// policy -- trusted by construction, with no PublicKey announcement or
// signature required.
func (ix *Index) IsRootKey(hash crypto.Hash) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.rootHashes[hash]
}

// LiveKeys returns every primary key currently materialized (used by the
// compactor to decide what to retain).
func (ix *Index) LiveKeys() []record.PrimaryKey {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]record.PrimaryKey, 0, len(ix.latest))
	for pk := range ix.latest {
		out = append(out, pk)
	}
	return out
}

// TrustChainOffsets returns the log offsets of keyHash's own PublicKey
// announcement plus every Signature event that promoted it, walking back
// recursively through whichever signer performed each promotion until a root
// key (announced with no promoter of its own) is reached. A cycle -- which
// honest replay can never produce, since a key cannot promote itself before
// it is trusted -- is guarded against defensively rather than assumed away.
func (ix *Index) TrustChainOffsets(keyHash crypto.Hash) []uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var offsets []uint64
	visited := map[crypto.Hash]bool{}
	for {
		if visited[keyHash] {
			break
		}
		visited[keyHash] = true

		if off, ok := ix.pkEventOffset[keyHash]; ok {
			offsets = append(offsets, off)
		}
		sigOff, promoted := ix.promotedBy[keyHash]
		if !promoted {
			break
		}
		offsets = append(offsets, sigOff)

		signer, ok := ix.promotedByKey[keyHash]
		if !ok {
			break
		}
		keyHash = signer
	}
	return offsets
}
