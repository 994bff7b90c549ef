// Package chain owns the in-memory materialized index over one chain's
// redo log: latest-event-per-key, parent/child relationships, the
// authorization tree, and the public-key and signature registries the
// trust pipeline consults on every commit and load.
package chain

import "errors"

var (
	// ErrNotFound is returned by Resolve/Load when no live event exists for
	// the requested primary key (it was never written, or has since been
	// tombstoned).
	ErrNotFound = errors.New("chain: primary key not found")
	// ErrUntrustedPublicKey describes a PublicKey event that is not signed
	// by an already-trusted key and is not a chain-header root key. No
	// operation in this package returns it: Index.observe holds such an
	// announcement as pending instead of rejecting it.
	ErrUntrustedPublicKey = errors.New("chain: public key announcement not signed by a trusted key")
	// ErrDestroyed is returned by any operation on a Chain after Destroy.
	ErrDestroyed = errors.New("chain: chain has been destroyed")
	// ErrCompacting describes a commit attempted while a compaction swap
	// holds the exclusive structural lease. No operation in this package
	// returns it: such a commit waits on the writer lock until the
	// compaction finishes.
	ErrCompacting = errors.New("chain: compaction in progress, retry")
)
