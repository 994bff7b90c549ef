package dio

import (
	"fmt"
	"sync"

	"github.com/forestrie/go-chainvault/chain"
	"github.com/forestrie/go-chainvault/lint"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/session"
)

// TransactionScope controls how long Commit blocks before returning (§4.F).
type TransactionScope int

const (
	// ScopeNone makes no durability promise to the caller. Chain.Commit
	// fsyncs every append before updating the index regardless of scope, so
	// Commit returns at the same point as under ScopeLocal.
	ScopeNone TransactionScope = iota
	// ScopeLocal returns once the redo log has been fsynced on this node.
	// Chain.Commit already fsyncs every append, so this is the default and
	// adds nothing beyond ScopeNone in a single-node deployment.
	ScopeLocal
	// ScopeFull returns only after the attached ReplicationAck callback (if
	// any) has confirmed the batch reached its replication peers.
	ScopeFull
)

// ReplicationAck is invoked once per successful Commit under ScopeFull, given
// the committed events and their log offsets. A Dio with no replication
// collaborator attached treats ScopeFull identically to ScopeLocal.
type ReplicationAck func(events []record.Event, offsets []uint64) error

// stagedOp is one not-yet-committed change: either a store/update (Event
// non-zero) or nothing else -- tombstones are just events too, built the
// same way as any other staged write.
type stagedOp struct {
	pk    record.PrimaryKey
	event record.Event
}

// Dio is one transaction: a session's staged batch of typed stores, updates
// and deletes against a single chain, committed together or not at all.
type Dio struct {
	c       *chain.Chain
	session session.Session
	scope   TransactionScope
	ack     ReplicationAck

	mu     sync.Mutex
	staged []stagedOp
	closed bool
}

// New opens a transaction against c under s's identity. ack may be nil; it
// is only ever consulted when scope is ScopeFull.
func New(c *chain.Chain, s session.Session, scope TransactionScope, ack ReplicationAck) *Dio {
	return &Dio{c: c, session: s, scope: scope, ack: ack}
}

// Close discards any uncommitted staged writes and marks the Dio unusable,
// the Go stand-in for the source's weak chain reference failing to upgrade.
func (d *Dio) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.staged = nil
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// stageIndex records where in d.staged an operation landed, so its Dao
// handle can later mutate the pending event (e.g. to attach an
// Authorization) before Commit runs the batch through the lint pipeline.
func (d *Dio) stageIndex(pk record.PrimaryKey, e record.Event) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	d.staged = append(d.staged, stagedOp{pk: pk, event: e})
	return len(d.staged) - 1, nil
}

func (d *Dio) setAuthorization(stageIdx int, auth record.Authorization) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stageIdx < 0 || stageIdx >= len(d.staged) {
		return
	}
	d.staged[stageIdx].event.Metadata.Append(record.AuthorizationTag(auth))
}

// Delete stages a tombstone for pk.
func (d *Dio) Delete(pk record.PrimaryKey) error {
	e := record.Event{Metadata: record.Metadata{Tags: []record.Tag{
		record.DataKeyTag(pk),
		record.TombstoneTag(pk),
	}}}
	_, err := d.stageIndex(pk, e)
	return err
}

// Commit runs every staged event through the chain's lint pipeline and
// appends the result atomically: either every staged event lands, or none
// does. A failed Commit leaves the Dio's staged batch untouched so the
// caller may fix the offending write and retry.
func (d *Dio) Commit() ([]record.Event, []uint64, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, nil, ErrClosed
	}
	events := make([]record.Event, len(d.staged))
	for i, op := range d.staged {
		events[i] = op.event
	}
	d.mu.Unlock()

	processed, offsets, err := d.c.Commit(d.session, lint.WriteBatch{Events: events})
	if err != nil {
		return nil, nil, err
	}

	d.mu.Lock()
	d.staged = nil
	d.mu.Unlock()

	if d.scope == ScopeFull && d.ack != nil {
		if err := d.ack(processed, offsets); err != nil {
			return processed, offsets, err
		}
	}
	return processed, offsets, nil
}

// Pending reports how many writes are staged but not yet committed.
func (d *Dio) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.staged)
}
