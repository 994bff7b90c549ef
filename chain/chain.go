package chain

import (
	"sync"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/lint"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
)

// Chain is a named, ordered sequence of events plus the derived indexes
// §4.E describes: latest-per-key, parent/child, authorization, and the
// public-key and signature registries the trust pipeline consults.
//
// A Chain owns a single writer lock (writeMu); concurrent readers only ever
// take the index's own RWMutex, so loads never block behind an in-flight
// commit beyond the brief exclusive index update after the log append
// succeeds.
type Chain struct {
	key    string
	cfg    redolog.ChainConfig
	log    *redolog.RedoLog
	header redolog.ChainHeader
	idx    *Index

	writeMu   sync.Mutex
	destroyed bool

	compactor *redolog.Compactor
}

// Open opens (or creates) the chain's redo log at key, replaying every
// event through a loader that populates the index, and seeding the index's
// root trust anchors (rootHashes) with the key hashes the root write policy
// names. A root key enters the public-key registry only once its own
// PublicKey announcement is replayed or committed.
//
// On first creation, header is written as the chain's permanent
// configuration. On reopen of an existing chain, header's RootWritePolicy
// only matters as a fallback (e.g. if PeekHeader can't read the file for
// some reason); the root policy actually used to seed trust is read back
// from the file itself, so a caller that only knows a chain's key -- not
// the exact header it was created with -- can still reopen it correctly.
func Open(cfg redolog.ChainConfig, key string, header redolog.ChainHeader, readOnly bool) (*Chain, error) {
	c := &Chain{key: key, cfg: cfg, header: header, idx: newIndex()}

	// Root trust must be in place before replay starts feeding the loader,
	// since a root PublicKey event may appear anywhere in the log and
	// self-admits only by matching a rootHashes entry.
	rootPolicySource := header
	if rawHeader, err := redolog.PeekHeader(cfg.redoLogConfig(), key); err == nil && rawHeader != nil {
		if stored, err := redolog.UnmarshalChainHeader(rawHeader); err == nil {
			rootPolicySource = stored
		}
	}
	c.idx.setRootHashes(rootHashesOf(rootPolicySource.RootWritePolicy)...)

	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	rl, storedHeaderBytes, err := redolog.Open(cfg.redoLogConfig(), key, cfg.openFlags(readOnly), redolog.LoaderFunc(c.feedLoadData), headerBytes)
	if err != nil {
		return nil, err
	}
	c.log = rl

	storedHeader, err := redolog.UnmarshalChainHeader(storedHeaderBytes)
	if err != nil {
		return nil, err
	}
	c.header = storedHeader

	if cfg.CompactMode != redolog.CompactModeNever {
		c.compactor = redolog.NewCompactor(cfg.CompactMode, cfg.CompactThresholds, rl.Size())
		go c.compactor.Run(c.compact)
	}

	return c, nil
}

func (c *Chain) feedLoadData(d redolog.LoadData) error {
	c.idx.observe(d.HeaderHash, d.PayloadHash, d.Offset, d.Metadata, d.Data)
	return nil
}

// Key returns the chain's name.
func (c *Chain) Key() string { return c.key }

// Header returns the chain's fixed lifetime configuration.
func (c *Chain) Header() redolog.ChainHeader { return c.header }

// Index exposes the read-only materialized index views lint needs; DIO uses
// this to implement load/children without reaching into chain internals
// beyond this seam.
func (c *Chain) Index() *Index { return c.idx }

// Resolve returns the current live offset for pk, or ErrNotFound.
func (c *Chain) Resolve(pk record.PrimaryKey) (uint64, error) {
	off, ok := c.idx.Latest(pk)
	if !ok {
		return 0, ErrNotFound
	}
	return off, nil
}

// ReadEvent reads and decodes the event stored at offset.
func (c *Chain) ReadEvent(offset uint64) (record.Event, error) {
	raw, err := c.log.Read(offset)
	if err != nil {
		return record.Event{}, err
	}
	e, _, err := record.DecodeEvent(c.header.Format, raw)
	return e, err
}

// Commit authorizes, encrypts, timestamps and signs batch through the lint
// pipeline, appends the resulting events to the redo log contiguously, and
// updates the index -- all under the chain's single writer lock, so the
// batch is visible to readers atomically.
func (c *Chain) Commit(s session.Session, batch lint.WriteBatch) ([]record.Event, []uint64, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.destroyed {
		return nil, nil, ErrDestroyed
	}

	processed, err := lint.RunWritePipeline(s, c.idx, c.header.RootWritePolicy, c.header.Integrity, batch)
	if err != nil {
		return nil, nil, err
	}

	offsets := make([]uint64, len(processed))
	for i, e := range processed {
		encoded, err := e.Encode(c.header.Format)
		if err != nil {
			return nil, nil, err
		}
		off, err := c.log.Append(encoded)
		if err != nil {
			return nil, nil, err
		}
		offsets[i] = off
	}

	if c.compactor != nil {
		c.compactor.NotifySize(c.log.Size())
	}

	for i, e := range processed {
		headerHash, err := e.HeaderHash(c.header.Format)
		if err != nil {
			return nil, nil, err
		}
		c.idx.observe(headerHash, e.PayloadHash(), offsets[i], e.Metadata, e.Data)
	}

	return processed, offsets, nil
}

// Load reads and runs the read pipeline (verify/decrypt) over the event at
// pk's latest offset, returning plaintext payload bytes ready for the
// caller's Unmarshal.
func (c *Chain) Load(s session.Session, pk record.PrimaryKey) ([]byte, error) {
	offset, err := c.Resolve(pk)
	if err != nil {
		return nil, err
	}
	e, err := c.ReadEvent(offset)
	if err != nil {
		return nil, err
	}

	writeOpt, err := lint.ResolveWriteOption(c.idx, nil, c.header.RootWritePolicy, pk)
	if err != nil {
		return nil, err
	}
	return lint.RunReadPipeline(s, c.idx, writeOpt, c.header.Integrity, e)
}

// Sync flushes any buffered appends. RedoLog.Append already fsyncs before
// returning, so this exists for TransactionScope.Full callers layered above
// that want an explicit durability checkpoint.
func (c *Chain) Sync() error {
	return c.log.Sync()
}

// Destroy deletes the backing log and marks the chain unusable.
func (c *Chain) Destroy() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	if c.compactor != nil {
		c.compactor.Stop()
	}
	path := c.log.Path()
	if err := c.log.Close(); err != nil {
		return err
	}
	return removeIfExists(path)
}

// Compact forces one compaction pass immediately, independent of whatever
// trigger the configured Compactor is watching for -- the manual escape
// hatch an operator reaches for outside of CompactMode's own schedule.
func (c *Chain) Compact() error {
	return c.compact()
}

// Single acquires an exclusive guard for structural operations (compact,
// destroy), blocking new commits until released.
func (c *Chain) Single() func() {
	c.writeMu.Lock()
	return c.writeMu.Unlock
}

// TrustsKey reports whether hash names a key this chain currently trusts (a
// root key trusted by construction, or one admitted via a signature from an
// already-trusted key).
func (c *Chain) TrustsKey(hash crypto.Hash) bool {
	if c.idx.IsRootKey(hash) {
		return true
	}
	_, ok := c.idx.TrustedPublicKey(hash)
	return ok
}
