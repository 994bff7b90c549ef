package chain

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
)

// rootHashesOf extracts the key hash(es) a root write policy names, the
// trust anchors a PublicKey announcement may self-admit against.
func rootHashesOf(opt record.WriteOption) []crypto.Hash {
	switch opt.Kind {
	case record.WriteSpecific:
		return []crypto.Hash{opt.KeyHash}
	case record.WriteGroup:
		return append([]crypto.Hash(nil), opt.Group...)
	default:
		return nil
	}
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// compact rewrites the chain's redo log keeping only the events
// reachableOffsets selects, then swaps the rewritten file in atomically.
// Earlier versions of a key and events of tombstoned keys are not kept. It
// takes the chain's writer lock for the
// duration, so in-progress reads (which only ever touch the index and
// already-appended bytes) are unaffected but new commits queue.
func (c *Chain) compact() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}

	keep := c.reachableOffsets()
	tmpPath := c.log.Path() + ".compact"

	if err := c.writeCompactedFile(tmpPath, keep); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	oldPath := c.log.Path()
	if err := c.log.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, oldPath); err != nil {
		return err
	}

	// The rewritten file packs surviving events at new offsets, so the index
	// built against the old layout no longer points at the right bytes.
	// Rebuild it from scratch by replaying the compacted file exactly as
	// Open does for an existing chain, rather than trying to track an
	// old-offset-to-new-offset remap through writeCompactedFile.
	c.idx = newIndex()
	c.idx.setRootHashes(rootHashesOf(c.header.RootWritePolicy)...)

	rl, _, err := redolog.Open(c.cfg.redoLogConfig(), c.key, c.cfg.openFlags(false), redolog.LoaderFunc(c.feedLoadData), nil)
	if err != nil {
		return err
	}
	c.log = rl
	return nil
}

// reachableOffsets computes the set of log offsets compaction must retain:
// the latest event per live key, plus every PublicKey and Signature event
// still needed to re-derive trust for that key's authorization and its
// signer, plus every Signature event that covers a live payload -- keeping
// these regardless of IntegrityMode, since promotion and TrustsKey are a
// property of the index, not just of Distributed-mode verification.
func (c *Chain) reachableOffsets() map[uint64]bool {
	keep := map[uint64]bool{}
	livePayloads := map[crypto.Hash]bool{}
	for _, pk := range c.idx.LiveKeys() {
		off, ok := c.idx.Latest(pk)
		if !ok {
			continue
		}
		keep[off] = true

		for _, keyHash := range c.authorizedKeyHashes(pk) {
			c.keepTrustChain(keep, keyHash)
		}

		e, err := c.ReadEvent(off)
		if err != nil || len(e.Data) == 0 {
			continue
		}
		livePayloads[e.PayloadHash()] = true
		for _, assertion := range c.idx.Signers(e.PayloadHash()) {
			c.keepTrustChain(keep, assertion.SignerHash)
		}
	}

	for off := c.log.DataBase(); off < c.log.Size(); {
		raw, err := c.log.Read(off)
		if err != nil {
			break
		}
		e, _, _ := record.DecodeEvent(c.header.Format, raw)
		if sig, ok := e.Metadata.GetSignature(); ok && slices.ContainsFunc(sig.Hashes, func(h crypto.Hash) bool { return livePayloads[h] }) {
			keep[off] = true
		}
		off += uint64(len(raw))
	}
	return keep
}

// authorizedKeyHashes returns every signing-key hash pk's authorization
// names, read or write, whose trust chain compaction must preserve.
func (c *Chain) authorizedKeyHashes(pk record.PrimaryKey) []crypto.Hash {
	auth, ok := c.idx.Authorization(pk)
	if !ok {
		return nil
	}
	var hashes []crypto.Hash
	switch auth.Write.Kind {
	case record.WriteSpecific:
		hashes = append(hashes, auth.Write.KeyHash)
	case record.WriteGroup:
		hashes = append(hashes, auth.Write.Group...)
	}
	if auth.Read.Kind == record.ReadSpecific {
		hashes = append(hashes, auth.Read.KeyHash)
	}
	return hashes
}

// keepTrustChain marks every offset in keyHash's trust chain -- its own
// PublicKey announcement plus every promoting Signature event, back to a
// root -- as retained. A root key with no announcement of its own
// contributes nothing, since IsRootKey trusts it without one.
func (c *Chain) keepTrustChain(keep map[uint64]bool, keyHash crypto.Hash) {
	for _, off := range c.idx.TrustChainOffsets(keyHash) {
		keep[off] = true
	}
}

// writeCompactedFile writes a complete, valid redo-log file to tmpPath
// containing the chain header followed by every kept event, in ascending
// offset order.
func (c *Chain) writeCompactedFile(tmpPath string, keep map[uint64]bool) error {
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	headerBytes, err := c.header.MarshalBinary()
	if err != nil {
		return err
	}
	if err := writeLengthPrefixed(f, headerBytes); err != nil {
		return err
	}

	offsets := sortedOffsets(keep)
	for _, offset := range offsets {
		e, err := c.ReadEvent(offset)
		if err != nil {
			continue // best-effort: drop anything unreadable rather than fail the whole pass
		}
		encoded, err := e.Encode(c.header.Format)
		if err != nil {
			continue
		}
		if _, err := f.Write(encoded); err != nil {
			return err
		}
	}
	return f.Sync()
}
