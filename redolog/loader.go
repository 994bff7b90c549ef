package redolog

import (
	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
)

// LoadData is delivered once per event, in log order, during Open. Loaders
// receive the parsed metadata, the raw payload bytes already decoded off the
// wire, and the event's stable offset.
type LoadData struct {
	Metadata record.Metadata
	// Data is the event's raw payload bytes. Replay has already decoded
	// them off the wire to compute PayloadHash, so handing them to the
	// loader costs nothing further; a loader that only needs to index
	// metadata (the common case) can simply ignore the field, while one
	// that must verify a Signature event's detached signature bytes
	// against the key it names needs them here rather than re-reading the
	// log (the log isn't open for random reads yet during initial replay).
	Data []byte
	// PayloadHash is Hash(data_bytes), zero for metadata-only events.
	PayloadHash crypto.Hash
	// HeaderHash is Hash(meta_bytes): the identity a Signature event
	// references for a metadata-only event (a PublicKey announcement has
	// no payload bytes to hash).
	HeaderHash crypto.Hash
	Offset     uint64
}

// Loader is a polymorphic sink fed every event during Open. Multiple loaders
// compose (a chain-index builder plus a progress reporter, say): Open takes
// one Loader, and a MultiLoader passed there fans each LoadData out to every
// one of them in order.
type Loader interface {
	FeedLoadData(LoadData) error
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(LoadData) error

// FeedLoadData implements Loader.
func (f LoaderFunc) FeedLoadData(d LoadData) error { return f(d) }

// MultiLoader fans LoadData out to every loader in order, stopping at the
// first error.
type MultiLoader []Loader

// FeedLoadData implements Loader.
func (m MultiLoader) FeedLoadData(d LoadData) error {
	for _, l := range m {
		if err := l.FeedLoadData(d); err != nil {
			return err
		}
	}
	return nil
}
