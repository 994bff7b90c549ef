package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/forestrie/go-chainvault/crypto"
)

// ErrTruncatedRecord is returned by ReadEvent when fewer bytes are available
// than the record's own length prefixes promise -- the signal used to detect
// and heal a partially-written tail record on log reopen.
var ErrTruncatedRecord = errors.New("record: truncated event record")

// Event is the atomic unit of the log: metadata plus an optional opaque
// payload. Invariant 2: an event with a DataKey either carries payload bytes
// or is a tombstone for that key, never both.
type Event struct {
	Metadata Metadata
	Data     []byte // nil for tombstones and public-key events; a Signature event's detached signature bytes
}

// Validate enforces invariant 2.
func (e Event) Validate() error {
	_, isTombstone := e.Metadata.GetTombstone()
	if isTombstone && len(e.Data) > 0 {
		return fmt.Errorf("record: tombstone event must not carry payload bytes")
	}
	return nil
}

// Encode serializes an event to its on-disk record shape:
//
//	[u32 meta_len][meta_bytes][u32 data_len][data_bytes?]
//
// All integers little-endian (§6).
func (e Event) Encode(format Format) ([]byte, error) {
	metaBytes, err := Marshal(format, e.Metadata.Tags)
	if err != nil {
		return nil, fmt.Errorf("record: encoding metadata: %w", err)
	}

	buf := make([]byte, 0, 8+len(metaBytes)+len(e.Data))
	var lenBuf [4]byte

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(metaBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, metaBytes...)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, e.Data...)

	return buf, nil
}

// PayloadHash is Hash(data_bytes); zero-valued (not hashed) when Data is empty.
func (e Event) PayloadHash() crypto.Hash {
	if len(e.Data) == 0 {
		return crypto.ZeroHash
	}
	return crypto.FromBytes(e.Data)
}

// HeaderHash is Hash(meta_bytes) under the given format.
func (e Event) HeaderHash(format Format) (crypto.Hash, error) {
	metaBytes, err := Marshal(format, e.Metadata.Tags)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.FromBytes(metaBytes), nil
}

// DecodeEvent parses one record from a byte slice starting at offset 0 of
// buf, returning the event and the number of bytes consumed. It returns
// ErrTruncatedRecord if buf does not contain a complete record, which the
// redo log uses to detect and truncate a crashed partial write.
func DecodeEvent(format Format, buf []byte) (Event, int, error) {
	if len(buf) < 4 {
		return Event{}, 0, ErrTruncatedRecord
	}
	metaLen := int(binary.LittleEndian.Uint32(buf[0:4]))
	pos := 4
	if len(buf) < pos+metaLen+4 {
		return Event{}, 0, ErrTruncatedRecord
	}
	metaBytes := buf[pos : pos+metaLen]
	pos += metaLen

	dataLen := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	if len(buf) < pos+dataLen {
		return Event{}, 0, ErrTruncatedRecord
	}

	var tags []Tag
	if err := Unmarshal(format, metaBytes, &tags); err != nil {
		return Event{}, 0, fmt.Errorf("record: decoding metadata: %w", err)
	}

	var data []byte
	if dataLen > 0 {
		data = append([]byte(nil), buf[pos:pos+dataLen]...)
		pos += dataLen
	}

	return Event{Metadata: Metadata{Tags: tags}, Data: data}, pos, nil
}

// ReadEvent decodes one record from r, an alternative entry point used by
// readers that stream the log rather than mmap/slurp it whole.
func ReadEvent(format Format, r io.Reader) (Event, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Event{}, ErrTruncatedRecord
		}
		return Event{}, err
	}
	metaLen := binary.LittleEndian.Uint32(lenBuf[:])
	metaBytes := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return Event{}, ErrTruncatedRecord
	}

	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Event{}, ErrTruncatedRecord
	}
	dataLen := binary.LittleEndian.Uint32(lenBuf[:])
	var data []byte
	if dataLen > 0 {
		data = make([]byte, dataLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return Event{}, ErrTruncatedRecord
		}
	}

	var tags []Tag
	if err := Unmarshal(format, metaBytes, &tags); err != nil {
		return Event{}, fmt.Errorf("record: decoding metadata: %w", err)
	}
	return Event{Metadata: Metadata{Tags: tags}, Data: data}, nil
}
