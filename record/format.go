package record

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the wire encoding used for metadata and payload bytes. It is
// a property of the chain, fixed for its lifetime (§4.B).
type Format int

const (
	// FormatBinary uses a deterministic CBOR encoding -- the default, and the
	// only format whose byte form is guaranteed stable enough to hash.
	FormatBinary Format = iota
	// FormatMessagePack uses MessagePack, useful for interop with
	// non-Go readers that already speak it.
	FormatMessagePack
	// FormatJSON trades compactness for human readability, e.g. during
	// development or when piping a chain through text tooling.
	FormatJSON
)

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("record: building canonical cbor encoder: %v", err))
	}
	return mode
}()

// Marshal encodes v using the chain's configured format.
func Marshal(format Format, v any) ([]byte, error) {
	switch format {
	case FormatBinary:
		return cborEncMode.Marshal(v)
	case FormatMessagePack:
		return msgpack.Marshal(v)
	case FormatJSON:
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("record: unsupported format %d", format)
	}
}

// Unmarshal decodes v using the chain's configured format.
func Unmarshal(format Format, data []byte, v any) error {
	switch format {
	case FormatBinary:
		return cbor.Unmarshal(data, v)
	case FormatMessagePack:
		return msgpack.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("record: unsupported format %d", format)
	}
}
