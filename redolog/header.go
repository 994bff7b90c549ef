package redolog

import (
	"github.com/forestrie/go-chainvault/record"
)

// IntegrityMode selects whether the chain trusts a centralized server for
// signature verification or verifies every event itself.
type IntegrityMode int

const (
	// Centralized trusts the server that produced the log; read-path
	// signature verification is skipped locally.
	Centralized IntegrityMode = iota
	// Distributed verifies every signature locally on load (§4.D).
	Distributed
)

// ChainHeader is the fixed, chain-lifetime configuration written once at
// first creation and read back on every subsequent open (§6).
type ChainHeader struct {
	Format          record.Format     `cbor:"0,keyasint"`
	Integrity       IntegrityMode     `cbor:"1,keyasint"`
	RootWritePolicy record.WriteOption `cbor:"2,keyasint"`
}

// MarshalBinary encodes the header using the deterministic CBOR codec,
// independent of the per-event Format the header itself names (the header
// must be decodable before the format is known).
func (h ChainHeader) MarshalBinary() ([]byte, error) {
	return record.Marshal(record.FormatBinary, h)
}

// UnmarshalChainHeader decodes a header previously written by MarshalBinary.
func UnmarshalChainHeader(b []byte) (ChainHeader, error) {
	var h ChainHeader
	err := record.Unmarshal(record.FormatBinary, b, &h)
	return h, err
}
