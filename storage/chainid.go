// Package storage names the on-disk key a chain's redo log is stored under,
// derived from a tenant-scoped UUID the way the teacher's massif storage
// paths name a log's blob path from its LogID (§6).
package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// ChainID is the stable identifier a chain's redo-log file is keyed by.
type ChainID uuid.UUID

// NewChainID allocates a fresh random chain identifier.
func NewChainID() (ChainID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return ChainID{}, fmt.Errorf("storage: generating chain id: %w", err)
	}
	return ChainID(id), nil
}

// ChainIDFromString parses a previously-formatted chain id.
func ChainIDFromString(s string) (ChainID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ChainID{}, fmt.Errorf("storage: parsing chain id %q: %w", s, err)
	}
	return ChainID(id), nil
}

// String renders the chain id in canonical UUID form.
func (id ChainID) String() string {
	return uuid.UUID(id).String()
}
