// Package dio is the transactional typed-object layer above chain: it
// translates between application structs and the raw events chain and lint
// operate on, staging a batch of stores/updates/deletes that commit
// atomically (§4.F).
package dio

import "errors"

var (
	// ErrClosed is returned by every Dio operation once the Dio has been
	// closed -- the Go analogue of the source's weak chain reference
	// failing to upgrade.
	ErrClosed = errors.New("dio: transaction is closed")
	// ErrSaveParentFirst is returned when a DaoMap or DaoVec is used before
	// Attach has recorded which entity it belongs to.
	ErrSaveParentFirst = errors.New("dio: parent must be stored before its children")
)
