package redolog

import "github.com/forestrie/go-chainvault/record"

// RecoveryMode governs whether loads may return a stale view while
// replication to other holders of the chain is degraded.
type RecoveryMode int

const (
	// RecoverySync blocks loads until the local replica is fully caught up.
	RecoverySync RecoveryMode = iota
	// RecoveryAsync allows loads to return a possibly-stale view.
	RecoveryAsync
	// RecoveryReadOnlySync is RecoverySync for a chain opened read-only.
	RecoveryReadOnlySync
	// RecoveryReadOnlyAsync is RecoveryAsync for a chain opened read-only.
	RecoveryReadOnlyAsync
)

// FormatPair pairs the metadata and payload serialization formats, which may
// legitimately differ (e.g. compact CBOR metadata alongside JSON payloads
// for interop with external tooling).
type FormatPair struct {
	Meta record.Format
	Data record.Format
}

// ChainConfig collects every recognized configuration option from §6 into
// one value, covering both the redo log itself and the compactor watching
// it.
type ChainConfig struct {
	LogPath    string
	BackupPath string
	Format     FormatPair

	CompactMode       CompactMode
	CompactThresholds CompactThresholds

	Integrity    IntegrityMode
	RecoveryMode RecoveryMode
	Temporal     bool
}

// redoLogConfig projects the subset Open needs.
func (c ChainConfig) redoLogConfig() Config {
	return Config{LogPath: c.LogPath, BackupPath: c.BackupPath}
}

// openFlags projects the subset OpenFlags needs, given whether the chain is
// being opened for read-only access.
func (c ChainConfig) openFlags(readOnly bool) OpenFlags {
	return OpenFlags{
		ReadOnly:  readOnly,
		Temporal:  c.Temporal,
		Integrity: c.Integrity,
	}
}
