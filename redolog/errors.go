package redolog

import "errors"

var (
	// ErrReadOnly is returned by Append when the log was opened with
	// OpenFlags.ReadOnly set.
	ErrReadOnly = errors.New("redolog: log opened read-only")
	// ErrHeaderTooShort is returned when a log file is too small to even
	// contain its own header-length prefix -- an empty or corrupt file.
	ErrHeaderTooShort = errors.New("redolog: file too short to contain a chain header")
	// ErrChainCreationFailed wraps any underlying I/O failure during open;
	// per §7 this is fatal and never retried automatically.
	ErrChainCreationFailed = errors.New("redolog: failed to open chain log")
)
