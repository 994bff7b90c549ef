package redolog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-chainvault/record"
)

// Config is the subset of the chain-wide configuration (§6) the redo log
// itself needs: where chain files live, and an optional mirror directory
// written after every append.
type Config struct {
	LogPath    string
	BackupPath string
}

// OpenFlags control how Open behaves on both fresh and existing logs.
type OpenFlags struct {
	ReadOnly  bool
	Truncate  bool
	Temporal  bool // delete the file on Close if set
	Integrity IntegrityMode
}

// RedoLog is the append-only file backing one chain. All appends are
// serialized by mu; reads may proceed concurrently with an in-flight append
// since they only ever touch bytes already fsynced.
type RedoLog struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	backup   *os.File // nil unless Config.BackupPath is set
	flags    OpenFlags
	size     uint64 // total file size, header included
	dataBase uint64 // byte offset where event records begin (after the header)
	log      logger.Logger
}

// Open locates or creates the file at {config.LogPath}/{key}. On first
// create it writes headerBytes (the caller's encoded ChainHeader) and
// streams nothing (there is nothing yet to replay). On open of an existing
// file it reads back the stored header and streams every event, in file
// order, through loader.
//
// A partially-written trailing record -- the signature of a crash mid
// append -- is detected and the file is healed by truncating to the last
// valid record boundary.
func Open(cfg Config, key string, flags OpenFlags, loader Loader, headerBytes []byte) (rl *RedoLog, storedHeader []byte, err error) {
	path := filepath.Join(cfg.LogPath, key)
	// key may itself carry path separators (e.g. a tenant prefix), so the
	// directory that must exist is path's parent, not just cfg.LogPath.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: creating log directory: %v", ErrChainCreationFailed, err)
	}

	openFlags := os.O_RDWR | os.O_CREATE
	if flags.ReadOnly {
		openFlags = os.O_RDONLY
	}
	if flags.Truncate {
		openFlags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, openFlags, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}

	rl = &RedoLog{
		file:  f,
		path:  path,
		flags: flags,
		log:   logger.Sugar.WithServiceName("redolog"),
	}

	if cfg.BackupPath != "" && !flags.ReadOnly {
		backupPath := filepath.Join(cfg.BackupPath, key)
		if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%w: creating backup directory: %v", ErrChainCreationFailed, err)
		}
		backup, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("%w: opening backup mirror: %v", ErrChainCreationFailed, err)
		}
		rl.backup = backup
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}

	if info.Size() == 0 {
		// Fresh log: write the caller-supplied header and nothing else.
		if err := rl.writeHeader(headerBytes); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		rl.size = uint64(4 + len(headerBytes))
		rl.dataBase = rl.size
		return rl, headerBytes, nil
	}

	storedHeader, headerLen, err := rl.readHeader()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	rl.dataBase = uint64(4 + headerLen)
	rl.size = rl.dataBase

	if err := rl.replay(loader); err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	return rl, storedHeader, nil
}

// PeekHeader reads back a previously-written chain header without replaying
// the log or holding the file open afterward. It exists so a caller that
// only knows a chain's key -- not the header it was created with -- can
// recover the stored header (e.g. to seed root trust) before deciding what
// header to pass to Open.
//
// It returns (nil, nil) if the file does not exist or is empty (nothing
// written yet), since that isn't an error for a caller about to create it.
func PeekHeader(cfg Config, key string) ([]byte, error) {
	path := filepath.Join(cfg.LogPath, key)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	rl := &RedoLog{file: f}
	header, _, err := rl.readHeader()
	if err != nil {
		return nil, err
	}
	return header, nil
}

func (rl *RedoLog) writeHeader(headerBytes []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(headerBytes)))
	if _, err := rl.file.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}
	if _, err := rl.file.Write(headerBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrChainCreationFailed, err)
	}
	if rl.backup != nil {
		_, _ = rl.backup.Write(lenBuf[:])
		_, _ = rl.backup.Write(headerBytes)
	}
	return rl.file.Sync()
}

func (rl *RedoLog) readHeader() ([]byte, int, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(rl.file, lenBuf[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrHeaderTooShort, err)
	}
	headerLen := binary.LittleEndian.Uint32(lenBuf[:])
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(rl.file, header); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrHeaderTooShort, err)
	}
	return header, int(headerLen), nil
}

// replay streams every event record from dataBase to EOF through loader. A
// clean end of file and a genuinely truncated tail record both surface as
// record.ErrTruncatedRecord; either way the correct response is the same --
// stop and truncate the file to the last complete record boundary, which is
// a no-op when that boundary is already the file's end. A log opened
// read-only is never truncated; replay just stops at that boundary.
func (rl *RedoLog) replay(loader Loader) error {
	if _, err := rl.file.Seek(int64(rl.dataBase), io.SeekStart); err != nil {
		return err
	}

	offset := rl.dataBase
	for {
		recordStart := offset
		event, err := record.ReadEvent(record.FormatBinary, rl.file)
		if errors.Is(err, record.ErrTruncatedRecord) {
			if !rl.flags.ReadOnly {
				if err := rl.file.Truncate(int64(recordStart)); err != nil {
					return fmt.Errorf("%w: truncating healed log: %v", ErrChainCreationFailed, err)
				}
			}
			offset = recordStart
			break
		}
		if err != nil {
			return fmt.Errorf("%w: replaying log: %v", ErrChainCreationFailed, err)
		}

		encoded, err := event.Encode(record.FormatBinary)
		if err != nil {
			return err
		}
		offset += uint64(len(encoded))

		if loader != nil {
			headerHash, err := event.HeaderHash(record.FormatBinary)
			if err != nil {
				return err
			}
			ld := LoadData{
				Metadata:    event.Metadata,
				Data:        event.Data,
				PayloadHash: event.PayloadHash(),
				HeaderHash:  headerHash,
				Offset:      recordStart,
			}
			if err := loader.FeedLoadData(ld); err != nil {
				return err
			}
		}
	}
	rl.size = offset
	if _, err := rl.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	return nil
}

// Append atomically writes one event record and returns its stable byte
// offset within the log -- the value the chain's indexes store as the
// event's identity.
func (rl *RedoLog) Append(eventBytes []byte) (uint64, error) {
	if rl.flags.ReadOnly {
		return 0, ErrReadOnly
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	offset := rl.size
	if _, err := rl.file.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := rl.file.Write(eventBytes); err != nil {
		return 0, err
	}
	if err := rl.file.Sync(); err != nil {
		return 0, err
	}
	rl.size = offset + uint64(len(eventBytes))

	if rl.backup != nil {
		if _, err := rl.backup.Write(eventBytes); err != nil {
			rl.log.Warnf("redolog: backup mirror write failed for %s: %v", rl.path, err)
		}
	}

	return offset, nil
}

// Read performs a random read of one complete event record at offset,
// returning its raw encoded bytes for record.DecodeEvent to parse.
func (rl *RedoLog) Read(offset uint64) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := rl.file.ReadAt(lenBuf[:], int64(offset)); err != nil {
		return nil, err
	}
	metaLen := binary.LittleEndian.Uint32(lenBuf[:])

	head := make([]byte, 4+int(metaLen)+4)
	if _, err := rl.file.ReadAt(head, int64(offset)); err != nil {
		return nil, err
	}
	dataLen := binary.LittleEndian.Uint32(head[4+metaLen : 4+metaLen+4])

	total := 4 + int(metaLen) + 4 + int(dataLen)
	buf := make([]byte, total)
	if _, err := rl.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Size returns the current total file size, used by the compactor to decide
// whether a growth-based trigger has fired.
func (rl *RedoLog) Size() uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.size
}

// Path returns the backing file's path, e.g. for the compactor's atomic
// rename-based swap.
func (rl *RedoLog) Path() string { return rl.path }

// DataBase returns the byte offset where event records begin, i.e. where the
// chain header ends.
func (rl *RedoLog) DataBase() uint64 { return rl.dataBase }

// Sync flushes any buffered state. Every Append already fsyncs before
// returning, so Sync is a no-op retained for interface symmetry with
// DIO.Commit's TransactionScope.Local contract.
func (rl *RedoLog) Sync() error { return nil }

// Close releases the backing file handle and then, if the log was opened
// with OpenFlags.Temporal, deletes the file.
func (rl *RedoLog) Close() error {
	path := rl.path
	if rl.backup != nil {
		_ = rl.backup.Close()
	}
	err := rl.file.Close()
	if rl.flags.Temporal {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return rerr
		}
	}
	return err
}
