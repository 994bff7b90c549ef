package redolog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forestrie/go-chainvault/record"
	"github.com/stretchr/testify/require"
)

func tempLogDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "redolog-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func newTestEvent(name string, n int) record.Event {
	return record.Event{
		Metadata: record.Metadata{Tags: []record.Tag{record.TypeNameTag(name), record.TimestampTag(int64(n))}},
		Data:     []byte(name),
	}
}

func TestRedoLogAppendAndLoadRoundTrip(t *testing.T) {
	dir := tempLogDir(t)
	cfg := Config{LogPath: dir}
	header := []byte("fixed-chain-header")

	rl, storedHeader, err := Open(cfg, "chain-a", OpenFlags{}, nil, header)
	require.NoError(t, err)
	require.Equal(t, header, storedHeader)

	var offsets []uint64
	for i := 0; i < 3; i++ {
		e := newTestEvent("example.Widget", i)
		encoded, err := e.Encode(record.FormatBinary)
		require.NoError(t, err)
		off, err := rl.Append(encoded)
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	require.NoError(t, rl.Close())

	var loaded []LoadData
	rl2, storedHeader2, err := Open(cfg, "chain-a", OpenFlags{}, LoaderFunc(func(d LoadData) error {
		loaded = append(loaded, d)
		return nil
	}), nil)
	require.NoError(t, err)
	require.Equal(t, header, storedHeader2)
	require.Len(t, loaded, 3)

	for i, ld := range loaded {
		require.Equal(t, offsets[i], ld.Offset)
		typeName, ok := ld.Metadata.GetTypeName()
		require.True(t, ok)
		require.Equal(t, "example.Widget", typeName)
	}

	raw, err := rl2.Read(offsets[1])
	require.NoError(t, err)
	got, _, err := record.DecodeEvent(record.FormatBinary, raw)
	require.NoError(t, err)
	require.Equal(t, []byte("example.Widget"), got.Data)

	require.NoError(t, rl2.Close())
}

func TestRedoLogHealsTruncatedTrailingRecord(t *testing.T) {
	dir := tempLogDir(t)
	cfg := Config{LogPath: dir}
	header := []byte("h")

	rl, _, err := Open(cfg, "chain-b", OpenFlags{}, nil, header)
	require.NoError(t, err)

	e := newTestEvent("example.Widget", 1)
	encoded, err := e.Encode(record.FormatBinary)
	require.NoError(t, err)
	_, err = rl.Append(encoded)
	require.NoError(t, err)
	require.NoError(t, rl.Close())

	// Simulate a crash mid-append: truncate the last few bytes of the file.
	path := rl.Path()
	info, err := os.Stat(path)
	require.NoError(t, err)
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(info.Size()-3))
	require.NoError(t, f.Close())

	var loaded []LoadData
	rl2, _, err := Open(cfg, "chain-b", OpenFlags{}, LoaderFunc(func(d LoadData) error {
		loaded = append(loaded, d)
		return nil
	}), nil)
	require.NoError(t, err)
	require.Empty(t, loaded, "the truncated trailing record must not be surfaced to the loader")

	// The log must have healed to a valid state: a subsequent append works.
	_, err = rl2.Append(encoded)
	require.NoError(t, err)
	require.NoError(t, rl2.Close())
}

func TestRedoLogReadOnlyRejectsAppend(t *testing.T) {
	dir := tempLogDir(t)
	cfg := Config{LogPath: dir}
	rl, _, err := Open(cfg, "chain-c", OpenFlags{}, nil, []byte("h"))
	require.NoError(t, err)
	require.NoError(t, rl.Close())

	rl2, _, err := Open(cfg, "chain-c", OpenFlags{ReadOnly: true}, nil, nil)
	require.NoError(t, err)
	_, err = rl2.Append([]byte("x"))
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestRedoLogBackupMirrorReceivesAppends(t *testing.T) {
	logDir := tempLogDir(t)
	backupDir := tempLogDir(t)
	cfg := Config{LogPath: logDir, BackupPath: backupDir}

	rl, _, err := Open(cfg, "chain-d", OpenFlags{}, nil, []byte("h"))
	require.NoError(t, err)

	e := newTestEvent("example.Widget", 7)
	encoded, err := e.Encode(record.FormatBinary)
	require.NoError(t, err)
	_, err = rl.Append(encoded)
	require.NoError(t, err)
	require.NoError(t, rl.Close())

	mirrored, err := os.ReadFile(filepath.Join(backupDir, "chain-d"))
	require.NoError(t, err)
	// The mirror holds the length-prefixed header "h" followed by the append.
	want := append([]byte{1, 0, 0, 0, 'h'}, encoded...)
	require.Equal(t, want, mirrored)
}

func TestRedoLogSizeReflectsAppends(t *testing.T) {
	dir := tempLogDir(t)
	cfg := Config{LogPath: dir}
	rl, _, err := Open(cfg, "chain-e", OpenFlags{}, nil, []byte("h"))
	require.NoError(t, err)

	before := rl.Size()
	e := newTestEvent("example.Widget", 1)
	encoded, err := e.Encode(record.FormatBinary)
	require.NoError(t, err)
	_, err = rl.Append(encoded)
	require.NoError(t, err)

	require.Equal(t, before+uint64(len(encoded)), rl.Size())
	require.NoError(t, rl.Close())
}
