package record

import (
	"bytes"
	"testing"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/stretchr/testify/require"
)

func TestEventEncodeDecodeRoundTrip(t *testing.T) {
	pk, err := NewPrimaryKey()
	require.NoError(t, err)

	for _, format := range []Format{FormatBinary, FormatMessagePack, FormatJSON} {
		e := Event{
			Metadata: Metadata{Tags: []Tag{
				DataKeyTag(pk),
				TypeNameTag("example.Widget"),
				TimestampTag(1234),
			}},
			Data: []byte(`{"name":"alpha"}`),
		}

		encoded, err := e.Encode(format)
		require.NoError(t, err)

		got, n, err := DecodeEvent(format, encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, e.Data, got.Data)

		gotKey, ok := got.Metadata.GetDataKey()
		require.True(t, ok)
		require.Equal(t, pk, gotKey)

		typeName, ok := got.Metadata.GetTypeName()
		require.True(t, ok)
		require.Equal(t, "example.Widget", typeName)
	}
}

func TestDecodeEventDetectsTruncation(t *testing.T) {
	e := Event{Metadata: Metadata{Tags: []Tag{TimestampTag(1)}}, Data: []byte("hello world")}
	encoded, err := e.Encode(FormatBinary)
	require.NoError(t, err)

	_, _, err = DecodeEvent(FormatBinary, encoded[:len(encoded)-3])
	require.ErrorIs(t, err, ErrTruncatedRecord)
}

func TestReadEventStreamingMatchesDecodeEvent(t *testing.T) {
	e := Event{Metadata: Metadata{Tags: []Tag{TimestampTag(99)}}, Data: []byte("stream-me")}
	encoded, err := e.Encode(FormatBinary)
	require.NoError(t, err)

	got, err := ReadEvent(FormatBinary, bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, e.Data, got.Data)
}

func TestEventValidateRejectsTombstoneWithPayload(t *testing.T) {
	pk, err := NewPrimaryKey()
	require.NoError(t, err)
	e := Event{
		Metadata: Metadata{Tags: []Tag{TombstoneTag(pk)}},
		Data:     []byte("should not be here"),
	}
	require.Error(t, e.Validate())
}

func TestPayloadHashEmptyForNoData(t *testing.T) {
	e := Event{Metadata: Metadata{Tags: []Tag{TimestampTag(1)}}}
	require.Equal(t, crypto.ZeroHash, e.PayloadHash())

	e.Data = []byte("x")
	require.NotEqual(t, crypto.ZeroHash, e.PayloadHash())
}
