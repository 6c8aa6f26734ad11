package seqfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendRecord serializes one uncompressed record frame.
func appendRecord(buf *bytes.Buffer, key, value []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(key)+len(value)))
	buf.Write(n[:])
	binary.BigEndian.PutUint32(n[:], uint32(len(key)))
	buf.Write(n[:])
	buf.Write(key)
	buf.Write(value)
}

func appendSync(buf *bytes.Buffer, sync [SyncMarkerSize]byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], 0xffffffff)
	buf.Write(n[:])
	buf.Write(sync[:])
}

func testHeader(compressed bool, codec string) *Header {
	return &Header{
		Version:    6,
		KeyClass:   "org.apache.hadoop.io.Text",
		ValueClass: "org.apache.nutch.crawl.CrawlDatum",
		Compressed: compressed,
		Codec:      codec,
		SyncMarker: testSync,
	}
}

func TestScannerUncompressed(t *testing.T) {
	var buf bytes.Buffer
	appendRecord(&buf, []byte("k1"), []byte("v1"))
	appendSync(&buf, testSync)
	appendRecord(&buf, []byte("k2"), []byte("value-two"))

	s, err := NewScanner(&buf, testHeader(false, ""))
	require.NoError(t, err)
	defer s.Close()

	k, v, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("k1"), k)
	assert.Equal(t, []byte("v1"), v)

	k, v, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("k2"), k)
	assert.Equal(t, []byte("value-two"), v)

	_, _, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestScannerEmptyValue(t *testing.T) {
	var buf bytes.Buffer
	appendRecord(&buf, []byte("key"), nil)

	s, err := NewScanner(&buf, testHeader(false, ""))
	require.NoError(t, err)
	defer s.Close()

	k, v, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), k)
	assert.Empty(t, v)
}

func TestScannerRecordCompressed(t *testing.T) {
	var comp bytes.Buffer
	zw := zlib.NewWriter(&comp)
	_, err := zw.Write([]byte("inflated value"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var buf bytes.Buffer
	appendRecord(&buf, []byte("key"), comp.Bytes())

	s, err := NewScanner(&buf, testHeader(true, CodecDefault))
	require.NoError(t, err)
	defer s.Close()

	k, v, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), k)
	assert.Equal(t, []byte("inflated value"), v)
}

func TestScannerRejectsBlockCompression(t *testing.T) {
	hdr := testHeader(true, CodecDefault)
	hdr.BlockCompressed = true

	_, err := NewScanner(bytes.NewReader(nil), hdr)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestScannerRejectsUnknownCodec(t *testing.T) {
	_, err := NewScanner(bytes.NewReader(nil), testHeader(true, "org.apache.hadoop.io.compress.BZip2Codec"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "BZip2Codec")
}

func TestScannerSyncMismatch(t *testing.T) {
	other := testSync
	other[0] ^= 0xff

	var buf bytes.Buffer
	appendSync(&buf, other)

	s, err := NewScanner(&buf, testHeader(false, ""))
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Next()
	require.ErrorIs(t, err, ErrSyncMismatch)
}

func TestScannerTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	appendRecord(&buf, []byte("key"), []byte("value"))
	raw := buf.Bytes()

	s, err := NewScanner(bytes.NewReader(raw[:len(raw)-2]), testHeader(false, ""))
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Next()
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestScannerNegativeKeyLength(t *testing.T) {
	var buf bytes.Buffer
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], 8)
	buf.Write(n[:])
	binary.BigEndian.PutUint32(n[:], 0xfffffffe) // keyLen -2
	buf.Write(n[:])
	buf.Write(make([]byte, 8))

	s, err := NewScanner(&buf, testHeader(false, ""))
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Next()
	require.ErrorIs(t, err, ErrCorruptRecord)
}
