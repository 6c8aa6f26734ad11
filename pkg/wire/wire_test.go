package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarLongRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, 127, -1, -112, -113, -120, -121, -128,
		300, -300, math.MaxInt32, math.MinInt32,
		math.MaxInt64, math.MinInt64,
	}

	for _, v := range values {
		buf := AppendVarLong(nil, v)
		got, err := DecodeVarLong(bytes.NewReader(buf))
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got, "value %d (encoded % x)", v, buf)
	}
}

func TestVarLongSingleByteBoundary(t *testing.T) {
	// [-112, 127] must encode in exactly one byte, everything else in more.
	for v := int64(-112); v <= 127; v++ {
		assert.Len(t, AppendVarLong(nil, v), 1, "value %d", v)
	}
	assert.Len(t, AppendVarLong(nil, 128), 2)
	assert.Len(t, AppendVarLong(nil, -113), 2)
}

func TestVarLongKnownEncodings(t *testing.T) {
	tests := []struct {
		value   int64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0xff}},
		{-112, []byte{0x90}},
		{300, []byte{0x8e, 0x01, 0x2c}},  // -114 tag, two magnitude bytes
		{-300, []byte{0x86, 0x01, 0x2b}}, // -122 tag, complement magnitude
		{-113, []byte{0x87, 0x70}},       // -121 tag
	}

	for _, tt := range tests {
		assert.Equal(t, tt.encoded, AppendVarLong(nil, tt.value), "encode %d", tt.value)
		got, err := DecodeVarLong(bytes.NewReader(tt.encoded))
		require.NoError(t, err)
		assert.Equal(t, tt.value, got, "decode % x", tt.encoded)
	}
}

func TestVarLongTruncated(t *testing.T) {
	// Tag byte declares a 3-byte encoding but only one magnitude byte follows.
	_, err := DecodeVarLong(bytes.NewReader([]byte{0x8e, 0x01}))
	require.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeVarLong(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestVarIntRange(t *testing.T) {
	buf := AppendVarLong(nil, int64(math.MaxInt32)+1)
	_, err := DecodeVarInt(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrRange)

	buf = AppendVarLong(nil, int64(math.MaxInt32))
	v, err := DecodeVarInt(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), v)
}

func TestDecodeText(t *testing.T) {
	buf := AppendText(nil, "https://example.org/page")
	s, err := DecodeText(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/page", s)

	// Zero length yields the empty string with nothing further read.
	s, err = DecodeText(bytes.NewReader([]byte{0x00}))
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestDecodeTextInvalidUTF8(t *testing.T) {
	raw := []byte{0x03, 'a', 0xff, 'b'}
	s, err := DecodeText(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a�b", s)
}

func TestDecodeTextTruncated(t *testing.T) {
	buf := AppendVarInt(nil, 10)
	buf = append(buf, 'a', 'b')
	_, err := DecodeText(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrTruncated)
}
