// Package wire implements the low-level Hadoop Writable wire encodings
// (VInt, VLong, Text) used inside SequenceFile headers and record payloads.
package wire

import (
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrTruncated indicates the stream ended before a declared encoding was complete
	ErrTruncated = errors.New("truncated stream")
	// ErrRange indicates a decoded value does not fit the requested width
	ErrRange = errors.New("value out of range")
)

// DecodeVarLong reads one Hadoop VLong from r.
//
// The leading byte is interpreted as a signed 8-bit value v:
//   - v >= -112: v is the value itself (single-byte encoding)
//   - v in [-120, -113]: a positive value follows in -111-v total bytes
//   - v in [-128, -121]: a negative value follows in -119-v total bytes
//
// The signed interpretation of the leading byte is load-bearing: reading it
// as an unsigned 0-255 value makes every byte take the single-byte path and
// silently mis-decodes all multi-byte encodings.
func DecodeVarLong(r io.Reader) (int64, error) {
	first, err := readByte(r)
	if err != nil {
		return 0, err
	}

	v := int8(first)
	if v >= -112 {
		return int64(v), nil
	}

	size := decodeVarIntSize(v)
	var magnitude uint64
	for i := 0; i < size-1; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		magnitude = magnitude<<8 | uint64(b)
	}

	if isNegativeVarInt(v) {
		return int64(^magnitude), nil
	}
	return int64(magnitude), nil
}

// DecodeVarInt reads one Hadoop VInt from r. The encoding is identical to
// VLong; values outside the int32 range fail with ErrRange.
func DecodeVarInt(r io.Reader) (int32, error) {
	v, err := DecodeVarLong(r)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: vint %d exceeds 32 bits", ErrRange, v)
	}
	return int32(v), nil
}

// AppendVarLong appends the Hadoop VLong encoding of v to dst.
func AppendVarLong(dst []byte, v int64) []byte {
	if v >= -112 && v <= 127 {
		return append(dst, byte(v))
	}

	tag := -112
	if v < 0 {
		v = ^v
		tag = -120
	}
	for tmp := v; tmp != 0; tmp >>= 8 {
		tag--
	}
	dst = append(dst, byte(tag))

	size := -(tag + 112)
	if tag < -120 {
		size = -(tag + 120)
	}
	for i := size; i > 0; i-- {
		dst = append(dst, byte(v>>uint((i-1)*8)))
	}
	return dst
}

// AppendVarInt appends the Hadoop VInt encoding of v to dst.
func AppendVarInt(dst []byte, v int32) []byte {
	return AppendVarLong(dst, int64(v))
}

// decodeVarIntSize returns the total byte count of the encoding whose
// leading signed byte is v. Only valid for v < -112.
func decodeVarIntSize(v int8) int {
	if v < -120 {
		return int(-119 - int(v))
	}
	return int(-111 - int(v))
}

// isNegativeVarInt reports whether leading byte v declares a negative value.
func isNegativeVarInt(v int8) bool {
	return v < -120 || (v >= -112 && v < 0)
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		b, err := br.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		return b, nil
	}
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return buf[0], nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
