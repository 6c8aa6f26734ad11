package wire

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds a single Text field. Nutch URLs and anchors are far
// below this; anything larger is treated as a corrupt length.
const MaxTextLength = 64 * 1024 * 1024

// DecodeText reads one Hadoop Text field from r: a VInt byte length followed
// by that many bytes of UTF-8. Invalid byte sequences are replaced with
// U+FFFD rather than failing the record.
func DecodeText(r io.Reader) (string, error) {
	n, err := DecodeVarInt(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n < 0 || n > MaxTextLength {
		return "", fmt.Errorf("%w: text length %d", ErrRange, n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncated(err)
	}
	return toUTF8(buf), nil
}

// AppendText appends the Hadoop Text encoding of s to dst.
func AppendText(dst []byte, s string) []byte {
	dst = AppendVarInt(dst, int32(len(s)))
	return append(dst, s...)
}

func toUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
