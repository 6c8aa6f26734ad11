package seqfile

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MetadataEntry is one key/value pair from the header metadata block.
// Entries keep their on-disk order; duplicate keys are preserved.
type MetadataEntry struct {
	Key   string
	Value string
}

// Header holds the parsed fixed-layout header of one SequenceFile shard.
type Header struct {
	Version         byte
	KeyClass        string
	ValueClass      string
	Compressed      bool
	BlockCompressed bool
	// Codec is the Java codec class name, present only when Compressed.
	Codec      string
	Metadata   []MetadataEntry
	SyncMarker [SyncMarkerSize]byte
	// HeaderEnd is the byte offset of the first record frame.
	HeaderEnd int64
}

// MetadataValue returns the last metadata value recorded for key.
func (h *Header) MetadataValue(key string) (string, bool) {
	for i := len(h.Metadata) - 1; i >= 0; i-- {
		if h.Metadata[i].Key == key {
			return h.Metadata[i].Value, true
		}
	}
	return "", false
}

// ParseHeader reads the SequenceFile header from the start of r. Any short
// read or bad magic yields ErrMalformedHeader; no record bytes are consumed
// past the sync marker.
func ParseHeader(r io.Reader) (*Header, error) {
	cr := &countingReader{r: r}
	h := &Header{}

	var magic [4]byte
	if _, err := io.ReadFull(cr, magic[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading magic")
	}
	if string(magic[:3]) != MagicTag {
		return nil, errors.Wrapf(ErrMalformedHeader, "bad magic % x", magic[:3])
	}
	h.Version = magic[3]

	var err error
	if h.KeyClass, err = readByteString(cr); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading key class")
	}
	if h.ValueClass, err = readByteString(cr); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading value class")
	}

	flags := make([]byte, 2)
	if _, err := io.ReadFull(cr, flags); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading compression flags")
	}
	h.Compressed = flags[0] != 0
	h.BlockCompressed = flags[1] != 0

	if h.Compressed {
		if h.Codec, err = readByteString(cr); err != nil {
			return nil, errors.Wrap(ErrMalformedHeader, "reading codec name")
		}
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(cr, countBuf[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading metadata count")
	}
	count := binary.BigEndian.Uint32(countBuf[:])
	if count > maxMetadataEntries {
		return nil, errors.Wrapf(ErrMalformedHeader, "metadata count %d", count)
	}
	for i := uint32(0); i < count; i++ {
		key, err := readByteString(cr)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "reading metadata key %d", i)
		}
		value, err := readByteString(cr)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedHeader, "reading metadata value %d", i)
		}
		h.Metadata = append(h.Metadata, MetadataEntry{Key: key, Value: value})
	}

	if _, err := io.ReadFull(cr, h.SyncMarker[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading sync marker")
	}

	h.HeaderEnd = cr.n
	return h, nil
}

// readByteString reads a 1-byte-length-prefixed UTF-8 string.
func readByteString(r io.Reader) (string, error) {
	var lenBuf [1]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	if lenBuf[0] == 0 {
		return "", nil
	}
	buf := make([]byte, lenBuf[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
