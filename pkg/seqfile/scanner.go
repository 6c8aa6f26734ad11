package seqfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Java codec class names the built-in engine understands.
const (
	CodecDefault = "org.apache.hadoop.io.compress.DefaultCodec"
	CodecGzip    = "org.apache.hadoop.io.compress.GzipCodec"
	CodecZstd    = "org.apache.hadoop.io.compress.ZStandardCodec"
)

// Engine yields raw, already-decompressed key/value byte pairs, one per
// logical record, in on-disk order. Next returns io.EOF at end of container.
type Engine interface {
	Next() (key, value []byte, err error)
	Close() error
}

// Scanner is the built-in Engine for uncompressed and record-compressed
// containers. Block-compressed containers need an external engine and are
// rejected at construction.
type Scanner struct {
	r      *bufio.Reader
	hdr    *Header
	decomp func([]byte) ([]byte, error)
	zdec   *zstd.Decoder
}

// NewScanner creates a Scanner reading record frames from r, which must be
// positioned at the header end. The header determines compression handling.
func NewScanner(r io.Reader, hdr *Header) (*Scanner, error) {
	if hdr.BlockCompressed {
		return nil, errors.Wrap(ErrUnsupportedFormat, "block-compressed container")
	}

	s := &Scanner{
		r:   bufio.NewReaderSize(r, 64*1024),
		hdr: hdr,
	}

	if hdr.Compressed {
		switch hdr.Codec {
		case CodecDefault:
			s.decomp = inflateZlib
		case CodecGzip:
			s.decomp = inflateGzip
		case CodecZstd:
			zdec, err := zstd.NewReader(nil)
			if err != nil {
				return nil, err
			}
			s.zdec = zdec
			s.decomp = func(b []byte) ([]byte, error) {
				return zdec.DecodeAll(b, nil)
			}
		default:
			return nil, errors.Wrapf(ErrUnsupportedFormat, "codec %q", hdr.Codec)
		}
	}

	return s, nil
}

// Next returns the next raw record. Sync-marker escape frames are consumed
// and verified against the header transparently.
func (s *Scanner) Next() (key, value []byte, err error) {
	for {
		length, err := s.readInt32(true)
		if err != nil {
			return nil, nil, err
		}

		if length == syncEscape {
			var sync [SyncMarkerSize]byte
			if _, err := io.ReadFull(s.r, sync[:]); err != nil {
				return nil, nil, errors.Wrap(ErrCorruptRecord, "truncated sync marker")
			}
			if sync != s.hdr.SyncMarker {
				return nil, nil, ErrSyncMismatch
			}
			continue
		}

		if length < 0 || length > maxRecordSize {
			return nil, nil, errors.Wrapf(ErrCorruptRecord, "record length %d", length)
		}

		keyLen, err := s.readInt32(false)
		if err != nil {
			return nil, nil, err
		}
		if keyLen < 0 || keyLen > length {
			return nil, nil, errors.Wrapf(ErrCorruptRecord, "key length %d of record %d", keyLen, length)
		}

		key = make([]byte, keyLen)
		if _, err := io.ReadFull(s.r, key); err != nil {
			return nil, nil, errors.Wrap(ErrCorruptRecord, "truncated key")
		}
		value = make([]byte, length-keyLen)
		if _, err := io.ReadFull(s.r, value); err != nil {
			return nil, nil, errors.Wrap(ErrCorruptRecord, "truncated value")
		}

		if s.decomp != nil {
			if value, err = s.decomp(value); err != nil {
				return nil, nil, errors.Wrap(ErrCorruptRecord, err.Error())
			}
		}
		return key, value, nil
	}
}

// Close releases decoder resources. It does not close the underlying reader,
// which is owned by the caller.
func (s *Scanner) Close() error {
	if s.zdec != nil {
		s.zdec.Close()
		s.zdec = nil
	}
	return nil
}

// readInt32 reads one big-endian int32. A clean EOF before the first byte is
// io.EOF when atBoundary, ErrCorruptRecord otherwise.
func (s *Scanner) readInt32(atBoundary bool) (int32, error) {
	var buf [4]byte
	n, err := io.ReadFull(s.r, buf[:])
	if err != nil {
		if atBoundary && n == 0 && err == io.EOF {
			return 0, io.EOF
		}
		return 0, errors.Wrap(ErrCorruptRecord, "truncated record frame")
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func inflateZlib(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func inflateGzip(b []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
