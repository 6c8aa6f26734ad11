// Package seqfile parses Hadoop SequenceFile containers: the fixed header
// layout and a record engine that yields raw key/value byte pairs, with
// per-record value decompression for record-compressed files.
package seqfile

import "errors"

const (
	// MagicTag is the 3-byte literal opening every SequenceFile.
	MagicTag = "SEQ"
	// SyncMarkerSize is the fixed length of the header sync marker.
	SyncMarkerSize = 16
	// syncEscape is the record-length sentinel announcing a sync marker.
	syncEscape = -1

	// maxMetadataEntries bounds the header metadata loop so a corrupt count
	// cannot drive an unbounded read.
	maxMetadataEntries = 1 << 20
	// maxRecordSize bounds a single record frame.
	maxRecordSize = 256 * 1024 * 1024
)

var (
	// ErrMalformedHeader indicates the file is not a readable SequenceFile;
	// the whole shard is excluded from the logical stream.
	ErrMalformedHeader = errors.New("malformed sequence file header")
	// ErrCorruptRecord indicates a structurally invalid record frame.
	ErrCorruptRecord = errors.New("corrupt record frame")
	// ErrSyncMismatch indicates a sync marker that does not match the header.
	ErrSyncMismatch = errors.New("sync marker mismatch")
	// ErrUnsupportedFormat indicates a container variant the built-in engine
	// does not read (block compression, unknown codecs).
	ErrUnsupportedFormat = errors.New("unsupported sequence file format")
)
