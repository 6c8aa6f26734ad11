// Package stream composes per-shard sequence-file reads into one ordered,
// capped, progress-reporting stream of decoded records.
package stream

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nutchdb/nutchdb/pkg/config"
	"github.com/nutchdb/nutchdb/pkg/partition"
	"github.com/nutchdb/nutchdb/pkg/records"
	"github.com/nutchdb/nutchdb/pkg/seqfile"
	"github.com/nutchdb/nutchdb/pkg/storage"
)

// ProgressEvent is emitted exactly once when the stream begins a partition,
// before its first record. Ordinal is the 1-based position in dataset order,
// not the index embedded in the file name.
type ProgressEvent struct {
	Ordinal int
	Total   int
	Path    string
}

// ProgressFunc receives partition progress events.
type ProgressFunc func(ProgressEvent)

// EngineFunc opens a record engine over a shard positioned past its header.
type EngineFunc func(r io.Reader, hdr *seqfile.Header) (seqfile.Engine, error)

// Options tune a Stream. The zero value reads everything with the built-in
// engine and the standard logger.
type Options struct {
	// MaxRecords caps the total records yielded across all partitions;
	// zero or negative means unlimited.
	MaxRecords int64
	// Progress, when set, is called once per partition actually reached.
	Progress ProgressFunc
	// Engine overrides the built-in record engine, e.g. to plug in a
	// block-decompression implementation.
	Engine EngineFunc
	// Logger receives skipped-shard warnings and progress debug lines.
	Logger logrus.FieldLogger
}

// SkippedShard describes a shard excluded from the logical stream.
type SkippedShard struct {
	Path string
	Err  error
}

// Stream is an ordered view over all partitions of one dataset. Construction
// resolves nothing; each Iter call walks the dataset from the first partition,
// so the same Stream replayed twice yields identical record sequences.
type Stream struct {
	backend     storage.Backend
	files       []partition.File
	schema      records.Schema
	opts        Options
	ownsBackend bool
}

// New builds a Stream over an already-discovered dataset. The backend remains
// owned by the caller.
func New(be storage.Backend, files []partition.File, schema records.Schema, opts Options) (*Stream, error) {
	if schema == records.SchemaUnknown {
		return nil, fmt.Errorf("stream: a schema must be selected")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Engine == nil {
		opts.Engine = func(r io.Reader, hdr *seqfile.Header) (seqfile.Engine, error) {
			return seqfile.NewScanner(r, hdr)
		}
	}
	return &Stream{
		backend: be,
		files:   files,
		schema:  schema,
		opts:    opts,
	}, nil
}

// Open resolves root to a backend and its partitions and builds a Stream over
// them. The Stream owns the backend; Close releases it. When opts.MaxRecords
// is unset the cap is taken from cfg.
func Open(root string, schema records.Schema, cfg *config.Config, opts Options) (*Stream, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if opts.MaxRecords == 0 {
		opts.MaxRecords = cfg.MaxRecords
	}

	be, err := storage.ForPath(root, cfg)
	if err != nil {
		return nil, err
	}
	files, err := partition.Discover(root, be)
	if err != nil {
		be.Close()
		return nil, err
	}

	s, err := New(be, files, schema, opts)
	if err != nil {
		be.Close()
		return nil, err
	}
	s.ownsBackend = true
	return s, nil
}

// Partitions returns the dataset's partition files in stream order.
func (s *Stream) Partitions() []partition.File {
	out := make([]partition.File, len(s.files))
	copy(out, s.files)
	return out
}

// Close releases the backend when the Stream owns it.
func (s *Stream) Close() error {
	if s.ownsBackend {
		return s.backend.Close()
	}
	return nil
}

// Iter starts a fresh pass over the dataset from the first partition.
func (s *Stream) Iter() *Iterator {
	return &Iterator{
		s:            s,
		remaining:    s.opts.MaxRecords,
		capped:       s.opts.MaxRecords > 0,
		seenFailures: make(map[uint64]struct{}),
	}
}

// ForEach pulls every record of a fresh pass through fn, stopping early on
// the first error fn returns.
func (s *Stream) ForEach(fn func(records.Record) error) error {
	it := s.Iter()
	defer it.Close()
	for it.Next() {
		if err := fn(it.Record()); err != nil {
			return err
		}
	}
	return nil
}

// Iterator is a single-threaded, pull-based pass over the dataset. It is not
// safe for concurrent use; backend handles and decode state are owned
// exclusively by this iterator.
type Iterator struct {
	s      *Stream
	next   int // index of the next partition to open
	rc     io.ReadCloser
	engine seqfile.Engine
	cur    records.Record

	remaining int64
	capped    bool

	skipped      []SkippedShard
	seenFailures map[uint64]struct{}
	closed       bool
}

// Next advances to the next record, opening partitions as needed. It returns
// false when the dataset is exhausted, the cap is reached, or the iterator
// was closed. Whatever shard handle is open gets released on every exit path.
func (it *Iterator) Next() bool {
	if it.closed {
		return false
	}

	for {
		if it.capped && it.remaining <= 0 {
			it.closeShard()
			return false
		}

		if it.engine == nil {
			if !it.openNextShard() {
				return false
			}
			continue
		}

		key, value, err := it.engine.Next()
		if err == io.EOF {
			it.closeShard()
			continue
		}
		if err != nil {
			// Structural failure mid-shard. Without sync-marker
			// resynchronization the rest of the shard is unreadable,
			// so surface the failure as data and move on.
			it.s.opts.Logger.WithField("error", err).Warn("abandoning shard after corrupt record frame")
			it.cur = records.NewFallback("", nil, err)
			it.closeShard()
			it.remaining--
			return true
		}

		rec := records.Decode(it.s.schema, key, value)
		if fb, ok := rec.(*records.FallbackEntry); ok {
			it.noteFailure(fb)
		}
		it.cur = rec
		it.remaining--
		return true
	}
}

// Record returns the record produced by the last successful Next call.
func (it *Iterator) Record() records.Record {
	return it.cur
}

// Skipped lists the shards excluded so far (malformed headers, unreadable
// files), with the reason for each.
func (it *Iterator) Skipped() []SkippedShard {
	out := make([]SkippedShard, len(it.skipped))
	copy(out, it.skipped)
	return out
}

// Close releases the currently open shard. Safe to call at any point;
// abandoning an iterator without draining it must not leak handles.
func (it *Iterator) Close() error {
	it.closeShard()
	it.closed = true
	return nil
}

// openNextShard opens the next partition, emitting its progress event first.
// Returns false when no partitions remain.
func (it *Iterator) openNextShard() bool {
	for it.next < len(it.s.files) {
		f := it.s.files[it.next]
		ordinal := it.next + 1
		it.next++

		if it.s.opts.Progress != nil {
			it.s.opts.Progress(ProgressEvent{
				Ordinal: ordinal,
				Total:   len(it.s.files),
				Path:    f.Path,
			})
		}
		it.s.opts.Logger.WithFields(logrus.Fields{
			"partition": ordinal,
			"total":     len(it.s.files),
			"path":      f.Path,
		}).Debug("reading partition")

		rc, err := it.s.backend.Open(f.Path)
		if err != nil {
			it.skipShard(f.Path, err)
			continue
		}

		hdr, err := seqfile.ParseHeader(rc)
		if err != nil {
			rc.Close()
			it.skipShard(f.Path, err)
			continue
		}

		engine, err := it.s.opts.Engine(rc, hdr)
		if err != nil {
			rc.Close()
			it.skipShard(f.Path, err)
			continue
		}

		it.rc = rc
		it.engine = engine
		return true
	}
	return false
}

func (it *Iterator) skipShard(path string, err error) {
	it.skipped = append(it.skipped, SkippedShard{Path: path, Err: err})
	it.s.opts.Logger.WithFields(logrus.Fields{
		"path":  path,
		"error": err,
	}).Warn("skipping unreadable shard")
}

// noteFailure logs each distinct payload-decode failure once, keyed by the
// payload fingerprint, so a shard full of identical bad records does not
// flood the log.
func (it *Iterator) noteFailure(fb *records.FallbackEntry) {
	if _, seen := it.seenFailures[fb.Fingerprint]; seen {
		return
	}
	it.seenFailures[fb.Fingerprint] = struct{}{}
	it.s.opts.Logger.WithFields(logrus.Fields{
		"key":         fb.Key,
		"fingerprint": fmt.Sprintf("%016x", fb.Fingerprint),
		"error":       fb.Err,
	}).Warn("record failed schema decoding")
}

func (it *Iterator) closeShard() {
	if it.engine != nil {
		it.engine.Close()
		it.engine = nil
	}
	if it.rc != nil {
		it.rc.Close()
		it.rc = nil
	}
}
