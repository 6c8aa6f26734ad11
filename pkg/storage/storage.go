// Package storage provides a uniform backend over local and HDFS filesystems,
// selected by the URI scheme of the dataset root.
package storage

import (
	"errors"
	"io"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/nutchdb/nutchdb/pkg/config"
)

var (
	// ErrBackendUnavailable indicates the distributed backend could not be
	// constructed (unreachable namenode, unusable Hadoop configuration).
	// There is never a silent fallback to local semantics.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrNotExist indicates the referenced path does not exist.
	ErrNotExist = errors.New("path does not exist")
)

// FileInfo is the stat result for one path.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Backend is the capability set every filesystem implementation provides.
// Paths may be plain or carry the backend's URI scheme. A Backend instance
// is owned by a single stream and is not shared.
type Backend interface {
	// Open returns a sequential reader over the file at path.
	Open(path string) (io.ReadCloser, error)
	// List returns the full paths of the direct children of path.
	List(path string) ([]string, error)
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Stat returns metadata for path, ErrNotExist if it is absent.
	Stat(path string) (FileInfo, error)
	// Close releases any connections held by the backend.
	Close() error
}

// ForPath constructs the Backend selected by the URI scheme of rawPath.
// No scheme and "file" select local storage; every other scheme is routed to
// the HDFS backend, with host and port taken from the URI authority when
// present and from cfg otherwise.
func ForPath(rawPath string, cfg *config.Config) (Backend, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing dataset root %q", rawPath)
	}

	switch u.Scheme {
	case "", "file":
		return NewLocal(), nil
	default:
		host := cfg.NameNode
		port := cfg.NameNodePort
		if h := u.Hostname(); h != "" {
			host = h
		}
		if p := u.Port(); p != "" {
			if port, err = strconv.Atoi(p); err != nil {
				return nil, pkgerrors.Wrapf(err, "parsing port of %q", rawPath)
			}
		}
		return NewHDFS(host, port, cfg.HadoopConfDir)
	}
}

// stripScheme reduces a URI to its path component; plain paths pass through.
func stripScheme(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	if u.Path == "" {
		return raw
	}
	return u.Path
}
