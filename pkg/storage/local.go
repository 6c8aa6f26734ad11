package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Local is the direct local-filesystem backend.
type Local struct{}

// NewLocal returns the local-filesystem backend.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(stripScheme(path))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}

func (l *Local) List(path string) ([]string, error) {
	dir := stripScheme(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", path)
	}
	children := make([]string, 0, len(entries))
	for _, e := range entries {
		children = append(children, filepath.Join(dir, e.Name()))
	}
	return children, nil
}

func (l *Local) Exists(path string) (bool, error) {
	_, err := os.Stat(stripScheme(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "checking %s", path)
}

func (l *Local) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(stripScheme(path))
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, errors.Wrapf(ErrNotExist, "%s", path)
		}
		return FileInfo{}, errors.Wrapf(err, "stat %s", path)
	}
	return FileInfo{
		Path:    path,
		Size:    st.Size(),
		ModTime: st.ModTime(),
		IsDir:   st.IsDir(),
	}, nil
}

// Close is a no-op; the local backend holds no connections.
func (l *Local) Close() error {
	return nil
}
