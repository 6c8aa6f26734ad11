// Package partition resolves a dataset root to the ordered list of shard
// files that make up a Nutch database.
package partition

import (
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/nutchdb/nutchdb/pkg/storage"
)

var (
	// ErrPathNotFound indicates the dataset root does not exist.
	ErrPathNotFound = errors.New("dataset root not found")
	// ErrNoPartitions indicates the root exists but no child matches any
	// known partition layout.
	ErrNoPartitions = errors.New("no partition files found")
)

// partitionName matches Hadoop reducer output names: part-00003, part-r-00003.
var partitionName = regexp.MustCompile(`^part(?:-r)?-(\d+)$`)

// File is one discovered shard, ordered within a dataset by Index.
type File struct {
	Path string
	// Index is the decimal index embedded in the partition file name.
	Index uint64
}

// Discover resolves root to its partition files under the known layout
// conventions:
//
//  1. root is itself a file: it is the sole partition.
//  2. root contains a directory named "current": partitions live below it
//     (Nutch database roots nest the live generation there).
//  3. children named part-NNNNN or part-r-NNNNN: the partition data is the
//     child's "data" file when the child is a directory, or the child
//     itself when it is a plain file.
//
// Results are ordered by the numeric value of the embedded index. The
// returned list is created once and never mutated by the stream.
func Discover(root string, be storage.Backend) ([]File, error) {
	exists, err := be.Exists(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.Wrapf(ErrPathNotFound, "%s", root)
	}

	info, err := be.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return []File{{Path: root, Index: 0}}, nil
	}

	dir := root
	current := joinChild(root, "current")
	if ok, err := be.Exists(current); err == nil && ok {
		if st, err := be.Stat(current); err == nil && st.IsDir {
			dir = current
		}
	}

	children, err := be.List(dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "listing partitions under %s", dir)
	}

	var files []File
	for _, child := range children {
		m := partitionName.FindStringSubmatch(baseName(child))
		if m == nil {
			continue
		}
		index, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}

		data := joinChild(child, "data")
		if ok, err := be.Exists(data); err == nil && ok {
			files = append(files, File{Path: data, Index: index})
			continue
		}
		if st, err := be.Stat(child); err == nil && !st.IsDir {
			files = append(files, File{Path: child, Index: index})
		}
	}

	if len(files) == 0 {
		return nil, pkgerrors.Wrapf(ErrNoPartitions,
			"%s (expected part-NNNNN or part-r-NNNNN children)", dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Index < files[j].Index
	})
	return files, nil
}

func baseName(p string) string {
	if strings.Contains(p, "://") {
		return path.Base(strings.TrimSuffix(p, "/"))
	}
	return filepath.Base(p)
}

// joinChild appends a path element, preserving a URI scheme when present.
func joinChild(parent, name string) string {
	if strings.Contains(parent, "://") {
		return strings.TrimSuffix(parent, "/") + "/" + name
	}
	return filepath.Join(parent, name)
}
