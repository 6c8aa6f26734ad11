package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutchdb/nutchdb/pkg/config"
)

func TestForPathSelectsLocal(t *testing.T) {
	for _, root := range []string{"/data/crawldb", "relative/crawldb", "file:///data/crawldb"} {
		be, err := ForPath(root, nil)
		require.NoError(t, err, root)
		assert.IsType(t, &Local{}, be, root)
		require.NoError(t, be.Close())
	}
}

func TestForPathRejectsBadConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.NameNodePort = 0
	_, err := ForPath("/data/crawldb", cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLocalOpenAndStat(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))

	be := NewLocal()
	defer be.Close()

	rc, err := be.Open(file)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("hello"), content)

	info, err := be.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.False(t, info.IsDir)

	info, err = be.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir)
}

func TestLocalFileScheme(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	be := NewLocal()
	ok, err := be.Exists("file://" + file)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"part-00000", "part-00001"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0o755))
	}

	be := NewLocal()
	children, err := be.List(dir)
	require.NoError(t, err)
	sort.Strings(children)
	assert.Equal(t, []string{
		filepath.Join(dir, "part-00000"),
		filepath.Join(dir, "part-00001"),
	}, children)
}

func TestLocalMissingPath(t *testing.T) {
	be := NewLocal()

	ok, err := be.Exists("/definitely/not/here")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = be.Stat("/definitely/not/here")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestStripScheme(t *testing.T) {
	tests := map[string]string{
		"/data/crawldb":                     "/data/crawldb",
		"relative/crawldb":                  "relative/crawldb",
		"file:///data/crawldb":              "/data/crawldb",
		"hdfs://namenode:9000/user/crawldb": "/user/crawldb",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripScheme(in), in)
	}
}
