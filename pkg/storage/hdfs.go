package storage

import (
	"io"
	"net"
	"os"
	"os/user"
	"path"
	"strconv"

	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"github.com/pkg/errors"
)

// HDFS is the distributed-filesystem backend, backed by the native Go HDFS
// client speaking the namenode protocol directly.
type HDFS struct {
	client *hdfs.Client
	addr   string
}

// NewHDFS connects to the namenode at host:port. When confDir is non-empty
// its core-site.xml/hdfs-site.xml are loaded and may override the namenode
// address. Any construction failure is ErrBackendUnavailable: the caller gets
// the namenode address to act on, and there is no local fallback.
func NewHDFS(host string, port int, confDir string) (*HDFS, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	opts := hdfs.ClientOptions{Addresses: []string{addr}}

	if confDir != "" {
		conf, err := hadoopconf.Load(confDir)
		if err != nil {
			return nil, errors.Wrapf(ErrBackendUnavailable, "loading hadoop conf %s: %v", confDir, err)
		}
		confOpts := hdfs.ClientOptionsFromConf(conf)
		if len(confOpts.Addresses) > 0 {
			opts = confOpts
			addr = opts.Addresses[0]
		}
	}

	if opts.User == "" {
		opts.User = hadoopUser()
	}

	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, errors.Wrapf(ErrBackendUnavailable, "hdfs namenode %s: %v", addr, err)
	}
	return &HDFS{client: client, addr: addr}, nil
}

func hadoopUser() string {
	if u := os.Getenv("HADOOP_USER_NAME"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "hdfs"
}

func (h *HDFS) Open(p string) (io.ReadCloser, error) {
	f, err := h.client.Open(stripScheme(p))
	if err != nil {
		return nil, errors.Wrapf(err, "opening hdfs://%s%s", h.addr, stripScheme(p))
	}
	return f, nil
}

func (h *HDFS) List(p string) ([]string, error) {
	dir := stripScheme(p)
	entries, err := h.client.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing hdfs://%s%s", h.addr, dir)
	}
	children := make([]string, 0, len(entries))
	for _, e := range entries {
		children = append(children, path.Join(dir, e.Name()))
	}
	return children, nil
}

func (h *HDFS) Exists(p string) (bool, error) {
	_, err := h.client.Stat(stripScheme(p))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "checking hdfs://%s%s", h.addr, stripScheme(p))
}

func (h *HDFS) Stat(p string) (FileInfo, error) {
	st, err := h.client.Stat(stripScheme(p))
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, errors.Wrapf(ErrNotExist, "%s", p)
		}
		return FileInfo{}, errors.Wrapf(err, "stat hdfs://%s%s", h.addr, stripScheme(p))
	}
	return FileInfo{
		Path:    p,
		Size:    st.Size(),
		ModTime: st.ModTime(),
		IsDir:   st.IsDir(),
	}, nil
}

func (h *HDFS) Close() error {
	return h.client.Close()
}
