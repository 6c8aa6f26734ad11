// Package config holds the runtime configuration surface: HDFS connection
// settings and the optional global record cap.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultNameNode is used when no namenode is configured or embedded
	// in the dataset URI.
	DefaultNameNode = "localhost"
	// DefaultNameNodePort is the standard HDFS namenode RPC port.
	DefaultNameNodePort = 9000
)

// Environment variables honored by FromEnv.
const (
	EnvNameNode     = "HDFS_NAMENODE"
	EnvNameNodePort = "HDFS_PORT"
	EnvHadoopConf   = "HADOOP_CONF_DIR"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config carries the settings threaded through backend construction and
// stream assembly.
type Config struct {
	// NameNode is the HDFS namenode hostname. A host embedded in the
	// dataset URI takes precedence.
	NameNode string `json:"hdfs_namenode"`
	// NameNodePort is the HDFS namenode RPC port.
	NameNodePort int `json:"hdfs_port"`
	// HadoopConfDir optionally points at a Hadoop configuration directory
	// (core-site.xml, hdfs-site.xml) consulted by the HDFS client.
	HadoopConfDir string `json:"hadoop_conf_dir"`
	// MaxRecords caps the total records yielded by a stream; zero or
	// negative means unlimited.
	MaxRecords int64 `json:"max_records"`
}

// NewDefaultConfig returns a Config with the standard defaults.
func NewDefaultConfig() *Config {
	return &Config{
		NameNode:     DefaultNameNode,
		NameNodePort: DefaultNameNodePort,
	}
}

// FromEnv returns the default configuration overridden by any of the
// recognized environment variables.
func FromEnv() *Config {
	cfg := NewDefaultConfig()
	if v := os.Getenv(EnvNameNode); v != "" {
		cfg.NameNode = v
	}
	if v := os.Getenv(EnvNameNodePort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NameNodePort = port
		}
	}
	if v := os.Getenv(EnvHadoopConf); v != "" {
		cfg.HadoopConfDir = v
	}
	return cfg
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.NameNode == "" {
		return fmt.Errorf("%w: namenode host must not be empty", ErrInvalidConfig)
	}
	if c.NameNodePort <= 0 || c.NameNodePort > 65535 {
		return fmt.Errorf("%w: namenode port %d out of range", ErrInvalidConfig, c.NameNodePort)
	}
	return nil
}
