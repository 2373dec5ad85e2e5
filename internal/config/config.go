// Package config handles loading and parsing mycocore.toml configuration
// files used by the CLI runtime.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where the CLI looks for configuration unless overridden.
const DefaultPath = "mycocore.toml"

// Config is the top-level configuration for a mycocore instance.
type Config struct {
	Storage Storage `toml:"storage"`
	Blob    Blob    `toml:"blob,omitempty"`
	Reports Reports `toml:"reports,omitempty"`
}

// Storage selects and tunes the persistent store backend.
type Storage struct {
	Driver      string `toml:"driver,omitempty"`      // "memory", "sqlite" (default), or "postgres"
	SQLitePath  string `toml:"sqlite_path,omitempty"` // default mycocore.db
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// Blob selects the artifact store backend for report exports.
type Blob struct {
	Driver     string `toml:"driver,omitempty"` // "fs" (default), "s3", or "memory"
	FSRoot     string `toml:"fs_root,omitempty"`
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// Reports tunes report export defaults.
type Reports struct {
	Formats []string `toml:"formats,omitempty"` // default ["json", "csv"]
}

// Default returns the configuration written by "mycocore init".
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "mycocore.db"},
		Blob:    Blob{Driver: "fs", FSRoot: "./blobdata"},
		Reports: Reports{Formats: []string{"json", "csv"}},
	}
}

// Marshal encodes a Config to TOML bytes.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and parses a mycocore.toml file at the given path. A missing
// file is not an error; defaults are returned so the CLI works out of the
// box.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			return &cfg, nil
		}
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data into a Config, filling unset fields from defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Apply exports the configuration as environment variables so the storage
// and blob factories pick it up. Explicit environment settings win.
func (c *Config) Apply() {
	setIfUnset("MYCOCORE_STORAGE_DRIVER", c.Storage.Driver)
	setIfUnset("MYCOCORE_SQLITE_PATH", c.Storage.SQLitePath)
	setIfUnset("MYCOCORE_POSTGRES_DSN", c.Storage.PostgresDSN)
	setIfUnset("MYCOCORE_BLOB_DRIVER", c.Blob.Driver)
	setIfUnset("MYCOCORE_BLOB_FS_ROOT", c.Blob.FSRoot)
	setIfUnset("MYCOCORE_BLOB_S3_BUCKET", c.Blob.S3Bucket)
	setIfUnset("MYCOCORE_BLOB_S3_REGION", c.Blob.S3Region)
	setIfUnset("MYCOCORE_BLOB_S3_ENDPOINT", c.Blob.S3Endpoint)
}

func setIfUnset(key, value string) {
	if value == "" {
		return
	}
	if _, ok := os.LookupEnv(key); ok {
		return
	}
	os.Setenv(key, value)
}
