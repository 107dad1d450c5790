package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigFileName is the optional TOML file inside the data directory.
const ConfigFileName = "config.toml"

// FileConfig is the on-disk shape of config.toml. Zero values mean "not set".
type FileConfig struct {
	BridgeURL string         `toml:"bridge_url"`
	LogLevel  string         `toml:"log_level"`
	Timeout   string         `toml:"timeout"`
	RetryMax  int            `toml:"retry_max"`
	Bucket    BucketDefaults `toml:"bucket"`
	Server    ServerFile     `toml:"server"`
}

// BucketDefaults are the quotas used when storjcli creates a bucket.
type BucketDefaults struct {
	Storage  int `toml:"storage" env:"BUCKET_STORAGE"`
	Transfer int `toml:"transfer" env:"BUCKET_TRANSFER"`
}

// ServerFile holds the [server] table used by `storjcli bridge serve`.
type ServerFile struct {
	Addr     string `toml:"addr"`
	Store    string `toml:"store"`
	TokenTTL string `toml:"token_ttl"`
	S3Bucket string `toml:"s3_bucket"`
	S3Region string `toml:"s3_region"`
}

// LoadFileConfig reads config.toml from dataDir. A missing file yields an empty config.
func LoadFileConfig(dataDir string) (*FileConfig, error) {
	configPath := filepath.Join(dataDir, ConfigFileName)

	config := &FileConfig{}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return config, nil
}

// SaveFileConfig writes config to config.toml in dataDir.
func SaveFileConfig(dataDir string, config *FileConfig) error {
	configPath := filepath.Join(dataDir, ConfigFileName)
	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save %s: %w", configPath, err)
	}
	return nil
}

// EnsureFileConfig writes a config.toml carrying the defaults if none exists yet.
// It reports whether a file was created.
func EnsureFileConfig(dataDir string) (bool, error) {
	configPath := filepath.Join(dataDir, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}

	d := Defaults()
	config := &FileConfig{
		BridgeURL: d.BridgeURL,
		LogLevel:  d.LogLevel,
		Timeout:   d.Timeout.String(),
		RetryMax:  d.RetryMax,
		Bucket:    d.Bucket,
	}
	if err := SaveFileConfig(dataDir, config); err != nil {
		return false, err
	}
	return true, nil
}

// apply copies every field that is set in f onto s.
func (f *FileConfig) apply(s *Settings) error {
	if f.BridgeURL != "" {
		s.BridgeURL = f.BridgeURL
	}
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		s.Timeout = d
	}
	if f.RetryMax != 0 {
		s.RetryMax = f.RetryMax
	}
	if f.Bucket.Storage > 0 {
		s.Bucket.Storage = f.Bucket.Storage
	}
	if f.Bucket.Transfer > 0 {
		s.Bucket.Transfer = f.Bucket.Transfer
	}

	if f.Server.Addr != "" {
		s.Server.Addr = f.Server.Addr
	}
	if f.Server.Store != "" {
		s.Server.Store = f.Server.Store
	}
	if f.Server.TokenTTL != "" {
		d, err := time.ParseDuration(f.Server.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid server token_ttl %q: %w", f.Server.TokenTTL, err)
		}
		s.Server.TokenTTL = d
	}
	if f.Server.S3Bucket != "" {
		s.Server.S3.Bucket = f.Server.S3Bucket
	}
	if f.Server.S3Region != "" {
		s.Server.S3.Region = f.Server.S3Region
	}
	return nil
}
