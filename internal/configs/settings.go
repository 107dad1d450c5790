package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultDataDir   = ".storjcli"
	DefaultBridgeURL = "https://api.storj.io"
	DefaultLogLevel  = "silent"
	DefaultTimeout   = 30 * time.Second
	DefaultRetryMax  = 2

	DefaultBucketStorage  = 30
	DefaultBucketTransfer = 10

	DefaultServerAddr = "127.0.0.1:8080"
	DefaultTokenTTL   = 10 * time.Minute
)

// Settings is the resolved configuration for one invocation.
type Settings struct {
	DataDir    string        `env:"DATA_DIR"`
	BridgeURL  string        `env:"BRIDGE_URL"`
	BridgeUser string        `env:"BRIDGE_USER"`
	BridgePass string        `env:"BRIDGE_PASS"`
	KeyPass    string        `env:"STORJ_KEYPASS"`
	Timeout    time.Duration `env:"BRIDGE_TIMEOUT"`
	LogLevel   string        `env:"BRIDGE_LOG_LEVEL"`
	RetryMax   int           `env:"BRIDGE_RETRY_MAX"`

	Bucket BucketDefaults
	Server ServerSettings
}

// ServerSettings configures the local bridge server.
type ServerSettings struct {
	Addr     string        `env:"BRIDGE_SERVER_ADDR"`
	Secret   string        `env:"BRIDGE_SERVER_SECRET"`
	Store    string        `env:"BRIDGE_SERVER_STORE"`
	TokenTTL time.Duration `env:"BRIDGE_TOKEN_TTL"`
	S3       S3Settings
}

// S3Settings selects the S3 bucket used by the s3 blob store.
type S3Settings struct {
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

// Overrides are values from command-line flags. Empty fields are ignored.
type Overrides struct {
	DataDir   string
	BridgeURL string
	LogLevel  string
}

// Defaults returns settings before any file or environment is consulted.
func Defaults() Settings {
	return Settings{
		DataDir:   DefaultDataDir,
		BridgeURL: DefaultBridgeURL,
		LogLevel:  DefaultLogLevel,
		Timeout:   DefaultTimeout,
		RetryMax:  DefaultRetryMax,
		Bucket: BucketDefaults{
			Storage:  DefaultBucketStorage,
			Transfer: DefaultBucketTransfer,
		},
		Server: ServerSettings{
			Addr:     DefaultServerAddr,
			Store:    "fs",
			TokenTTL: DefaultTokenTTL,
			S3:       S3Settings{Region: "us-east-1"},
		},
	}
}

// Load resolves settings: defaults, then config.toml in the data directory,
// then .env, then the environment, then flag overrides.
func Load(o Overrides) (*Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	s := Defaults()

	// The data directory decides where config.toml lives, so settle it first.
	dataDir := os.Getenv("DATA_DIR")
	if o.DataDir != "" {
		dataDir = o.DataDir
	}
	if dataDir == "" {
		dataDir = s.DataDir
	}

	file, err := LoadFileConfig(dataDir)
	if err != nil {
		return nil, err
	}
	if err := file.apply(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dataDir, ConfigFileName), err)
	}

	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	s.DataDir = dataDir
	if o.BridgeURL != "" {
		s.BridgeURL = o.BridgeURL
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	return &s, nil
}

// loadDotEnv loads path into the environment without overriding set variables.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// BlobDir is where the fs blob store keeps uploaded content.
func (s *Settings) BlobDir() string {
	return filepath.Join(s.DataDir, "bridge", "blobs")
}

// ServerDBPath is the bbolt metadata file of the local bridge server.
func (s *Settings) ServerDBPath() string {
	return filepath.Join(s.DataDir, "bridge", "meta.db")
}
