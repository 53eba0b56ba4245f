package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/stevemurr/farm-records/store"
)

// Prefix is prepended to every environment variable, e.g. FARM_PORT.
const Prefix = "FARM"

// Config holds the server configuration, parsed from FARM_-prefixed
// environment variables.
type Config struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`

	// Storage
	StoreBackend string `envconfig:"STORE_BACKEND" default:"json"`
	DataDir      string `envconfig:"DATA_DIR" default:"./data"`
	DBFile       string `envconfig:"DB_FILE" default:"db.json"`
	PostgresDSN  string `envconfig:"POSTGRES_DSN" default:""`

	S3Bucket    string `envconfig:"S3_BUCKET" default:""`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	S3Key       string `envconfig:"S3_KEY" default:"farm/db.json"`
	S3PathStyle bool   `envconfig:"S3_PATH_STYLE" default:"false"`

	StrictLoad bool `envconfig:"STRICT_LOAD" default:"false"`

	// Records
	IDStrategy     string `envconfig:"ID_STRATEGY" default:"uuid"`
	SeedSampleData bool   `envconfig:"SEED_SAMPLE_DATA" default:"false"`

	// HTTP
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// New parses the environment. It does not validate: callers apply any
// command-line overrides first and then call Validate once.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "json", "sqlite", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires %s_POSTGRES_DSN", Prefix)
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("STORE_BACKEND=s3 requires %s_S3_BUCKET", Prefix)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %s", c.StoreBackend)
	}
	switch c.IDStrategy {
	case "uuid", "sequence":
	default:
		return fmt.Errorf("unsupported ID_STRATEGY: %s", c.IDStrategy)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Store returns the parameters for store.Open.
func (c *Config) Store() store.Config {
	return store.Config{
		Backend:     c.StoreBackend,
		DataDir:     c.DataDir,
		FileName:    c.DBFile,
		PostgresDSN: c.PostgresDSN,
		S3: store.S3Config{
			Bucket:    c.S3Bucket,
			Key:       c.S3Key,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			PathStyle: c.S3PathStyle,
		},
	}
}

// Log writes a one-line summary of the effective configuration. Secrets are
// reported only by presence.
func (c *Config) Log(l zerolog.Logger) {
	l.Info().
		Str("addr", c.Addr()).
		Str("store_backend", c.StoreBackend).
		Str("data_dir", c.DataDir).
		Str("db_file", c.DBFile).
		Bool("postgres_dsn_present", c.PostgresDSN != "").
		Str("s3_bucket", c.S3Bucket).
		Str("id_strategy", c.IDStrategy).
		Bool("strict_load", c.StrictLoad).
		Bool("seed_sample_data", c.SeedSampleData).
		Strs("allowed_origins", c.AllowedOrigins).
		Msg("configuration loaded")
}
