// Package config provides configuration loading and management for the sync server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/accreg-sync/internal/telemetry"
)

// EnvPrefix is the prefix of the environment variables that override the file
const EnvPrefix = "ACCREG"

const (
	// SourceTypeAPI downloads the snapshot archive over HTTP
	SourceTypeAPI = "api"

	// SourceTypeFile reads a snapshot (or archive) from the local filesystem
	SourceTypeFile = "file"

	// SourceTypeS3 downloads the snapshot archive from an S3 bucket
	SourceTypeS3 = "s3"
)

const (
	// StorageTypePostgres stores records in PostgreSQL
	StorageTypePostgres = "postgres"

	// StorageTypeSQLite stores records in an embedded SQLite file
	StorageTypeSQLite = "sqlite"

	// StorageTypeMemory keeps records in process memory
	StorageTypeMemory = "memory"
)

const (
	// CacheTypeMemory caches lookup lists in process memory
	CacheTypeMemory = "memory"

	// CacheTypeRedis caches lookup lists in Redis
	CacheTypeRedis = "redis"

	// CacheTypeNone disables lookup caching
	CacheTypeNone = "none"
)

const (
	// DefaultAPIURL is the open data page of the accreditation registry
	DefaultAPIURL = "https://islod.obrnadzor.gov.ru/accredreestr/opendata/"

	// DefaultDownloadDir is where fetched archives are extracted
	DefaultDownloadDir = "./data/downloads"

	// DefaultSyncInterval is the pause between two successful passes
	DefaultSyncInterval = 12 * time.Hour

	// DefaultErrorBackoff is the pause after a failed pass
	DefaultErrorBackoff = 60 * time.Second

	// DefaultStatusFile is where the sync status is persisted for file-backed state
	DefaultStatusFile = "./data/status.json"

	// DefaultSQLitePath is the database file of the sqlite store
	DefaultSQLitePath = "./data/accreg.db"

	// DefaultCacheTTL bounds how long a lookup list is served from the cache
	DefaultCacheTTL = 10 * time.Minute
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// EvalSymlinks also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		info, err := os.Stat(realPath)
		if err != nil {
			return fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("config path is a directory: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Source    SourceConfig      `yaml:"source"`
	Sync      SyncConfig        `yaml:"sync"`
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Cache     CacheConfig       `yaml:"cache"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SourceConfig selects where registry snapshots come from
type SourceConfig struct {
	// Type is one of api, file or s3
	Type string `yaml:"type"`

	API  *APIConfig  `yaml:"api,omitempty"`
	File *FileConfig `yaml:"file,omitempty"`
	S3   *S3Config   `yaml:"s3,omitempty"`

	// DownloadDir holds downloaded archives and their extracted snapshot
	DownloadDir string `yaml:"downloadDir,omitempty"`
}

// APIConfig defines the HTTP source
type APIConfig struct {
	// URL is either the open data page listing the archive, or the archive itself
	URL string `yaml:"url"`

	// Timeout bounds a single download attempt (e.g. "10m")
	Timeout string `yaml:"timeout,omitempty"`
}

// FileConfig defines the local file source
type FileConfig struct {
	// Path points at an XML snapshot or a zip archive containing one
	Path string `yaml:"path"`
}

// S3Config defines the S3 source
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Key          string `yaml:"key"`
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"usePathStyle,omitempty"`

	// AccessKeyID and SecretAccessKeyFile set static credentials. When empty the
	// default AWS credential chain is used.
	AccessKeyID         string `yaml:"accessKeyId,omitempty"`
	SecretAccessKeyFile string `yaml:"secretAccessKeyFile,omitempty"`
}

// GetSecretAccessKey reads the secret key from SecretAccessKeyFile, falling back to
// the ACCREG_S3_SECRET_ACCESS_KEY environment variable
func (s *S3Config) GetSecretAccessKey() (string, error) {
	if s.SecretAccessKeyFile != "" {
		data, err := os.ReadFile(filepath.Clean(s.SecretAccessKeyFile))
		if err != nil {
			return "", fmt.Errorf("failed to read S3 secret key from file %s: %w", s.SecretAccessKeyFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if key := os.Getenv(EnvPrefix + "_S3_SECRET_ACCESS_KEY"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no S3 secret key configured: set secretAccessKeyFile or %s_S3_SECRET_ACCESS_KEY", EnvPrefix)
}

// SyncConfig defines the scheduler settings
type SyncConfig struct {
	// Interval is the pause between successful passes (e.g. "12h")
	Interval string `yaml:"interval,omitempty"`

	// ErrorBackoff is the pause after a failed pass
	ErrorBackoff string `yaml:"errorBackoff,omitempty"`

	// AutoStart starts the scheduler with the server. Defaults to true.
	AutoStart *bool `yaml:"autoStart,omitempty"`

	// StatusFile is used when the store has no sync state table
	StatusFile string `yaml:"statusFile,omitempty"`
}

// StorageConfig selects the persistent store
type StorageConfig struct {
	// Type is one of postgres, sqlite or memory. When empty, postgres is used if a
	// database section exists and memory otherwise.
	Type string `yaml:"type,omitempty"`

	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// SQLiteConfig defines the embedded store
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig defines the lookup-list cache
type CacheConfig struct {
	// Type is one of memory, redis or none. Defaults to memory.
	Type string `yaml:"type,omitempty"`

	Redis *RedisConfig `yaml:"redis,omitempty"`

	// TTL bounds how long a cached list is served
	TTL string `yaml:"ttl,omitempty"`
}

// RedisConfig defines the Redis connection of the cache
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL
	URL string `yaml:"url"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the number of connections the pool keeps open
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password, read from PasswordFile when set
// and from the ACCREG_DATABASE_PASSWORD environment variable otherwise.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		data, err := os.ReadFile(filepath.Clean(d.PasswordFile))
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable", EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL URL with the password escaped
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String(), nil
}

// LoadConfig loads and parses configuration from a YAML file, then applies
// environment overrides and validates the result
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	applyEnvOverrides(&config)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets ACCREG_<SECTION>_<KEY> variables replace file values
func applyEnvOverrides(c *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overrideString(v, "source.type", &c.Source.Type)
	overrideString(v, "source.downloadDir", &c.Source.DownloadDir)
	if v.IsSet("source.api.url") {
		if c.Source.API == nil {
			c.Source.API = &APIConfig{}
		}
		c.Source.API.URL = v.GetString("source.api.url")
	}
	if v.IsSet("source.file.path") {
		if c.Source.File == nil {
			c.Source.File = &FileConfig{}
		}
		c.Source.File.Path = v.GetString("source.file.path")
	}
	overrideString(v, "sync.interval", &c.Sync.Interval)
	overrideString(v, "storage.type", &c.Storage.Type)
	overrideString(v, "cache.type", &c.Cache.Type)
	if v.IsSet("cache.redis.url") {
		if c.Cache.Redis == nil {
			c.Cache.Redis = &RedisConfig{}
		}
		c.Cache.Redis.URL = v.GetString("cache.redis.url")
	}
	if c.Database != nil {
		overrideString(v, "database.host", &c.Database.Host)
		overrideString(v, "database.user", &c.Database.User)
		overrideString(v, "database.database", &c.Database.Database)
		if v.IsSet("database.port") {
			c.Database.Port = v.GetInt("database.port")
		}
	}
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.Source.validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.validateStorage(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Cache.validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func (s *SourceConfig) validate() error {
	switch s.Type {
	case SourceTypeAPI:
		if s.API != nil && s.API.Timeout != "" {
			if _, err := time.ParseDuration(s.API.Timeout); err != nil {
				return fmt.Errorf("api.timeout must be a valid duration: %w", err)
			}
		}
	case SourceTypeFile:
		if s.File == nil || s.File.Path == "" {
			return fmt.Errorf("file.path is required")
		}
	case SourceTypeS3:
		if s.S3 == nil || s.S3.Bucket == "" || s.S3.Key == "" {
			return fmt.Errorf("s3.bucket and s3.key are required")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unsupported type %q, expected one of %s, %s, %s",
			s.Type, SourceTypeAPI, SourceTypeFile, SourceTypeS3)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	for name, value := range map[string]string{"interval": s.Interval, "errorBackoff": s.ErrorBackoff} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '30m', '12h'): %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.GetType(c.Database != nil) {
	case StorageTypePostgres:
		if c.Database == nil {
			return fmt.Errorf("database section is required for postgres storage")
		}
		if c.Database.Host == "" || c.Database.Port == 0 || c.Database.User == "" || c.Database.Database == "" {
			return fmt.Errorf("database host, port, user and database are required")
		}
		if c.Database.ConnMaxLifetime != "" {
			if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
				return fmt.Errorf("database.connMaxLifetime must be a valid duration: %w", err)
			}
		}
	case StorageTypeSQLite, StorageTypeMemory:
	default:
		return fmt.Errorf("unsupported type %q", c.Storage.Type)
	}
	return nil
}

func (c *CacheConfig) validate() error {
	switch c.GetType() {
	case CacheTypeMemory, CacheTypeNone:
	case CacheTypeRedis:
		if c.Redis == nil || c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for redis cache")
		}
	default:
		return fmt.Errorf("unsupported type %q", c.Type)
	}
	if c.TTL != "" {
		if _, err := time.ParseDuration(c.TTL); err != nil {
			return fmt.Errorf("ttl must be a valid duration: %w", err)
		}
	}
	return nil
}

// GetDownloadDir returns the download directory, using the default if not specified
func (s *SourceConfig) GetDownloadDir() string {
	if s.DownloadDir == "" {
		return DefaultDownloadDir
	}
	return s.DownloadDir
}

// GetURL returns the API source URL, using the registry open data page if not specified
func (s *SourceConfig) GetURL() string {
	if s.API == nil || s.API.URL == "" {
		return DefaultAPIURL
	}
	return s.API.URL
}

// GetTimeout returns the per-attempt download timeout, or 0 for none
func (a *APIConfig) GetTimeout() time.Duration {
	if a == nil || a.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(a.Timeout)
	return d
}

// GetInterval returns the sync interval, using the default if not specified
func (s *SyncConfig) GetInterval() time.Duration {
	return parseDurationOr(s.Interval, DefaultSyncInterval)
}

// GetErrorBackoff returns the pause after a failed pass
func (s *SyncConfig) GetErrorBackoff() time.Duration {
	return parseDurationOr(s.ErrorBackoff, DefaultErrorBackoff)
}

// IsAutoStart reports whether the scheduler starts with the server
func (s *SyncConfig) IsAutoStart() bool {
	return s.AutoStart == nil || *s.AutoStart
}

// GetStatusFile returns the status file path, using the default if not specified
func (s *SyncConfig) GetStatusFile() string {
	if s.StatusFile == "" {
		return DefaultStatusFile
	}
	return s.StatusFile
}

// GetType returns the storage type, inferring it from hasDatabase when unset
func (s *StorageConfig) GetType(hasDatabase bool) string {
	if s.Type != "" {
		return s.Type
	}
	if hasDatabase {
		return StorageTypePostgres
	}
	return StorageTypeMemory
}

// GetSQLitePath returns the sqlite database file
func (s *StorageConfig) GetSQLitePath() string {
	if s.SQLite == nil || s.SQLite.Path == "" {
		return DefaultSQLitePath
	}
	return s.SQLite.Path
}

// GetType returns the cache type, using memory if not specified
func (c *CacheConfig) GetType() string {
	if c.Type == "" {
		return CacheTypeMemory
	}
	return c.Type
}

// GetTTL returns the cache TTL, using the default if not specified
func (c *CacheConfig) GetTTL() time.Duration {
	return parseDurationOr(c.TTL, DefaultCacheTTL)
}

func parseDurationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
