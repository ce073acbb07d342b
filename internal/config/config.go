// Package config provides configuration loading and management for the sync service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/agroland/agroland-sync/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the service
const EnvPrefix = "AGROLAND_SYNC"

// appName names the per-user state directory
const appName = "agroland-sync"

const (
	// DefaultSupplierTimeout bounds the single feed request; a full catalog is large
	DefaultSupplierTimeout = 10 * time.Minute

	// DefaultDescriptionMaxLength is the byte budget of a generated product description
	DefaultDescriptionMaxLength = 1000

	// DefaultSourceTag marks products created by this integration in the store
	DefaultSourceTag = "AGROLAND"

	// DefaultRetentionDays is how long daily log files are kept
	DefaultRetentionDays = 14

	// DefaultServerAddress is the listen address of the health and metrics endpoints
	DefaultServerAddress = ":8090"

	defaultDatabasePort    = 5432
	defaultSSLMode         = "require"
	defaultMaxConns        = 4
	defaultConnectTimeout  = 10 * time.Second
	apiKeyEnvVar           = EnvPrefix + "_API_KEY"
	databasePasswordEnvVar = EnvPrefix + "_DATABASE_PASSWORD"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Supplier  SupplierConfig    `yaml:"supplier"`
	Sync      SyncConfig        `yaml:"sync"`
	Logging   LoggingConfig     `yaml:"logging,omitempty"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
	Server    ServerConfig      `yaml:"server,omitempty"`

	// LockFile guards against two instances syncing into the same store.
	// Empty selects a file under the XDG state directory.
	LockFile string `yaml:"lockFile,omitempty"`
}

// SupplierConfig describes the remote product feed
type SupplierConfig struct {
	// BaseURL is the feed host, e.g. https://api.example.com
	BaseURL string `yaml:"baseUrl"`

	// APIKey is the feed access key. Prefer APIKeyFile or the
	// AGROLAND_SYNC_API_KEY environment variable in production.
	APIKey string `yaml:"apiKey,omitempty"`

	// APIKeyFile is the path to a file containing only the access key
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`

	// Timeout bounds the feed request including the body download (e.g. "5m")
	Timeout string `yaml:"timeout,omitempty"`
}

// SyncConfig controls the run loop and the values derived for each product
type SyncConfig struct {
	// Interval is the delay between the end of one run and the start of the next
	Interval string `yaml:"interval"`

	// MarginPercent is added on top of purchase prices to compute sale prices
	MarginPercent int `yaml:"marginPercent"`

	// DescriptionMaxLength is the byte budget of a product description
	DescriptionMaxLength int `yaml:"descriptionMaxLength,omitempty"`

	// SourceTag is stored with every product written by this service
	SourceTag string `yaml:"sourceTag,omitempty"`

	// ImageRequestsPerSecond throttles photo downloads; 0 means unlimited
	ImageRequestsPerSecond float64 `yaml:"imageRequestsPerSecond,omitempty"`

	// Timezone is the IANA zone in which the once-per-day gate is evaluated
	Timezone string `yaml:"timezone,omitempty"`
}

// LoggingConfig controls the daily log file sink
type LoggingConfig struct {
	// File enables agroland-sync-YYYYMMDD.log files next to stderr output
	File bool `yaml:"file,omitempty"`

	// Directory receives the log files. Setting it implies File; when File is
	// set without a directory the XDG state directory is used.
	Directory string `yaml:"directory,omitempty"`

	// RetentionDays is how many days of log files are kept
	RetentionDays int `yaml:"retentionDays,omitempty"`
}

// ServerConfig controls the health and metrics listener
type ServerConfig struct {
	// Address to listen on; "-" disables the listener
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port,omitempty"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum size of the connection pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// ConnectTimeout bounds a single connection attempt (e.g., "10s")
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
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

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Supplier.BaseURL == "" {
		errs = append(errs, fmt.Errorf("supplier.baseUrl is required"))
	} else if u, err := url.Parse(c.Supplier.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("supplier.baseUrl must be an absolute URL, got %q", c.Supplier.BaseURL))
	}
	if c.Supplier.Timeout != "" {
		if _, err := parsePositiveDuration(c.Supplier.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("supplier.timeout: %w", err))
		}
	}

	if c.Sync.Interval == "" {
		errs = append(errs, fmt.Errorf("sync.interval is required"))
	} else if _, err := parsePositiveDuration(c.Sync.Interval); err != nil {
		errs = append(errs, fmt.Errorf("sync.interval: %w", err))
	}
	if c.Sync.MarginPercent < 0 {
		errs = append(errs, fmt.Errorf("sync.marginPercent must not be negative, got %d", c.Sync.MarginPercent))
	}
	if c.Sync.DescriptionMaxLength < 0 {
		errs = append(errs, fmt.Errorf("sync.descriptionMaxLength must not be negative, got %d",
			c.Sync.DescriptionMaxLength))
	}
	if c.Sync.ImageRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("sync.imageRequestsPerSecond must not be negative"))
	}
	if c.Sync.Timezone != "" {
		if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("sync.timezone: %w", err))
		}
	}

	if c.Logging.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("logging.retentionDays must not be negative, got %d", c.Logging.RetentionDays))
	}

	if c.Database != nil {
		if err := c.Database.validate(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("host is required")
	}
	if d.User == "" {
		return fmt.Errorf("user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if d.ConnectTimeout != "" {
		if _, err := parsePositiveDuration(d.ConnectTimeout); err != nil {
			return fmt.Errorf("connectTimeout: %w", err)
		}
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

// GetAPIKey returns the feed access key using the following priority:
// 1. Read from APIKeyFile if specified
// 2. Read from AGROLAND_SYNC_API_KEY environment variable
// 3. The inline APIKey value
func (s *SupplierConfig) GetAPIKey() (string, error) {
	if s.APIKeyFile != "" {
		data, err := os.ReadFile(filepath.Clean(s.APIKeyFile))
		if err != nil {
			return "", fmt.Errorf("failed to read api key from file %s: %w", s.APIKeyFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envKey := os.Getenv(apiKeyEnvVar); envKey != "" {
		return envKey, nil
	}

	if s.APIKey != "" {
		return s.APIKey, nil
	}

	return "", fmt.Errorf("no supplier api key configured: set apiKey, apiKeyFile or %s", apiKeyEnvVar)
}

// GetTimeout returns the feed request timeout
func (s *SupplierConfig) GetTimeout() time.Duration {
	if d, err := parsePositiveDuration(s.Timeout); err == nil {
		return d
	}
	return DefaultSupplierTimeout
}

// GetInterval returns the run interval. The value is validated at load time.
func (s *SyncConfig) GetInterval() time.Duration {
	d, _ := parsePositiveDuration(s.Interval)
	return d
}

// GetDescriptionMaxLength returns the description budget in bytes
func (s *SyncConfig) GetDescriptionMaxLength() int {
	if s.DescriptionMaxLength == 0 {
		return DefaultDescriptionMaxLength
	}
	return s.DescriptionMaxLength
}

// GetSourceTag returns the source tag stored with each product
func (s *SyncConfig) GetSourceTag() string {
	if s.SourceTag == "" {
		return DefaultSourceTag
	}
	return s.SourceTag
}

// GetLocation returns the zone of the once-per-day gate
func (s *SyncConfig) GetLocation() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FileEnabled reports whether daily log files are written
func (l *LoggingConfig) FileEnabled() bool {
	return l.File || l.Directory != ""
}

// GetDirectory returns the log file directory, creating the XDG default when
// none is configured
func (l *LoggingConfig) GetDirectory() (string, error) {
	if l.Directory != "" {
		return l.Directory, nil
	}
	dir := filepath.Join(xdg.StateHome, appName, "logs")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return dir, nil
}

// GetRetentionDays returns how many days of log files are kept
func (l *LoggingConfig) GetRetentionDays() int {
	if l.RetentionDays == 0 {
		return DefaultRetentionDays
	}
	return l.RetentionDays
}

// GetAddress returns the listen address, or "" when the listener is disabled
func (s *ServerConfig) GetAddress() string {
	switch s.Address {
	case "":
		return DefaultServerAddress
	case "-":
		return ""
	default:
		return s.Address
	}
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from AGROLAND_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(databasePasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", databasePasswordEnvVar,
	)
}

// GetConnectTimeout returns the timeout of a single connection attempt
func (d *DatabaseConfig) GetConnectTimeout() time.Duration {
	if t, err := parsePositiveDuration(d.ConnectTimeout); err == nil {
		return t
	}
	return defaultConnectTimeout
}

// GetMaxConns returns the pool size
func (d *DatabaseConfig) GetMaxConns() int32 {
	if d.MaxConns <= 0 {
		return defaultMaxConns
	}
	return d.MaxConns
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	port := d.Port
	if port == 0 {
		port = defaultDatabasePort
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String(), nil
}

// GetLockFile returns the single-instance lock path, placing it under the XDG
// state directory unless configured
func (c *Config) GetLockFile() (string, error) {
	if c.LockFile != "" {
		return c.LockFile, nil
	}
	path, err := xdg.StateFile(filepath.Join(appName, appName+".lock"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve lock file path: %w", err)
	}
	return path, nil
}
