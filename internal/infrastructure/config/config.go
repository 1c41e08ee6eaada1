package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/spf13/viper"
)

// Config is the full service configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Import    ImportConfig    `mapstructure:"import"`
	Inbox     InboxConfig     `mapstructure:"inbox"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig selects postgres or a sqlite file. Lifetimes are minutes.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"`
}

// RedisConfig backs the import lock when enabled; otherwise the lock is
// process-local.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
}

// POLayoutConfig mirrors csvimport.POLayout
type POLayoutConfig struct {
	ReportDateRow int    `mapstructure:"report_date_row"`
	ReportDateCol int    `mapstructure:"report_date_col"`
	DataStartRow  int    `mapstructure:"data_start_row"`
	Sentinel      string `mapstructure:"sentinel"`
	OrderDateCol  int    `mapstructure:"order_date_col"`
	PONumberCol   int    `mapstructure:"po_number_col"`
	VendorCol     int    `mapstructure:"vendor_col"`
	NSStatusCol   int    `mapstructure:"ns_status_col"`
	AmountCol     int    `mapstructure:"amount_col"`
	LocationCol   int    `mapstructure:"location_col"`
}

// LineItemLayoutConfig mirrors csvimport.LineItemLayout
type LineItemLayoutConfig struct {
	DataStartRow     int    `mapstructure:"data_start_row"`
	Sentinel         string `mapstructure:"sentinel"`
	CandidateColumns []int  `mapstructure:"candidate_columns"`
	AccountCol       int    `mapstructure:"account_col"`
	MemoCol          int    `mapstructure:"memo_col"`
	DateCol          int    `mapstructure:"date_col"`
	QuantityCol      int    `mapstructure:"quantity_col"`
}

// ImportConfig holds settings shared by both importers
type ImportConfig struct {
	Actor         string               `mapstructure:"actor"`          // recorded as HiddenBy on orphaned orders
	AccountPrefix string               `mapstructure:"account_prefix"` // ledger prefix line items must carry
	LockTTL       time.Duration        `mapstructure:"lock_ttl"`       // upper bound on one import run
	MaxFileSize   int64                `mapstructure:"max_file_size"`
	MaxErrors     int                  `mapstructure:"max_errors"`
	Timezone      string               `mapstructure:"timezone"` // zone used to render audit note timestamps
	PO            POLayoutConfig       `mapstructure:"po"`
	LineItems     LineItemLayoutConfig `mapstructure:"line_items"`
}

// Location resolves Timezone, falling back to UTC
func (c ImportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c ImportConfig) POLayout() csvimport.POLayout {
	return csvimport.POLayout(c.PO)
}

func (c ImportConfig) LineItemLayout() csvimport.LineItemLayout {
	return csvimport.LineItemLayout{
		DataStartRow:     c.LineItems.DataStartRow,
		Sentinel:         c.LineItems.Sentinel,
		CandidateColumns: c.LineItems.CandidateColumns,
		AccountCol:       c.LineItems.AccountCol,
		MemoCol:          c.LineItems.MemoCol,
		DateCol:          c.LineItems.DateCol,
		QuantityCol:      c.LineItems.QuantityCol,
		AccountPrefix:    c.AccountPrefix,
	}
}

// InboxConfig configures the drop-folder poller. Patterns are globs
// matched against bare file names.
type InboxConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Dir             string        `mapstructure:"dir"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	POPattern       string        `mapstructure:"po_pattern"`
	LineItemPattern string        `mapstructure:"line_item_pattern"`
}

// StorageConfig configures the S3-compatible archive for raw exports
type StorageConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type TelemetryConfig struct {
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	ExportInterval    time.Duration `mapstructure:"export_interval"`
}

// Load reads config.toml from the working directory or /etc/posync, then
// overlays POSYNC_ environment variables (POSYNC_DATABASE_PASSWORD sets
// database.password). A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/posync")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix("POSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env overrides for keys viper already knows, so
	// every key gets a default even when it is empty.
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch db.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", db.Driver)
	}
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	}

	if err := c.Import.POLayout().Validate(); err != nil {
		return fmt.Errorf("import.po: %w", err)
	}
	if err := c.Import.LineItemLayout().Validate(); err != nil {
		return fmt.Errorf("import.line_items: %w", err)
	}
	switch {
	case c.Import.AccountPrefix == "":
		return errors.New("import.account_prefix is required")
	case c.Import.LockTTL < time.Second:
		return errors.New("import.lock_ttl must be at least 1s")
	case c.Import.MaxFileSize <= 0:
		return errors.New("import.max_file_size must be positive")
	}
	if _, err := time.LoadLocation(c.Import.Timezone); err != nil {
		return fmt.Errorf("import.timezone: %w", err)
	}

	if c.Inbox.Enabled && c.Inbox.PollInterval < time.Second {
		return errors.New("inbox.poll_interval must be at least 1s")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" && db.Driver == "postgres" {
		if db.Password == "" {
			return errors.New("database.password is required in production")
		}
		if db.SSLMode == "disable" {
			return errors.New("database.sslmode cannot be 'disable' in production")
		}
	}
	return nil
}

// DSN is the sqlite path, or a postgres URL with escaped credentials
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
