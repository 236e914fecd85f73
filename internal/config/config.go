package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store          StoreConfig          `yaml:"store" mapstructure:"store"`
	Taxonomy       TaxonomyConfig       `yaml:"taxonomy" mapstructure:"taxonomy"`
	Bulk           BulkConfig           `yaml:"bulk" mapstructure:"bulk"`
	CompaniesHouse CompaniesHouseConfig `yaml:"companies_house" mapstructure:"companies_house"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// TaxonomyConfig points at an optional synonym-table override. When Path is
// empty the built-in table is used. Loaded once at startup and passed by
// reference into every parse.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BulkConfig configures the bulk accounts scanner.
type BulkConfig struct {
	AccountsDir  string `yaml:"accounts_dir" mapstructure:"accounts_dir"`
	Workers      int    `yaml:"workers" mapstructure:"workers"`
	MinFileBytes int64  `yaml:"min_file_bytes" mapstructure:"min_file_bytes"`
}

// CompaniesHouseConfig holds Companies House API settings.
type CompaniesHouseConfig struct {
	APIKey          string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	DocumentBaseURL string  `yaml:"document_base_url" mapstructure:"document_base_url"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLEARVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "clearview.db")
	v.SetDefault("bulk.workers", 8)
	v.SetDefault("bulk.min_file_bytes", 500)
	v.SetDefault("companies_house.base_url", "https://api.companieshouse.gov.uk")
	v.SetDefault("companies_house.document_base_url", "https://frontend-doc-api.company-information.service.gov.uk")
	v.SetDefault("companies_house.rate_per_sec", 10)
	v.SetDefault("companies_house.timeout_secs", 30)
	v.SetDefault("companies_house.max_retries", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
