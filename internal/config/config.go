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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	WorldBank WorldBankConfig `yaml:"worldbank" mapstructure:"worldbank"`
	Boundary  BoundaryConfig  `yaml:"boundary" mapstructure:"boundary"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Refresh   RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	View      ViewConfig      `yaml:"view" mapstructure:"view"`
	Scale     ScaleConfig     `yaml:"scale" mapstructure:"scale"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WorldBankConfig holds World Bank indicator API settings.
type WorldBankConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	PerPage        int     `yaml:"per_page" mapstructure:"per_page"`
	CountryPerPage int     `yaml:"country_per_page" mapstructure:"country_per_page"`
	MRV            int     `yaml:"mrv" mapstructure:"mrv"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// BoundaryConfig points at the GeoJSON country boundary file.
type BoundaryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CatalogConfig optionally overrides the embedded metric catalog.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RefreshConfig controls the periodic data refresh.
type RefreshConfig struct {
	IntervalHours int `yaml:"interval_hours" mapstructure:"interval_hours"`
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ViewConfig holds the map viewport dimensions and zoom limits.
type ViewConfig struct {
	Width   float64 `yaml:"width" mapstructure:"width"`
	Height  float64 `yaml:"height" mapstructure:"height"`
	MinZoom float64 `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom" mapstructure:"max_zoom"`
}

// ScaleConfig configures choropleth coloring.
type ScaleConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"`
	LowColor    string `yaml:"low_color" mapstructure:"low_color"`
	HighColor   string `yaml:"high_color" mapstructure:"high_color"`
	NoDataColor string `yaml:"no_data_color" mapstructure:"no_data_color"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("COMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("worldbank.base_url", "https://api.worldbank.org/v2")
	v.SetDefault("worldbank.per_page", 20000)
	v.SetDefault("worldbank.country_per_page", 400)
	v.SetDefault("worldbank.mrv", 10)
	v.SetDefault("worldbank.timeout_secs", 60)
	v.SetDefault("worldbank.max_retries", 1)
	v.SetDefault("worldbank.rate_limit", 10)
	v.SetDefault("worldbank.user_agent", "country-comparison/1.0")
	v.SetDefault("boundary.path", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("refresh.interval_hours", 24)
	v.SetDefault("refresh.concurrency", 0)
	v.SetDefault("view.width", 960)
	v.SetDefault("view.height", 500)
	v.SetDefault("view.min_zoom", 1)
	v.SetDefault("view.max_zoom", 8)
	v.SetDefault("scale.mode", "quantile")
	v.SetDefault("scale.low_color", "#f7fbff")
	v.SetDefault("scale.high_color", "#08306b")
	v.SetDefault("scale.no_data_color", "#d9d9d9")
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

// Validate checks the settings a command depends on. The command name selects
// which sections are required: "serve" needs a usable port on top of the
// shared checks.
func (c *Config) Validate(command string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.WorldBank.BaseURL == "" {
		problems = append(problems, "worldbank.base_url is required")
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		problems = append(problems, "view.width and view.height must be positive")
	}
	if c.View.MinZoom <= 0 || c.View.MaxZoom < c.View.MinZoom {
		problems = append(problems, "view zoom limits must satisfy 0 < min_zoom <= max_zoom")
	}
	if c.Scale.Mode != "quantile" && c.Scale.Mode != "linear" {
		problems = append(problems, "scale.mode must be quantile or linear")
	}
	if command == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
