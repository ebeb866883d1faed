package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pipeline-analytics/internal/ingest"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownGraceS int      `yaml:"shutdown_grace_secs" mapstructure:"shutdown_grace_secs"`
}

// IngestConfig holds the locale conventions of imported files.
type IngestConfig struct {
	Decimal         string  `yaml:"decimal" mapstructure:"decimal"`
	DateOrder       string  `yaml:"date_order" mapstructure:"date_order"`
	YearPivot       int     `yaml:"year_pivot" mapstructure:"year_pivot"`
	ThousandsBelow  float64 `yaml:"thousands_below" mapstructure:"thousands_below"`
	TargetYear      int     `yaml:"target_year" mapstructure:"target_year"`
	CountryFallback string  `yaml:"country_fallback" mapstructure:"country_fallback"`
}

// Locale converts the section into parser settings.
func (c IngestConfig) Locale() ingest.Locale {
	return ingest.Locale{
		Decimal:         ingest.DecimalStyle(c.Decimal),
		DateOrder:       ingest.DateOrder(c.DateOrder),
		YearPivot:       c.YearPivot,
		ThousandsBelow:  c.ThousandsBelow,
		TargetYear:      c.TargetYear,
		CountryFallback: c.CountryFallback,
	}
}

// AnalysisConfig holds report defaults.
type AnalysisConfig struct {
	IncludeStalled bool `yaml:"include_stalled" mapstructure:"include_stalled"`
	MatrixYear     int  `yaml:"matrix_year" mapstructure:"matrix_year"`
}

// SalesforceConfig holds Salesforce JWT auth settings and custom field names.
type SalesforceConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	Username     string  `yaml:"username" mapstructure:"username"`
	KeyPath      string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL     string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	ProjectField string  `yaml:"project_field" mapstructure:"project_field"`
	POField      string  `yaml:"po_field" mapstructure:"po_field"`
	CountryField string  `yaml:"country_field" mapstructure:"country_field"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pipeline.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.timeout_secs", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_grace_secs", 10)
	v.SetDefault("ingest.decimal", string(ingest.DecimalAuto))
	v.SetDefault("ingest.date_order", string(ingest.OrderMDY))
	v.SetDefault("ingest.year_pivot", 50)
	v.SetDefault("ingest.thousands_below", 2000.0)
	v.SetDefault("ingest.target_year", 0)
	v.SetDefault("ingest.country_fallback", "Unknown")
	v.SetDefault("analysis.include_stalled", false)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("salesforce.project_field", "PI_Number__c")
	v.SetDefault("salesforce.po_field", "PO_Number__c")
	v.SetDefault("salesforce.country_field", "BillingCountry")

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

// Validate checks the settings a command mode depends on and reports every
// problem at once. Modes: "analyze", "import", "serve", "salesforce".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	}

	switch ingest.DecimalStyle(c.Ingest.Decimal) {
	case ingest.DecimalAuto, ingest.DecimalComma, ingest.DecimalPoint:
	default:
		problems = append(problems, fmt.Sprintf("ingest.decimal must be auto, comma or point, got %q", c.Ingest.Decimal))
	}
	switch ingest.DateOrder(c.Ingest.DateOrder) {
	case ingest.OrderMDY, ingest.OrderDMY:
	default:
		problems = append(problems, fmt.Sprintf("ingest.date_order must be mdy or dmy, got %q", c.Ingest.DateOrder))
	}
	if c.Ingest.YearPivot < 0 || c.Ingest.YearPivot > 99 {
		problems = append(problems, "ingest.year_pivot must be between 0 and 99")
	}
	if c.Ingest.ThousandsBelow < 0 {
		problems = append(problems, "ingest.thousands_below must be >= 0")
	}

	switch mode {
	case "analyze":
	case "import":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "serve":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must be >= 0")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			problems = append(problems, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			problems = append(problems, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			problems = append(problems, "salesforce.key_path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
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
