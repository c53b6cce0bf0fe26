// Package config loads application configuration and initializes logging.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the root configuration, loaded once at startup.
type Config struct {
	DocStore  DocStoreConfig  `yaml:"docstore" mapstructure:"docstore"`
	CDS       CDSConfig       `yaml:"cds" mapstructure:"cds"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DocStoreConfig configures the document store.
type DocStoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CDSConfig configures the CDS API client and its token service.
type CDSConfig struct {
	TokenServiceURL        string  `yaml:"token_service_url" mapstructure:"token_service_url"`
	APIName                string  `yaml:"api_name" mapstructure:"api_name"`
	PEToken                string  `yaml:"pe_token" mapstructure:"pe_token"`
	CookieGT               string  `yaml:"cookie_gt" mapstructure:"cookie_gt"`
	CookieCDS              string  `yaml:"cookie_cds" mapstructure:"cookie_cds"`
	BaseURL                string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs            int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	TokenTTLMins           int     `yaml:"token_ttl_mins" mapstructure:"token_ttl_mins"`
	TokenRefreshBufferMins int     `yaml:"token_refresh_buffer_mins" mapstructure:"token_refresh_buffer_mins"`
	RateLimitRPS           float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RetryAttempts          int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs         int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	BreakerThreshold       int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs       int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-request timeout.
func (c CDSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TokenTTL returns how long an issued token is valid.
func (c CDSConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMins) * time.Minute
}

// TokenRefreshBuffer returns how early a token is refreshed.
func (c CDSConfig) TokenRefreshBuffer() time.Duration {
	return time.Duration(c.TokenRefreshBufferMins) * time.Minute
}

// RedisConfig configures the shared token cache. An empty URL disables it.
type RedisConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// NormalizeConfig toggles ASCII normalization per source.
type NormalizeConfig struct {
	Documents bool `yaml:"documents" mapstructure:"documents"`
	API       bool `yaml:"api" mapstructure:"api"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml from the working directory (optional) and
// ADDRCMP_* environment variables, e.g. ADDRCMP_CDS_BASE_URL.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADDRCMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a meaningful default are registered empty so that
	// AutomaticEnv sees them during Unmarshal.
	v.SetDefault("docstore.driver", "postgres")
	v.SetDefault("docstore.database_url", "")
	v.SetDefault("docstore.table", "documents")
	v.SetDefault("docstore.max_results", 500)
	v.SetDefault("docstore.max_conns", 5)
	v.SetDefault("docstore.min_conns", 1)
	v.SetDefault("cds.token_service_url", "")
	v.SetDefault("cds.api_name", "")
	v.SetDefault("cds.pe_token", "")
	v.SetDefault("cds.cookie_gt", "")
	v.SetDefault("cds.cookie_cds", "")
	v.SetDefault("cds.base_url", "")
	v.SetDefault("cds.timeout_secs", 30)
	v.SetDefault("cds.token_ttl_mins", 60)
	v.SetDefault("cds.token_refresh_buffer_mins", 5)
	v.SetDefault("cds.rate_limit_rps", 5)
	v.SetDefault("cds.retry_attempts", 3)
	v.SetDefault("cds.retry_backoff_ms", 250)
	v.SetDefault("cds.breaker_threshold", 5)
	v.SetDefault("cds.breaker_reset_secs", 30)
	v.SetDefault("redis.url", "")
	v.SetDefault("normalize.documents", true)
	v.SetDefault("normalize.api", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings required by mode: "cds", "docstore" or
// "serve".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "cds":
		errs = c.validateCDS()
	case "docstore":
		errs = c.validateDocStore()
		if c.DocStore.DatabaseURL == "" {
			errs = append(errs, "docstore.database_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateDocStore()...)
		if c.CDS.TimeoutSecs <= 0 {
			errs = append(errs, "cds.timeout_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCDS() []string {
	var errs []string
	if c.CDS.BaseURL == "" {
		errs = append(errs, "cds.base_url is required")
	}
	if c.CDS.TokenServiceURL == "" {
		errs = append(errs, "cds.token_service_url is required")
	}
	if c.CDS.APIName == "" {
		errs = append(errs, "cds.api_name is required")
	}
	if c.CDS.TimeoutSecs <= 0 {
		errs = append(errs, "cds.timeout_secs must be > 0")
	}
	if c.CDS.TokenRefreshBufferMins >= c.CDS.TokenTTLMins {
		errs = append(errs, "cds.token_refresh_buffer_mins must be below cds.token_ttl_mins")
	}
	return errs
}

func (c *Config) validateDocStore() []string {
	switch c.DocStore.Driver {
	case "postgres", "sqlite":
		return nil
	default:
		return []string{"docstore.driver must be postgres or sqlite"}
	}
}

// InitLogger replaces the global zap logger.
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
