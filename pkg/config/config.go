package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	SearchURL      string        `mapstructure:"SEARCH_URL"`
	PriceThreshold float64       `mapstructure:"PRICE_THRESHOLD"`
	PollInterval   time.Duration `mapstructure:"POLL_INTERVAL"`
	FetchTimeout   time.Duration `mapstructure:"FETCH_TIMEOUT"`
	CycleTimeout   time.Duration `mapstructure:"CYCLE_TIMEOUT"`
	FetchMode      string        `mapstructure:"FETCH_MODE"`
	AlertHeadline  string        `mapstructure:"ALERT_HEADLINE"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	TwilioAccountSID string  `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string  `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string  `mapstructure:"TWILIO_FROM_NUMBER"`
	TwilioToNumber   string  `mapstructure:"TWILIO_TO_NUMBER"`
	SMSRatePerSec    float64 `mapstructure:"SMS_RATE_PER_SEC"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
	OpsAddr  string `mapstructure:"OPS_ADDR"`

	// EnvFileLoaded records whether a .env file was read. The logger does not exist yet when
	// config loads, so the caller reports it.
	EnvFileLoaded bool `mapstructure:"-"`
}

var keys = []string{
	"SEARCH_URL", "PRICE_THRESHOLD", "POLL_INTERVAL", "FETCH_TIMEOUT", "CYCLE_TIMEOUT",
	"FETCH_MODE", "ALERT_HEADLINE", "STORE_DRIVER", "SQLITE_PATH", "POSTGRES_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "TWILIO_TO_NUMBER",
	"SMS_RATE_PER_SEC", "LOG_LEVEL", "LOG_FILE", "OPS_ADDR",
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return loadFiles(viper.New())
}

// loadFiles reads the given .env files (".env" when none) before the environment. A missing
// file is normal in production, where everything comes from the environment.
func loadFiles(v *viper.Viper, envFiles ...string) (*Config, error) {
	loaded := godotenv.Load(envFiles...) == nil
	cfg, err := load(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; AutomaticEnv alone does not register them.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("SEARCH_URL", "https://www.ebay.com/sch/i.html?_nkw=rtx+3090&LH_BIN=1&_sop=15")
	v.SetDefault("PRICE_THRESHOLD", 900)
	v.SetDefault("POLL_INTERVAL", 3*time.Second)
	v.SetDefault("FETCH_TIMEOUT", 30*time.Second)
	v.SetDefault("CYCLE_TIMEOUT", 0)
	v.SetDefault("FETCH_MODE", FetchModeHTTP)
	v.SetDefault("ALERT_HEADLINE", "New RTX 3090 Deal!")
	v.SetDefault("STORE_DRIVER", StoreSQLite)
	v.SetDefault("SQLITE_PATH", "listings.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SMS_RATE_PER_SEC", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "scraper.log")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SearchURL == "" {
		errs = append(errs, errors.New("SEARCH_URL is required"))
	}
	if c.PriceThreshold <= 0 {
		errs = append(errs, fmt.Errorf("PRICE_THRESHOLD must be positive, got %v", c.PriceThreshold))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.CycleTimeout < 0 {
		errs = append(errs, fmt.Errorf("CYCLE_TIMEOUT must not be negative, got %s", c.CycleTimeout))
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		errs = append(errs, fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode))
	}
	switch c.StoreDriver {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.SMSRatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("SMS_RATE_PER_SEC must be positive, got %v", c.SMSRatePerSec))
	}
	return errors.Join(errs...)
}

// SMSConfigured reports whether every Twilio setting is present.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		c.TwilioFromNumber != "" && c.TwilioToNumber != ""
}
