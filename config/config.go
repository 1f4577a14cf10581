// Package config loads harness settings from the environment and an optional
// uiharness.yaml file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/pages"
	"github.com/networkteam/uiharness/session"
)

// EnvPrefix is prepended to every environment variable, e.g. UIHARNESS_BASE_URL.
const EnvPrefix = "UIHARNESS"

// Config holds the harness settings.
type Config struct {
	// BaseURL of the application under test. Empty runs against the local test app
	// in acceptance tests.
	BaseURL string `mapstructure:"base_url"`
	// ResultsDir is reset once per run and receives artifacts of failed tests.
	// Default: results
	ResultsDir string `mapstructure:"results_dir"`
	// Browser is one of chromium, firefox, webkit.
	// Default: chromium
	Browser driver.BrowserKind `mapstructure:"browser"`
	// Headless runs the browser without a window. HEADLESS=false is honored too.
	// Default: true
	Headless bool `mapstructure:"headless"`
	// SlowMo delays every driver operation.
	// Default: 0
	SlowMo time.Duration `mapstructure:"slow_mo"`
	// WaitTimeout bounds element state waits.
	// Default: 10s
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	// ConsoleBuffer is the number of browser console messages kept per session.
	// Default: 500, zero also means default
	ConsoleBuffer uint64 `mapstructure:"console_buffer"`
	// LogLevel of the harness logger.
	// Default: info
	LogLevel string `mapstructure:"log_level"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "")
	v.SetDefault("results_dir", artifact.DefaultRoot)
	v.SetDefault("browser", string(driver.Chromium))
	v.SetDefault("headless", true)
	v.SetDefault("slow_mo", "0s")
	v.SetDefault("wait_timeout", pages.DefaultWaitTimeout.String())
	v.SetDefault("console_buffer", session.DefaultConsoleBuffer)
	v.SetDefault("log_level", "info")
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// HEADLESS=false is the established switch for a visible browser
	_ = v.BindEnv("headless", EnvPrefix+"_HEADLESS", "HEADLESS")

	return v
}

// Load reads the configuration. configFile may be empty, then uiharness.yaml in
// the working directory is used if it exists.
func Load(configFile string) (Config, error) {
	v := New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("uiharness")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Browser {
	case driver.Chromium, driver.Firefox, driver.WebKit:
	default:
		return fmt.Errorf("invalid browser %q, expected chromium, firefox or webkit", c.Browser)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive, got %s", c.WaitTimeout)
	}
	if c.SlowMo < 0 {
		return fmt.Errorf("slow_mo must not be negative, got %s", c.SlowMo)
	}
	if c.ResultsDir == "" {
		return errors.New("results_dir must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LaunchOptions derives the browser launch options.
func (c Config) LaunchOptions() driver.LaunchOptions {
	return driver.LaunchOptions{
		Browser:  c.Browser,
		Headless: c.Headless,
		SlowMo:   c.SlowMo,
	}
}
