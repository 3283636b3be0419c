// Package config loads vecsynth settings from a YAML file, VECSYNTH_*
// environment variables, and command-line flags, in increasing order of
// precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/vecsynth/internal/oracle"
	"github.com/roach88/vecsynth/internal/querysql"
	"github.com/roach88/vecsynth/internal/synth"
)

// EnvPrefix prefixes every environment variable, e.g.
// VECSYNTH_SYNTH_MAX_DEPTH for synth.max_depth.
const EnvPrefix = "VECSYNTH"

// Configuration keys.
const (
	KeyMaxDepth         = "synth.max_depth"
	KeyLimits           = "synth.limits"
	KeyMaxCandidates    = "synth.max_candidates"
	KeyTimeout          = "synth.timeout"
	KeyCumulative       = "synth.cumulative"
	KeyDistanceSortKeys = "synth.distance_sort_keys"
	KeyMatching         = "oracle.matching"
	KeyStoreDriver      = "store.driver"
	KeyStoreDSN         = "store.dsn"
	KeyLogLevel         = "log.level"
)

// Config is the full set of settings.
type Config struct {
	Synth struct {
		MaxDepth         int           `mapstructure:"max_depth"`
		Limits           []int         `mapstructure:"limits"`
		MaxCandidates    int           `mapstructure:"max_candidates"`
		Timeout          time.Duration `mapstructure:"timeout"`
		Cumulative       bool          `mapstructure:"cumulative"`
		DistanceSortKeys bool          `mapstructure:"distance_sort_keys"`
	} `mapstructure:"synth"`

	Oracle struct {
		Matching string `mapstructure:"matching"`
	} `mapstructure:"oracle"`

	Store struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"store"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Loader layers defaults, a config file, environment, and bound flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment binding set up.
func NewLoader() *Loader {
	v := viper.New()

	defaults := synth.DefaultOptions()
	v.SetDefault(KeyMaxDepth, defaults.MaxDepth)
	v.SetDefault(KeyLimits, defaults.Limits)
	v.SetDefault(KeyMaxCandidates, defaults.MaxCandidates)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyCumulative, defaults.Cumulative)
	v.SetDefault(KeyDistanceSortKeys, defaults.DistanceSortKeys)
	v.SetDefault(KeyMatching, oracle.Greedy.String())
	v.SetDefault(KeyStoreDriver, string(querysql.SQLite))
	v.SetDefault(KeyStoreDSN, ":memory:")
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the optional config file at path, applies environment and
// flag overrides, and validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks every setting that has a closed set of values or a
// range.
func (c *Config) Validate() error {
	if err := c.SynthOptions().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Matching(); err != nil {
		return fmt.Errorf("invalid config: %s: %w", KeyMatching, err)
	}
	if _, err := c.Dialect(); err != nil {
		return fmt.Errorf("invalid config: %s: %w", KeyStoreDriver, err)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("invalid config: %s: %w", KeyLogLevel, err)
	}
	return nil
}

// SynthOptions converts the synth section to search options.
func (c *Config) SynthOptions() synth.Options {
	return synth.Options{
		MaxDepth:         c.Synth.MaxDepth,
		Limits:           c.Synth.Limits,
		MaxCandidates:    c.Synth.MaxCandidates,
		Timeout:          c.Synth.Timeout,
		Cumulative:       c.Synth.Cumulative,
		DistanceSortKeys: c.Synth.DistanceSortKeys,
	}
}

// Matching returns the oracle's row matching strategy.
func (c *Config) Matching() (oracle.Matching, error) {
	return oracle.ParseMatching(c.Oracle.Matching)
}

// Dialect returns the store's SQL dialect.
func (c *Config) Dialect() (querysql.Dialect, error) {
	return querysql.ParseDialect(c.Store.Driver)
}

// LogLevel parses log.level ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
