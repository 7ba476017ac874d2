// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Data     DataConfig     `mapstructure:"data"`
	Disambig DisambigConfig `mapstructure:"disambig"`
	Wiki     WikiConfig     `mapstructure:"wiki"`
	Embed    EmbedConfig    `mapstructure:"embed"`
	Zen      ZenConfig      `mapstructure:"zen"`
}

// BotConfig holds Discord bot configuration.
type BotConfig struct {
	Token  string `mapstructure:"token"`
	Prefix string `mapstructure:"prefix"`
}

// DataConfig holds paths to the static data files read once at startup.
type DataConfig struct {
	NamesPath string `mapstructure:"names_path"`
	FactsPath string `mapstructure:"facts_path"`
}

// DisambigConfig holds disambiguation and pagination configuration.
type DisambigConfig struct {
	// Timeout is how long the user has to answer a disambiguation prompt.
	Timeout time.Duration `mapstructure:"timeout"`
	// ScalePerEntry, when positive, replaces Timeout with
	// ScalePerEntry multiplied by the size of the name pool.
	ScalePerEntry time.Duration `mapstructure:"scale_per_entry"`
	// PageSize is the maximum number of candidate lines per page.
	PageSize int `mapstructure:"page_size"`
	// PageBudget is the maximum rendered size of a single page.
	PageBudget int `mapstructure:"page_budget"`
	// IdleTimeout is how long the pagination control loop stays alive
	// without input. Much larger than Timeout on purpose.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// WikiConfig holds the Wikipedia API client configuration.
type WikiConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ExtractLimit int           `mapstructure:"extract_limit"`
}

// EmbedConfig holds embed styling configuration.
type EmbedConfig struct {
	Color int `mapstructure:"color"`
}

// ZenConfig holds the zen command configuration.
type ZenConfig struct {
	ClipPath string `mapstructure:"clip_path"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, WIKI_BASE_URL.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.prefix", "!")

	v.SetDefault("data.names_path", "data/snakes.json")
	v.SetDefault("data.facts_path", "data/data.json")

	v.SetDefault("disambig.timeout", "30s")
	v.SetDefault("disambig.scale_per_entry", "0s")
	v.SetDefault("disambig.page_size", 20)
	v.SetDefault("disambig.page_budget", 1500)
	v.SetDefault("disambig.idle_timeout", "150m")

	v.SetDefault("wiki.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wiki.timeout", "10s")
	v.SetDefault("wiki.extract_limit", 1500)

	v.SetDefault("embed.color", 0x59982F)

	v.SetDefault("zen.clip_path", "data/zen.dca")
}

// DisambigTimeout returns the timeout for a disambiguation over a name
// pool of the given size, applying the optional per-entry scaling.
func (c *Config) DisambigTimeout(poolSize int) time.Duration {
	if c.Disambig.ScalePerEntry > 0 && poolSize > 0 {
		return time.Duration(poolSize) * c.Disambig.ScalePerEntry
	}
	return c.Disambig.Timeout
}
