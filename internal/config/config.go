package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	OSM     OSMConfig     `mapstructure:"osm"`
	SPARQL  SPARQLConfig  `mapstructure:"sparql"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type OSMConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	NodeURL     string `mapstructure:"node_url"`
}

type SPARQLConfig struct {
	EndpointURL string `mapstructure:"endpoint_url"`
}

type HTTPConfig struct {
	TimeoutSec       int    `mapstructure:"timeout_sec"`
	RatePerSecond    int    `mapstructure:"rate_per_second"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	UserAgent        string `mapstructure:"user_agent"`
}

type CacheConfig struct {
	Directory string `mapstructure:"directory"`
}

type SyncConfig struct {
	HistoryPath string `mapstructure:"history_path"`
	MaxDiffs    int    `mapstructure:"max_diffs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("osm.database_url", DefaultDatabaseURL)
	v.SetDefault("osm.node_url", DefaultNodeURL)
	v.SetDefault("sparql.endpoint_url", DefaultSPARQLEndpoint)
	v.SetDefault("http.timeout_sec", 60)
	v.SetDefault("http.rate_per_second", 10)
	v.SetDefault("http.batch_concurrency", 8)
	v.SetDefault("http.user_agent", "osm-live-updates")
	v.SetDefault("cache.directory", "cache/changes")
	v.SetDefault("sync.history_path", "data/history.db")
	v.SetDefault("sync.max_diffs", 60)
	v.SetDefault("server.port", "8080")
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("OLU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
