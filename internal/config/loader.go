package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HARVESTER_PIPELINE_RUN_BUDGET.
const EnvPrefix = "HARVESTER"

// Load reads configuration from defaults, an optional YAML file and the
// environment. Priority (highest first): env vars, config file, defaults.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("harvester")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// lists replace the defaults instead of being merged index by index
	if v.IsSet("sources") {
		cfg.Sources = nil
	}
	if v.IsSet("keywords") {
		cfg.Keywords = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers scalar defaults so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)

	v.SetDefault("pipeline.source_workers", cfg.Pipeline.SourceWorkers)
	v.SetDefault("pipeline.enrich_workers", cfg.Pipeline.EnrichWorkers)
	v.SetDefault("pipeline.request_delay", cfg.Pipeline.RequestDelay)
	v.SetDefault("pipeline.run_budget", cfg.Pipeline.RunBudget)

	v.SetDefault("merge.mode", cfg.Merge.Mode)

	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("publishers_file", cfg.PublishersFile)
}
