package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client and dev server configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig
	Logger      LoggerConfig

	// Backend API
	API APIConfig

	// Client behavior
	Cache   CacheConfig
	Offline OfflineConfig
	Sync    SyncConfig

	// Local AI for the dev server
	Ollama OllamaConfig

	// Dev server
	DevServer DevServerConfig
}

type EnvironmentConfig struct {
	Name string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	MaxEntries  int
	TaskListTTL time.Duration
	TaskTTL     time.Duration
	ChatTTL     time.Duration
}

type OfflineConfig struct {
	StatePath  string
	MaxOps     int
	MaxRetries int
}

type SyncConfig struct {
	ResyncInterval time.Duration
	PollInterval   time.Duration
}

type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

type DevServerConfig struct {
	Port            int
	Mode            string
	RateLimitPerMin int
}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/taskdeck/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/taskdeck/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	cfg.API.BaseURL = viper.GetString("api.base_url")
	cfg.API.Timeout = viper.GetDuration("api.timeout")
	if apiURL := viper.GetString("taskdeck_api_url"); apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	cfg.Cache.MaxEntries = viper.GetInt("cache.max_entries")
	cfg.Cache.TaskListTTL = viper.GetDuration("cache.task_list_ttl")
	cfg.Cache.TaskTTL = viper.GetDuration("cache.task_ttl")
	cfg.Cache.ChatTTL = viper.GetDuration("cache.chat_ttl")

	cfg.Offline.StatePath = viper.GetString("offline.state_path")
	cfg.Offline.MaxOps = viper.GetInt("offline.max_ops")
	cfg.Offline.MaxRetries = viper.GetInt("offline.max_retries")

	cfg.Sync.ResyncInterval = viper.GetDuration("sync.resync_interval")
	cfg.Sync.PollInterval = viper.GetDuration("sync.poll_interval")

	cfg.Ollama.Host = viper.GetString("ollama.host")
	cfg.Ollama.Model = viper.GetString("ollama.model")
	cfg.Ollama.Timeout = viper.GetDuration("ollama.timeout")
	if ollamaHost := viper.GetString("ollama_host"); ollamaHost != "" {
		cfg.Ollama.Host = ollamaHost
	}

	cfg.DevServer.Port = viper.GetInt("dev_server.port")
	cfg.DevServer.Mode = viper.GetString("dev_server.mode")
	cfg.DevServer.RateLimitPerMin = viper.GetInt("dev_server.rate_limit_per_min")

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", "15s")

	viper.SetDefault("cache.max_entries", 128)
	viper.SetDefault("cache.task_list_ttl", "5m")
	viper.SetDefault("cache.task_ttl", "5m")
	viper.SetDefault("cache.chat_ttl", "2m")

	viper.SetDefault("offline.max_ops", 256)
	viper.SetDefault("offline.max_retries", 3)

	viper.SetDefault("sync.resync_interval", "30s")
	viper.SetDefault("sync.poll_interval", "10s")

	viper.SetDefault("ollama.host", "http://localhost:11434")
	viper.SetDefault("ollama.model", "llama2")
	viper.SetDefault("ollama.timeout", "45s")

	viper.SetDefault("dev_server.port", 8000)
	viper.SetDefault("dev_server.mode", "debug")
	viper.SetDefault("dev_server.rate_limit_per_min", 120)
}
