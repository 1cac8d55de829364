// Package config handles configuration loading and management for maestro.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for maestro.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Cache     CacheConfig     `mapstructure:"cache"`
	TUI       TUIConfig       `mapstructure:"tui"`
	Trace     TraceConfig     `mapstructure:"trace"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	MaxTokens     int    `mapstructure:"max_tokens"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OllamaConfig holds local-model worker settings.
type OllamaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// EngineConfig holds orchestration engine settings.
type EngineConfig struct {
	// MaxConcurrency caps simultaneously in-flight tasks per level.
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// EventBuffer is the engine event channel buffer size.
	EventBuffer int `mapstructure:"event_buffer"`
	// DefaultStrategy is used when a plan does not name one.
	DefaultStrategy string `mapstructure:"default_strategy"`
	// DebugLogPath enables file-backed debug logging when set.
	DebugLogPath string `mapstructure:"debug_log_path"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	MaxItems int           `mapstructure:"max_items"`
	MaxMemMB int           `mapstructure:"max_mem_mb"`
}

// TUIConfig holds run monitor display settings.
type TUIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// TraceConfig holds execution trace persistence settings.
type TraceConfig struct {
	// Persist writes finished traces to the project-local SQLite store.
	Persist bool `mapstructure:"persist"`
	// RetainFor bounds how long persisted traces are kept.
	RetainFor time.Duration `mapstructure:"retain_for"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.maestro.yaml in current directory or parent)
// 3. User config (~/.config/maestro/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.use_aws_bedrock", "MAESTRO_USE_BEDROCK")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Watch reloads configuration from path whenever the file changes and hands
// the result to onChange. Reload errors are reported through onError when
// set, and the previous config stays in effect.
func Watch(path string, onChange func(*Config), onError func(error)) (stop func(), err error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	v.OnConfigChange(func(fsnotify.Event) {
		cfg := &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading config: %w", err))
			}
			return
		}
		cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
		onChange(cfg)
	})
	v.WatchConfig()

	// viper's watcher has no public stop handle; the returned func is a
	// placeholder so call sites read naturally.
	return func() {}, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("ollama.enabled", cfg.Ollama.Enabled)
	v.Set("ollama.model", cfg.Ollama.Model)
	v.Set("engine.max_concurrency", cfg.Engine.MaxConcurrency)
	v.Set("engine.event_buffer", cfg.Engine.EventBuffer)
	v.Set("engine.default_strategy", cfg.Engine.DefaultStrategy)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("cache.max_items", cfg.Cache.MaxItems)
	v.Set("cache.max_mem_mb", cfg.Cache.MaxMemMB)
	v.Set("tui.enabled", cfg.TUI.Enabled)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())
	v.Set("trace.persist", cfg.Trace.Persist)
	v.Set("trace.retain_for", cfg.Trace.RetainFor.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("ollama.enabled", false)
	v.SetDefault("ollama.model", "llama3.2")

	v.SetDefault("engine.max_concurrency", 8)
	v.SetDefault("engine.event_buffer", 100)
	v.SetDefault("engine.default_strategy", "parallel")
	v.SetDefault("engine.debug_log_path", "")

	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.max_items", 1024)
	v.SetDefault("cache.max_mem_mb", 64)

	v.SetDefault("tui.enabled", true)
	v.SetDefault("tui.refresh_rate", "100ms")

	v.SetDefault("trace.persist", false)
	v.SetDefault("trace.retain_for", "168h")
}

// getUserConfigDir returns the XDG config directory for maestro.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "maestro")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "maestro")
	}
	return filepath.Join(home, ".config", "maestro")
}

// findProjectConfig searches for .maestro.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".maestro.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			MaxTokens: 4096,
		},
		Ollama: OllamaConfig{
			Model: "llama3.2",
		},
		Engine: EngineConfig{
			MaxConcurrency:  8,
			EventBuffer:     100,
			DefaultStrategy: "parallel",
		},
		Cache: CacheConfig{
			TTL:      time.Hour,
			MaxItems: 1024,
			MaxMemMB: 64,
		},
		TUI: TUIConfig{
			Enabled:     true,
			RefreshRate: 100 * time.Millisecond,
		},
		Trace: TraceConfig{
			RetainFor: 168 * time.Hour,
		},
	}
}
