package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify maestro configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/maestro/config.yaml
Project-specific overrides can be placed in .maestro.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.max_tokens: %d\n", cfg.Anthropic.MaxTokens)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("ollama.enabled: %t\n", cfg.Ollama.Enabled)
	fmt.Printf("ollama.model: %s\n", cfg.Ollama.Model)
	fmt.Printf("engine.max_concurrency: %d\n", cfg.Engine.MaxConcurrency)
	fmt.Printf("engine.event_buffer: %d\n", cfg.Engine.EventBuffer)
	fmt.Printf("engine.default_strategy: %s\n", cfg.Engine.DefaultStrategy)
	fmt.Printf("cache.ttl: %s\n", cfg.Cache.TTL)
	fmt.Printf("cache.max_items: %d\n", cfg.Cache.MaxItems)
	fmt.Printf("cache.max_mem_mb: %d\n", cfg.Cache.MaxMemMB)
	fmt.Printf("tui.enabled: %t\n", cfg.TUI.Enabled)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
	fmt.Printf("trace.persist: %t\n", cfg.Trace.Persist)
	fmt.Printf("trace.retain_for: %s\n", cfg.Trace.RetainFor)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.max_tokens":
		return strconv.Itoa(cfg.Anthropic.MaxTokens), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "ollama.enabled":
		return strconv.FormatBool(cfg.Ollama.Enabled), nil
	case "ollama.model":
		return cfg.Ollama.Model, nil
	case "engine.max_concurrency":
		return strconv.Itoa(cfg.Engine.MaxConcurrency), nil
	case "engine.event_buffer":
		return strconv.Itoa(cfg.Engine.EventBuffer), nil
	case "engine.default_strategy":
		return cfg.Engine.DefaultStrategy, nil
	case "cache.ttl":
		return cfg.Cache.TTL.String(), nil
	case "cache.max_items":
		return strconv.Itoa(cfg.Cache.MaxItems), nil
	case "cache.max_mem_mb":
		return strconv.Itoa(cfg.Cache.MaxMemMB), nil
	case "tui.enabled":
		return strconv.FormatBool(cfg.TUI.Enabled), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	case "trace.persist":
		return strconv.FormatBool(cfg.Trace.Persist), nil
	case "trace.retain_for":
		return cfg.Trace.RetainFor.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_tokens: %w", err)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "ollama.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for ollama.enabled: %w", err)
		}
		cfg.Ollama.Enabled = b
	case "ollama.model":
		cfg.Ollama.Model = value
	case "engine.max_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_concurrency: %w", err)
		}
		cfg.Engine.MaxConcurrency = n
	case "engine.event_buffer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for event_buffer: %w", err)
		}
		cfg.Engine.EventBuffer = n
	case "engine.default_strategy":
		cfg.Engine.DefaultStrategy = value
	case "cache.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for cache.ttl: %w", err)
		}
		cfg.Cache.TTL = d
	case "cache.max_items":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cache.max_items: %w", err)
		}
		cfg.Cache.MaxItems = n
	case "cache.max_mem_mb":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cache.max_mem_mb: %w", err)
		}
		cfg.Cache.MaxMemMB = n
	case "tui.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for tui.enabled: %w", err)
		}
		cfg.TUI.Enabled = b
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	case "trace.persist":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for trace.persist: %w", err)
		}
		cfg.Trace.Persist = b
	case "trace.retain_for":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for trace.retain_for: %w", err)
		}
		cfg.Trace.RetainFor = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
