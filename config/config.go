package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	GitHubToken     string
	PollInterval    time.Duration
	ProbeSize       int
	PageSize        int
	HTTPAddr        string
	LogLevel        string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

// Load loads configuration from environment variables
func (c *Config) Load() error {
	// Set up Viper
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Read .env file if it exists
	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Required fields
	c.GitHubToken = viper.GetString("GITHUB_TOKEN")
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}

	// Optional fields with defaults
	pollSeconds := viper.GetInt("POLL_INTERVAL")
	if pollSeconds < 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %d", pollSeconds)
	}
	if pollSeconds == 0 {
		pollSeconds = 5
	}
	c.PollInterval = time.Duration(pollSeconds) * time.Second

	c.ProbeSize = viper.GetInt("PROBE_SIZE")
	if c.ProbeSize < 0 {
		return fmt.Errorf("PROBE_SIZE must be positive, got %d", c.ProbeSize)
	}
	if c.ProbeSize == 0 {
		c.ProbeSize = 5
	}

	c.PageSize = viper.GetInt("PAGE_SIZE")
	if c.PageSize < 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.PageSize == 0 {
		c.PageSize = 100
	}
	if c.ProbeSize > c.PageSize {
		return fmt.Errorf("PROBE_SIZE (%d) cannot exceed PAGE_SIZE (%d)", c.ProbeSize, c.PageSize)
	}

	c.HTTPAddr = viper.GetString("HTTP_ADDR")
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	c.LogLevel = viper.GetString("LOG_LEVEL")
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.AllowedOrigins = viper.GetStringSlice("ALLOWED_ORIGINS")
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}

	shutdownSeconds := viper.GetInt("SHUTDOWN_TIMEOUT")
	if shutdownSeconds < 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %d", shutdownSeconds)
	}
	if shutdownSeconds == 0 {
		shutdownSeconds = 10
	}
	c.ShutdownTimeout = time.Duration(shutdownSeconds) * time.Second

	return nil
}
