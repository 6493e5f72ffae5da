// Package config provides configuration for the lending gateway.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`

	// Agent runtime
	Region       string        `yaml:"region"`
	AgentARN     string        `yaml:"agent_arn"`
	AgentBaseURL string        `yaml:"agent_base_url"`
	AgentTimeout time.Duration `yaml:"agent_timeout"`
	Mode         string        `yaml:"mode"`

	// Document-store function
	FilesLambdaARN string        `yaml:"files_lambda_arn"`
	LambdaTimeout  time.Duration `yaml:"lambda_timeout"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Stream reassembly
	CarryPartialObjects bool `yaml:"carry_partial_objects"`

	// WebSocket settings
	PingInterval   time.Duration `yaml:"ws_ping_interval"`
	WriteTimeout   time.Duration `yaml:"ws_write_timeout"`
	ReadTimeout    time.Duration `yaml:"ws_read_timeout"`
	MaxMessageSize int64         `yaml:"ws_max_message_size"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:       8080,
		Region:         "ap-south-1",
		AgentTimeout:   600 * time.Second,
		LambdaTimeout:  30 * time.Second,
		DatabaseURL:    "file:lending.db?cache=shared&mode=rwc",
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 65536,
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.Region = getEnv("AWS_REGION", cfg.Region)
	cfg.AgentARN = getEnv("BEDROCK_AGENT_ARN", cfg.AgentARN)
	cfg.AgentBaseURL = getEnv("AGENTCORE_BASE_URL", cfg.AgentBaseURL)
	cfg.AgentTimeout = getEnvMillis("AGENT_TIMEOUT_MS", cfg.AgentTimeout)
	cfg.Mode = getEnv("LENDING_MODE", cfg.Mode)
	cfg.FilesLambdaARN = getEnv("FILES_LAMBDA_ARN", cfg.FilesLambdaARN)
	cfg.LambdaTimeout = getEnvMillis("LAMBDA_TIMEOUT_MS", cfg.LambdaTimeout)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CarryPartialObjects = getEnvBool("CARRY_PARTIAL_OBJECTS", cfg.CarryPartialObjects)
	cfg.PingInterval = getEnvMillis("WS_PING_INTERVAL_MS", cfg.PingInterval)
	cfg.WriteTimeout = getEnvMillis("WS_WRITE_TIMEOUT_MS", cfg.WriteTimeout)
	cfg.ReadTimeout = getEnvMillis("WS_READ_TIMEOUT_MS", cfg.ReadTimeout)
	cfg.MaxMessageSize = int64(getEnvInt("WS_MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
