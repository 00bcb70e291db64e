package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config of the product service
type Config struct {
	Addr    string   `yaml:"addr"`
	DataDir string   `yaml:"data_dir"`
	Workers int      `yaml:"workers"`
	S3      S3       `yaml:"s3"`
	Timeout Timeouts `yaml:"timeout"`
	Logging Logging  `yaml:"logging"`
}

// S3 selects a bucket as the product source instead of DataDir
type S3 struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// Timeouts of the HTTP server
type Timeouts struct {
	Read  time.Duration `yaml:"read"`
	Write time.Duration `yaml:"write"`
	Idle  time.Duration `yaml:"idle"`
}

// Logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Addr:    "0.0.0.0:8081",
		DataDir: "./data",
		Workers: 1,
		S3: S3{
			Region: "us-east-1",
		},
		Timeout: Timeouts{
			Read:  15 * time.Second,
			Write: 60 * time.Second,
			Idle:  60 * time.Second,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, err := config.LogLevel(); err != nil {
		return nil, err
	}
	return config, nil
}

// LogLevel maps Logging.Level to logrus
func (c *Config) LogLevel() (logrus.Level, error) {
	levels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	level, ok := levels[c.Logging.Level]
	if !ok {
		return 0, fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return level, nil
}
