// Package config loads the settings shared by the efs commands. Values come
// from a YAML file, then a dotenv file, then `EFS_` environment variables,
// each overriding the last.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	. "github.com/weberc2/easyfs/pkg/types"
)

const (
	envVarPrefix = "EFS"
	appName      = "efs"
)

type Config struct {
	Image             string `envconfig:"EFS_IMAGE"               yaml:"image"`
	TotalBlocks       Block  `envconfig:"EFS_TOTAL_BLOCKS"        yaml:"totalBlocks"`
	InodeBitmapBlocks Block  `envconfig:"EFS_INODE_BITMAP_BLOCKS" yaml:"inodeBitmapBlocks"`
	CacheCapacity     int    `envconfig:"EFS_CACHE_CAPACITY"      yaml:"cacheCapacity"`
	LogLevel          string `envconfig:"EFS_LOG_LEVEL"           yaml:"logLevel"`
	Addr              string `envconfig:"EFS_ADDR"                yaml:"addr"`
	Bucket            string `envconfig:"EFS_BUCKET"              yaml:"bucket"`
	Key               string `envconfig:"EFS_KEY"                 yaml:"key"`
	Gzip              bool   `envconfig:"EFS_GZIP"                yaml:"gzip"`
}

// Default returns the configuration used when no source sets a field.
// 32768 blocks is a 16 MiB image.
func Default() Config {
	return Config{
		TotalBlocks:       32768,
		InodeBitmapBlocks: 1,
		CacheCapacity:     16,
		LogLevel:          "info",
		Addr:              "127.0.0.1:8080",
	}
}

type LoadParams struct {
	// ConfigFile defaults to `$EFS_CONFIG_FILE`, then
	// `$HOME/.config/efs.yaml`. A missing file is not an error.
	ConfigFile string

	// EnvFile defaults to `.env`. A missing file is not an error.
	EnvFile string
}

func Load(params LoadParams) (*Config, error) {
	configFile := params.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating config file: %w", err)
		}
		configFile = filepath.Join(home, ".config", appName+".yaml")
	}

	c := Default()
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file `%s`: %w", configFile, err)
	}

	envFile := params.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Load never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading env file `%s`: %w", envFile, err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

// Level parses `LogLevel`.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("parsing log level `%s`: %w", c.LogLevel, err)
	}
	return level, nil
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Image == "" {
			return "image", "IMAGE"
		}
		if c.TotalBlocks < 1 {
			return "totalBlocks", "TOTAL_BLOCKS"
		}
		if c.InodeBitmapBlocks < 1 {
			return "inodeBitmapBlocks", "INODE_BITMAP_BLOCKS"
		}
		if c.CacheCapacity < 1 {
			return "cacheCapacity", "CACHE_CAPACITY"
		}
		if c.Addr == "" {
			return "addr", "ADDR"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid configuration: logLevel / %s_LOG_LEVEL: %w", envVarPrefix, err)
	}
	return nil
}

// ValidateRemote checks the fields the object store commands need.
func (c *Config) ValidateRemote() error {
	if c.Bucket == "" {
		return fmt.Errorf("missing required configuration: bucket / %s_BUCKET", envVarPrefix)
	}
	if c.Key == "" {
		return fmt.Errorf("missing required configuration: key / %s_KEY", envVarPrefix)
	}
	return nil
}
