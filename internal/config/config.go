package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultPath         = "blogo.yaml"
	DefaultAddr         = ":8080"
	DefaultDatabasePath = "./blogo.db"
	DefaultImagesDir    = "./images"

	envPrefix = "BLOGO_"
)

type Config struct {
	Addr     string         `koanf:"addr"`
	LogLevel string         `koanf:"log_level"`
	BlogURL  string         `koanf:"blog_url"`
	Database DatabaseConfig `koanf:"database"`
	Images   ImagesConfig   `koanf:"images"`
	Github   GithubConfig   `koanf:"github"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type ImagesConfig struct {
	Dir     string `koanf:"dir"`
	MaxSize int64  `koanf:"max_size"`
}

type GithubConfig struct {
	Owner         string `koanf:"owner"`
	Repo          string `koanf:"repo"`
	Token         string `koanf:"token"`
	WebhookSecret string `koanf:"webhook_secret"`
}

// Load reads the YAML file at path, when it exists, then environment variables.
// Environment variables win. Nested keys use a double underscore, so
// BLOGO_DATABASE__PATH sets database.path and BLOGO_LOG_LEVEL sets log_level.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = zerolog.InfoLevel.String()
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Images.Dir == "" {
		c.Images.Dir = DefaultImagesDir
	}
	if c.Images.MaxSize <= 0 {
		c.Images.MaxSize = domain.DefaultMaxImageSize
	}
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// HasSource reports whether a GitHub repository to sync posts from is configured.
func (c *Config) HasSource() bool {
	return c.Github.Owner != "" && c.Github.Repo != ""
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if (c.Github.Owner == "") != (c.Github.Repo == "") {
		return fmt.Errorf("github.owner and github.repo must be set together")
	}
	if c.Github.WebhookSecret != "" && !c.HasSource() {
		return fmt.Errorf("github.webhook_secret requires github.owner and github.repo")
	}
	return nil
}
