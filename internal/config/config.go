package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/dmorgan81/backdrop/internal/param"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	GenAIKeyName    = "genai_key"
	RemoveBGKeyName = "removebg_key"
)

type Config struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`

	GenAIBaseURL  string `mapstructure:"genai_base_url"`
	EditModel     string `mapstructure:"edit_model"`
	GenerateModel string `mapstructure:"generate_model"`
	RemoveBGURL   string `mapstructure:"removebg_url"`

	GenAIKey         string `mapstructure:"google_ai_api_key"`
	GenAIKeyParam    string `mapstructure:"google_ai_api_key_param"`
	RemoveBGKey      string `mapstructure:"remove_bg_api_key"`
	RemoveBGKeyParam string `mapstructure:"remove_bg_api_key_param"`
}

var defaults = map[string]any{
	"listen_address":   ":8080",
	"log_level":        "info",
	"max_upload_bytes": int64(20 << 20),
	"upstream_timeout": time.Duration(0),
	"genai_base_url":   "https://generativelanguage.googleapis.com/v1beta",
	"edit_model":       "gemini-2.5-flash-image-preview",
	"generate_model":   "imagen-3.0-generate-002",
	"removebg_url":     "https://api.remove.bg/v1.0/removebg",

	"google_ai_api_key":       "",
	"google_ai_api_key_param": "",
	"remove_bg_api_key":       "",
	"remove_bg_api_key_param": "",
}

// Load reads a local .env if present, then layers defaults, the optional
// YAML file at path and the process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("upstream_timeout must not be negative, got %s", c.UpstreamTimeout)
	}
	for key, raw := range map[string]string{"genai_base_url": c.GenAIBaseURL, "removebg_url": c.RemoveBGURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute url: %q", key, raw)
		}
	}
	return nil
}

// Secrets lists the provider credentials. Missing keys are not an error
// here; the provider rejects the call instead.
func (c *Config) Secrets() []param.Source {
	return []param.Source{
		{Name: GenAIKeyName, Value: c.GenAIKey, Path: c.GenAIKeyParam},
		{Name: RemoveBGKeyName, Value: c.RemoveBGKey, Path: c.RemoveBGKeyParam},
	}
}
