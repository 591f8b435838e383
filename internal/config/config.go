// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the bridge.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultMaxMessageSize is 25 MB in bytes.
const defaultMaxMessageSize = 26214400

// defaultTimeoutSeconds bounds every provider request.
const defaultTimeoutSeconds = 30

// Config holds the complete application configuration.
type Config struct {
	Nylas   NylasConfig   `yaml:"nylas"`
	Webhook WebhookConfig `yaml:"webhook"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	TLS     TLSConfig     `yaml:"tls"`
	Logging LoggingConfig `yaml:"logging"`
}

// NylasConfig holds provider API configuration.
type NylasConfig struct {
	APIURI         string `yaml:"api_uri"`
	APIKey         string `yaml:"api_key"`
	GrantID        string `yaml:"grant_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WebhookConfig holds the webhook HTTP endpoint configuration.
type WebhookConfig struct {
	Listen              string `yaml:"listen"`
	Path                string `yaml:"path"`
	DownloadAttachments bool   `yaml:"download_attachments"`
}

// SMTPConfig holds the SMTP intake configuration. An empty Listen disables
// the intake.
type SMTPConfig struct {
	Listen         string `yaml:"listen"`
	Domain         string `yaml:"domain"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// TLSConfig holds TLS certificate file paths.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// NylasConfigured returns true if the API key and grant id are set.
func (c *Config) NylasConfigured() bool {
	return c.Nylas.APIKey != "" && c.Nylas.GrantID != ""
}

// SMTPEnabled returns true if the SMTP intake should be started.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Listen != ""
}

// AuthEnabled returns true if both SMTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.SMTP.Username != "" && c.SMTP.Password != ""
}

// Timeout returns the provider request timeout.
func (c *Config) Timeout() time.Duration {
	if c.Nylas.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.Nylas.TimeoutSeconds) * time.Second
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Nylas.APIURI = "https://api.us.nylas.com"
	c.Nylas.TimeoutSeconds = defaultTimeoutSeconds
	c.Webhook.Listen = ":8080"
	c.Webhook.Path = "/webhooks/nylas"
	c.SMTP.Domain = "localhost"
	c.SMTP.MaxMessageSize = defaultMaxMessageSize
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("NYLAS_API_URI"); v != "" {
		c.Nylas.APIURI = v
	}
	if v := os.Getenv("NYLAS_API_KEY"); v != "" {
		c.Nylas.APIKey = v
	}
	if v := os.Getenv("NYLAS_GRANT_ID"); v != "" {
		c.Nylas.GrantID = v
	}
	if v := os.Getenv("NYLAS_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Nylas.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv("WEBHOOK_LISTEN"); v != "" {
		c.Webhook.Listen = v
	}
	if v := os.Getenv("WEBHOOK_PATH"); v != "" {
		c.Webhook.Path = v
	}
	if v := os.Getenv("WEBHOOK_DOWNLOAD_ATTACHMENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Webhook.DownloadAttachments = b
		}
	}

	if v := os.Getenv("SMTP_LISTEN"); v != "" {
		c.SMTP.Listen = v
	}
	if v := os.Getenv("SMTP_DOMAIN"); v != "" {
		c.SMTP.Domain = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_MAX_MESSAGE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SMTP.MaxMessageSize = size
		}
	}

	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
