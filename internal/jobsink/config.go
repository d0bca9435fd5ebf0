package jobsink

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the jobsink configuration file
type Config struct {
	Listen    string          `yaml:"listen"`
	APIKeys   []APIKey        `yaml:"api_keys"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	TLS       TLSConfig       `yaml:"tls"`
	LogLevel  string          `yaml:"log_level"`
	LogJSON   bool            `yaml:"log_json"`
}

// APIKey is a named bcrypt hash of an accepted bearer key
type APIKey struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

// RateLimitConfig bounds requests per caller. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// TLSConfig enables HTTPS when CertFile is set
type TLSConfig struct {
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	CAFile            string `yaml:"ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
	SelfSigned        bool   `yaml:"self_signed"` // generate cert_file/key_file when missing
}

// Enabled reports whether the server should serve HTTPS
func (t TLSConfig) Enabled() bool {
	return t.CertFile != ""
}

// DefaultConfig returns the configuration used without a file
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8088",
		LogLevel: "info",
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
	}
}

// LoadConfig loads configuration from a YAML file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the server cannot use
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	names := make(map[string]bool)
	for i, k := range c.APIKeys {
		if k.Name == "" {
			return fmt.Errorf("api_keys[%d]: name is required", i)
		}
		if k.Hash == "" {
			return fmt.Errorf("api_keys[%d] (%s): hash is required", i, k.Name)
		}
		if names[k.Name] {
			return fmt.Errorf("api_keys[%d]: duplicate name %q", i, k.Name)
		}
		names[k.Name] = true
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1")
	}
	if c.TLS.Enabled() && c.TLS.KeyFile == "" {
		return fmt.Errorf("tls.key_file is required with tls.cert_file")
	}
	if c.TLS.RequireClientCert && c.TLS.CAFile == "" {
		return fmt.Errorf("tls.ca_file is required to verify client certificates")
	}
	return nil
}
