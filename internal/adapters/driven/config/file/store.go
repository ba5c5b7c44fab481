// Package file loads application configuration from a TOML file under the
// user's home directory, overlaid with environment variables. The file holds
// the stable app-registration settings; the environment carries secrets
// (Twilio credentials) and per-invocation overrides.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	Gateway GatewayConfig `toml:"gateway"`
	Twilio  TwilioConfig  `toml:"twilio"`
}

// AuthConfig holds the Microsoft identity platform settings.
type AuthConfig struct {
	ClientID string `toml:"client_id" envconfig:"RELAY_CLIENT_ID"`
	// TenantID is the directory tenant; empty uses the "common" endpoint.
	TenantID string `toml:"tenant_id" envconfig:"RELAY_TENANT_ID"`
	// Mode forces a sign-in flow ("browser" or "device"); empty lets the
	// environment probe decide.
	Mode string `toml:"mode" envconfig:"RELAY_AUTH_MODE"`
	// RedirectPort is the loopback port for the browser flow.
	RedirectPort int      `toml:"redirect_port" envconfig:"RELAY_REDIRECT_PORT"`
	Scopes       []string `toml:"scopes"`
}

// GatewayConfig holds the SMS HTTP gateway settings.
type GatewayConfig struct {
	ListenAddr string `toml:"listen_addr" envconfig:"RELAY_GATEWAY_ADDR"`
}

// TwilioConfig holds the outbound SMS gateway credentials. These normally
// come from the environment, not the file.
type TwilioConfig struct {
	AccountSID string `toml:"account_sid" envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `toml:"auth_token" envconfig:"TWILIO_AUTH_TOKEN"`
	FromNumber string `toml:"from_number" envconfig:"TWILIO_PHONE_NUMBER"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".relay", "config.toml"), nil
}

// Load reads the config file (a missing file is not an error) and applies
// the environment overlay on top. An empty path uses the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No file yet; environment alone must carry the settings.
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment variables override file values when set.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if cfg.Gateway.ListenAddr == "" {
		cfg.Gateway.ListenAddr = ":8080"
	}

	return cfg, nil
}

// Save writes the config back to disk, creating the directory when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
