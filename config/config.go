// Package config provides configuration management for the RBW VPN client.
// It handles loading, saving, and validating application settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rbwtech/ovpn-client/common"
	"gopkg.in/yaml.v3"
)

// Secret backends accepted by SecretBackend.
const (
	BackendAuto    = "auto"
	BackendKeyring = "keyring"
	BackendVault   = "vault"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// APIBaseURL is the licensing server root.
	APIBaseURL string `yaml:"api_base_url"`
	// RequestTimeout bounds one licensing request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// VerifyRetries is how many extra attempts a transient verification failure gets.
	VerifyRetries int `yaml:"verify_retries"`
	// VerifyRetryDelay is the fixed pause between verification attempts.
	VerifyRetryDelay time.Duration `yaml:"verify_retry_delay"`

	// StatusInterval is the tunnel status poll cadence (1s to 3s).
	StatusInterval time.Duration `yaml:"status_interval"`
	// LogInterval is the tunnel log poll cadence.
	LogInterval time.Duration `yaml:"log_interval"`
	// InstallGrace keeps the install progress visible after completion.
	InstallGrace time.Duration `yaml:"install_grace"`
	// ConnectTimeout bounds the tunnel handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// OpenVPNPath is the tunnel engine binary.
	OpenVPNPath string `yaml:"openvpn_path"`
	// UsePkexec runs the tunnel engine through pkexec.
	UsePkexec bool `yaml:"use_pkexec"`
	// InstallCommand installs the tunnel engine when it is missing.
	InstallCommand []string `yaml:"install_command"`

	// SecretBackend selects the durable secret tier: auto, keyring or vault.
	SecretBackend string `yaml:"secret_backend"`

	// ShowNotifications enables desktop notifications for connection events.
	ShowNotifications bool `yaml:"show_notifications"`
	// RecordHistory stores finished connections in the history database.
	RecordHistory bool `yaml:"record_history"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:        common.DefaultAPIBaseURL,
		RequestTimeout:    common.RequestTimeout,
		VerifyRetries:     common.VerifyRetries,
		VerifyRetryDelay:  common.VerifyRetryDelay,
		StatusInterval:    common.StatusInterval,
		LogInterval:       common.LogInterval,
		InstallGrace:      common.InstallGracePeriod,
		ConnectTimeout:    common.ConnectionTimeout,
		OpenVPNPath:       "openvpn",
		UsePkexec:         true,
		InstallCommand:    []string{"pkexec", "apt-get", "install", "-y", "openvpn"},
		SecretBackend:     BackendAuto,
		ShowNotifications: true,
		RecordHistory:     true,
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(configPath); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom reads the configuration at path. Fields missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	config.validate()
	return config, nil
}

// validate replaces out-of-range values with defaults.
func (c *Config) validate() {
	def := DefaultConfig()

	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.VerifyRetries < 0 || c.VerifyRetries > common.VerifyRetries {
		c.VerifyRetries = def.VerifyRetries
	}
	if c.VerifyRetryDelay < common.VerifyRetryDelay {
		c.VerifyRetryDelay = common.VerifyRetryDelay
	}
	if c.StatusInterval < time.Second || c.StatusInterval > 3*time.Second {
		c.StatusInterval = def.StatusInterval
	}
	if c.LogInterval <= 0 {
		c.LogInterval = def.LogInterval
	}
	if c.InstallGrace < common.MinInstallGracePeriod {
		c.InstallGrace = common.MinInstallGracePeriod
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.OpenVPNPath == "" {
		c.OpenVPNPath = def.OpenVPNPath
	}
	if len(c.InstallCommand) == 0 {
		c.InstallCommand = def.InstallCommand
	}
	switch c.SecretBackend {
	case BackendAuto, BackendKeyring, BackendVault:
	default:
		c.SecretBackend = BackendAuto
	}
}

// Save saves the configuration to the default file.
func (c *Config) Save() error {
	configPath, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	return nil
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting config directory: %w", err)
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}
