package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.VerifyRetries != 2 {
		t.Errorf("VerifyRetries = %v, want 2", cfg.VerifyRetries)
	}
	if cfg.VerifyRetryDelay != 2*time.Second {
		t.Errorf("VerifyRetryDelay = %v, want 2s", cfg.VerifyRetryDelay)
	}
	if cfg.StatusInterval < time.Second || cfg.StatusInterval > 3*time.Second {
		t.Errorf("StatusInterval = %v, want within 1s..3s", cfg.StatusInterval)
	}
	if cfg.InstallGrace < 500*time.Millisecond {
		t.Errorf("InstallGrace = %v, want >= 500ms", cfg.InstallGrace)
	}
	if cfg.SecretBackend != BackendAuto {
		t.Errorf("SecretBackend = %v, want %v", cfg.SecretBackend, BackendAuto)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.APIBaseURL = "https://example.test/api"
	cfg.VerifyRetryDelay = 3 * time.Second
	cfg.SecretBackend = BackendVault

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("LoadFrom() = %+v, want %+v", got, cfg)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("status_interval: 1s\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.StatusInterval != time.Second {
		t.Errorf("StatusInterval = %v, want 1s", cfg.StatusInterval)
	}
	if cfg.OpenVPNPath != "openvpn" {
		t.Errorf("OpenVPNPath = %q, want default", cfg.OpenVPNPath)
	}
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("theme: dark\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should reject unknown fields")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		check func(*Config) bool
	}{
		{
			name:  "status interval above range",
			edit:  func(c *Config) { c.StatusInterval = 10 * time.Second },
			check: func(c *Config) bool { return c.StatusInterval == DefaultConfig().StatusInterval },
		},
		{
			name:  "grace below minimum",
			edit:  func(c *Config) { c.InstallGrace = 100 * time.Millisecond },
			check: func(c *Config) bool { return c.InstallGrace == 500*time.Millisecond },
		},
		{
			name:  "unknown backend",
			edit:  func(c *Config) { c.SecretBackend = "plaintext" },
			check: func(c *Config) bool { return c.SecretBackend == BackendAuto },
		},
		{
			name:  "negative retries",
			edit:  func(c *Config) { c.VerifyRetries = -1 },
			check: func(c *Config) bool { return c.VerifyRetries == 2 },
		},
		{
			name:  "too many retries",
			edit:  func(c *Config) { c.VerifyRetries = 5 },
			check: func(c *Config) bool { return c.VerifyRetries == 2 },
		},
		{
			name:  "fewer retries kept",
			edit:  func(c *Config) { c.VerifyRetries = 1 },
			check: func(c *Config) bool { return c.VerifyRetries == 1 },
		},
		{
			name:  "short retry delay",
			edit:  func(c *Config) { c.VerifyRetryDelay = 500 * time.Millisecond },
			check: func(c *Config) bool { return c.VerifyRetryDelay == 2*time.Second },
		},
		{
			name:  "longer retry delay kept",
			edit:  func(c *Config) { c.VerifyRetryDelay = 5 * time.Second },
			check: func(c *Config) bool { return c.VerifyRetryDelay == 5*time.Second },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			cfg.validate()
			if !tt.check(cfg) {
				t.Errorf("validate() left %+v", cfg)
			}
		})
	}
}
