// Package common provides shared constants, types, and utilities
// used across the RBW VPN client.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "io.rbwtech.ovpn"
	// AppName is the display name of the application.
	AppName = "RBW-Tech OVPN"
	// BinaryName is the name of the command-line executable.
	BinaryName = "rbw-vpn"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "rbw-vpn"
	// KeyringService is the service name used in the system keyring.
	KeyringService = "rbw-vpn"
)

// File names used by the application.
const (
	ProfilesFileName = "profiles.yaml"
	ConfigFileName   = "config.yaml"
	VaultFileName    = "vault.db"
	HistoryFileName  = "history.db"
	LogFileName      = "rbw-vpn.log"
)

// Secret scopes used by the Secret Store.
const (
	// ScopeAPIKey holds the licensing API key.
	ScopeAPIKey = "api_key"
	// ScopeCredentialPrefix prefixes the per-profile VPN credential scope.
	ScopeCredentialPrefix = "credential:"
)

// InstallCompleteMarker is the progress event that terminates an install stream.
const InstallCompleteMarker = "Complete!"

// TelemetryCapacity is the number of throughput samples kept per connection.
const TelemetryCapacity = 60

// Default timeouts and intervals.
const (
	// ConnectionTimeout is the maximum time to wait for a tunnel handshake.
	ConnectionTimeout = 30 * time.Second
	// RequestTimeout bounds a single licensing API request.
	RequestTimeout = 15 * time.Second
	// VerifyRetries is the number of additional verification attempts after a transient failure.
	VerifyRetries = 2
	// VerifyRetryDelay is the fixed delay between verification attempts.
	VerifyRetryDelay = 2 * time.Second
	// StatusInterval is how often the tunnel status is polled.
	StatusInterval = 2 * time.Second
	// LogInterval is how often the tunnel log is polled.
	LogInterval = 3 * time.Second
	// InstallGracePeriod keeps the Installing state visible after completion.
	InstallGracePeriod = 750 * time.Millisecond
	// MinInstallGracePeriod is the lower bound for InstallGracePeriod.
	MinInstallGracePeriod = 500 * time.Millisecond
)

// DefaultAPIBaseURL is the licensing server used when none is configured.
const DefaultAPIBaseURL = "https://ovpn.rbwtech.io/api"
