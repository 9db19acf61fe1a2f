// Package common provides shared constants, types, and utilities
// used across the RBW VPN client.
package common

// Credentials are the VPN username/password pair handed to a tunnel.
type Credentials struct {
	Username string `cbor:"1,keyasint"`
	Password string `cbor:"2,keyasint"`
}

// CredentialRecord is a remembered credential for one profile.
type CredentialRecord struct {
	ProfileName string
	Credentials
}

// User is the account a verified API key belongs to.
type User struct {
	Username       string `json:"username"`
	ServerLocation string `json:"server_location"`
}

// Urgency maps to the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string, urgency Urgency) error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
