// Package common provides shared constants, types, and utilities
// used across the RBW VPN client.
package common

import "errors"

// Sentinel errors for client operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Connection errors.
	ErrBusy             = errors.New("another connection operation is in progress")
	ErrNotConnected     = errors.New("no active connection")
	ErrNotAuthenticated = errors.New("no verified session")
	ErrPromptCancelled  = errors.New("credential prompt cancelled")
	ErrTimeout          = errors.New("operation timed out")

	// Verification errors.
	ErrKeyRejected            = errors.New("invalid API key")
	ErrTransient              = errors.New("temporary network failure")
	ErrVerificationInProgress = errors.New("verification already in progress")
	ErrAlreadyAttempted       = errors.New("stored key already verified this session")
	ErrNoStoredKey            = errors.New("no stored API key")

	// Prerequisite errors.
	ErrInstallInProgress = errors.New("prerequisite installation already in progress")
	ErrInstallIncomplete = errors.New("installer finished without reporting completion")

	// Secret storage errors.
	ErrNotFound    = errors.New("secret not found")
	ErrUnavailable = errors.New("secret backend unavailable")

	// Profile errors.
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidConfig   = errors.New("invalid configuration file")
	ErrDuplicateName   = errors.New("profile name already exists")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

// InstallError reports that the prerequisite could not be made ready.
// It is fatal to the current connect attempt only.
type InstallError struct {
	Err error
}

func (e *InstallError) Error() string {
	return "prerequisite setup failed: " + e.Err.Error()
}

func (e *InstallError) Unwrap() error { return e.Err }

// ConnectError reports a failed tunnel connect for a profile.
type ConnectError struct {
	Profile string
	Err     error
}

func (e *ConnectError) Error() string {
	return "connect " + e.Profile + ": " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DisconnectError reports a failed tunnel teardown. The tunnel state is unknown
// until the next status poll.
type DisconnectError struct {
	Err error
}

func (e *DisconnectError) Error() string {
	return "disconnect: " + e.Err.Error()
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// StoreError reports a persistence failure on one secret tier.
// Storage failures degrade but never block session handling.
type StoreError struct {
	Tier string
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return e.Tier + " " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }
