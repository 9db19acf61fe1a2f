// Package common provides shared constants, types, utilities, and interfaces
// used throughout the RBW VPN client.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: timeouts, poll intervals, secret scopes and file names
//   - Errors: sentinel errors and typed errors (InstallError, ConnectError,
//     DisconnectError, StoreError) carrying the human-readable failure reason
//   - Interfaces: credentials, the verified user and notification delivery
//   - Logger: levelled logging with file rotation and per-component prefixes
//   - Utils: XDG-style directory helpers and secret redaction
//
// # Usage
//
//	import "github.com/rbwtech/ovpn-client/common"
//
//	log := common.GetLogger().With("vpn")
//	log.Info("Connecting to %s", profileName)
//
//	if errors.Is(err, common.ErrBusy) {
//	    // a connect or disconnect is already running
//	}
package common
