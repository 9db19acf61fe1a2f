// Package main provides the entry point for rbw-vpn, the RBW-Tech OpenVPN
// client.
//
// Features:
//   - API key login with the key kept in the system keyring or an encrypted vault
//   - Profiles imported from files or generated by the licensing server
//   - Saved per-profile logins for one-step reconnects
//   - OpenVPN installation on demand
//   - Live throughput and log monitor in the terminal
//
// Usage:
//
//	rbw-vpn [command] [flags]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbwtech/ovpn-client/cli"
	"github.com/rbwtech/ovpn-client/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	// Cancelled on SIGINT/SIGTERM so blocking operations can unwind.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := cli.NewRootCmd(cli.BuildInfo{
		Version: appVersion,
		Commit:  commitSHA,
		Date:    buildTime,
	})
	err := root.ExecuteContext(ctx)

	stop()
	if err != nil {
		common.LogError("Command failed: %v", err)
	}
	common.CloseLogger()
	if err != nil {
		os.Exit(1)
	}
}
