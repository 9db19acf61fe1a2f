// Package cli implements the rbw-vpn command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbwtech/ovpn-client/common"
)

// BuildInfo is injected by main from ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configPath string
	verbose    bool
	in         io.Reader
	out        io.Writer
}

// NewRootCmd builds the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	opts := &rootOptions{in: os.Stdin, out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:           common.BinaryName,
		Short:         "RBW-Tech OpenVPN client",
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initLogging(cmd, opts.verbose)
			common.LogDebug("Running %s (%s)", cmd.CommandPath(), build.Version)
			opts.out = cmd.OutOrStdout()
			opts.in = cmd.InOrStdin()
		},
	}
	if build.Commit != "" {
		rootCmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}} (commit %s, built %s)\n", common.BinaryName, build.Commit, build.Date))
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newWhoamiCmd(opts))
	rootCmd.AddCommand(newServersCmd(opts))
	rootCmd.AddCommand(newProfilesCmd(opts))
	rootCmd.AddCommand(newInstallCmd(opts))
	rootCmd.AddCommand(newConnectCmd(opts))
	rootCmd.AddCommand(newDisconnectCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newLogsCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newMonitorCmd(opts))

	return rootCmd
}

// initLogging sends log lines to the log file, and to stderr as well when
// verbose.
func initLogging(cmd *cobra.Command, verbose bool) {
	logLevel := common.LevelInfo
	if verbose {
		logLevel = common.LevelDebug
	}

	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  true,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Could not initialize file logging: %v\n", err)
	}
}

// withApp wires the application for one command and closes it afterwards.
func (o *rootOptions) withApp(fn func(a *App) error) error {
	a, err := NewApp(o.configPath, o.in, o.out)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withAuthenticatedApp additionally verifies the stored API key.
func (o *rootOptions) withAuthenticatedApp(ctx context.Context, fn func(a *App) error) error {
	return o.withApp(func(a *App) error {
		if _, err := a.Authenticate(ctx); err != nil {
			return err
		}
		return fn(a)
	})
}
