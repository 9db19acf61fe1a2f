package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/tui"
	"github.com/rbwtech/ovpn-client/vpn"
)

// progressPrinter prints every transition that is not the final outcome.
func progressPrinter(w io.Writer) func(from, to vpn.State) {
	return func(_, to vpn.State) {
		switch to.Phase {
		case vpn.PhaseCheckingPrerequisite, vpn.PhaseInstalling, vpn.PhaseConnecting, vpn.PhaseDisconnecting:
			fmt.Fprintf(w, "  %s\n", to)
		}
	}
}

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the OpenVPN engine if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				a.Manager.OnChange(progressPrinter(cmd.ErrOrStderr()))
				if err := a.Manager.Prepare(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(opts.out, "✓ OpenVPN is installed")
				return nil
			})
		},
	}
}

func newConnectCmd(opts *rootOptions) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "connect <profile>",
		Short: "Connect to a VPN profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withAuthenticatedApp(ctx, func(a *App) error {
				profile, err := a.Profiles.GetByName(args[0])
				if err != nil {
					return err
				}

				running, err := a.Resume(ctx)
				if err != nil {
					return err
				}
				if running {
					return fmt.Errorf("already connected to %s", a.Manager.State().Profile)
				}

				if forget {
					if err := a.Manager.ForgetCredential(profile.Name); err != nil {
						return fmt.Errorf("failed to forget saved login: %w", err)
					}
				}

				a.Manager.OnChange(progressPrinter(cmd.ErrOrStderr()))
				if err := a.Manager.Connect(ctx, profile.Name); err != nil {
					if errors.Is(err, common.ErrPromptCancelled) {
						fmt.Fprintln(opts.out, "Cancelled.")
						return nil
					}
					return err
				}

				info := a.Manager.State().Session
				fmt.Fprintf(opts.out, "✓ Connected to %s (%s/%s)\n", profile.Name, info.Server, strings.ToUpper(info.Protocol))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "ignore and delete the saved login for this profile")
	return cmd
}

func newDisconnectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the active tunnel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(func(a *App) error {
				running, err := a.Resume(ctx)
				if err != nil {
					return err
				}
				if !running {
					fmt.Fprintln(opts.out, "No active connection.")
					return nil
				}

				name := a.Manager.State().Profile
				fmt.Fprintf(opts.out, "Disconnecting from %s...\n", name)
				if err := a.Manager.Disconnect(ctx); err != nil {
					return fmt.Errorf("failed to disconnect: %w", err)
				}
				fmt.Fprintf(opts.out, "✓ Disconnected from %s\n", name)
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				if _, err := a.Resume(cmd.Context()); err != nil {
					return err
				}
				printStatus(opts.out, a.Manager.State())
				return nil
			})
		},
	}
}

func printStatus(w io.Writer, st vpn.State) {
	if st.Phase != vpn.PhaseConnected {
		fmt.Fprintf(w, "Status: %s\n", st)
		return
	}

	info := st.Session
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s\n", st.Phase)
	fmt.Fprintf(tw, "Profile:\t%s\n", info.Profile)
	fmt.Fprintf(tw, "Server:\t%s (%s)\n", info.Server, strings.ToUpper(info.Protocol))
	fmt.Fprintf(tw, "Uptime:\t%s\n", formatDuration(info.Uptime()))
	fmt.Fprintf(tw, "Received:\t%s\n", tui.FormatBytes(info.BytesReceived))
	fmt.Fprintf(tw, "Sent:\t%s\n", tui.FormatBytes(info.BytesSent))
	tw.Flush()
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the tunnel log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				text, err := a.Tunnel.PollLogs(cmd.Context())
				if err != nil {
					return err
				}
				if text == "" {
					fmt.Fprintln(opts.out, "No tunnel log yet.")
					return nil
				}
				fmt.Fprintln(opts.out, tailLines(text, lines))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	return cmd
}

func tailLines(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if n <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				if a.History == nil {
					return errors.New("connection history is disabled (record_history: false)")
				}
				entries, err := a.History.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(opts.out, "No connections recorded.")
					return nil
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tPROFILE\tDURATION\tRECEIVED\tSENT\tEND")
				for _, e := range entries {
					end := e.EndReason
					if e.DisconnectedAt.IsZero() {
						end = "active"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ConnectedAt.Local().Format("2006-01-02 15:04"),
						e.Profile,
						formatDuration(e.Duration()),
						tui.FormatBytes(e.BytesReceived),
						tui.FormatBytes(e.BytesSent),
						end,
					)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch the connection live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(func(a *App) error {
				if _, err := a.Resume(ctx); err != nil {
					return err
				}
				if err := tui.Run(ctx, a.Manager); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})
		},
	}
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
