package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbwtech/ovpn-client/common"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify and store an API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				key, err := a.prompt.ReadSecret("API key: ")
				if err != nil {
					return err
				}
				if key == "" {
					return errors.New("no API key entered")
				}

				a.Session.OnAttempt(func(attempt int) {
					if attempt > 1 {
						fmt.Fprintf(cmd.ErrOrStderr(), "Retrying verification (attempt %d)...\n", attempt)
					}
				})
				user, err := a.Session.Verify(cmd.Context(), key)
				if err != nil {
					if errors.Is(err, common.ErrKeyRejected) {
						return errors.New("the API key was rejected")
					}
					return err
				}

				fmt.Fprintf(opts.out, "✓ Logged in as %s (%s)\n", user.Username, user.ServerLocation)
				if a.Secrets.DurableName() == "memory" || a.Secrets.DurableName() == "unavailable" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the key is only kept for this run")
				}
				return nil
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				if err := a.Session.Logout(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
				fmt.Fprintln(opts.out, "Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account of the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(func(a *App) error {
				user, err := a.Authenticate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Username: %s\nLocation: %s\nSecrets:  %s\n",
					user.Username, user.ServerLocation, a.Secrets.DurableName())
				return nil
			})
		},
	}
}
