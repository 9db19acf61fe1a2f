package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rbwtech/ovpn-client/api"
	"github.com/rbwtech/ovpn-client/common"
)

func newServersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List available VPN servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				servers, err := a.API.ListServers(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list servers: %w", err)
				}
				if len(servers) == 0 {
					fmt.Fprintln(opts.out, "No servers available.")
					return nil
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CODE\tNAME\tADDRESS\tUDP\tTCP")
				for _, s := range servers {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", s.Code, s.Name, s.IP, s.UDPPort, s.TCPPort)
				}
				return w.Flush()
			})
		},
	}
}

func newProfilesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage VPN profiles",
	}
	cmd.AddCommand(newProfilesListCmd(opts))
	cmd.AddCommand(newProfilesImportCmd(opts))
	cmd.AddCommand(newProfilesGenerateCmd(opts))
	cmd.AddCommand(newProfilesRemoveCmd(opts))
	return cmd
}

func newProfilesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				profiles := a.Profiles.List()
				if len(profiles) == 0 {
					fmt.Fprintln(opts.out, "No VPN profiles configured.")
					fmt.Fprintf(opts.out, "Use '%s profiles import' or '%s profiles generate' to add one.\n", common.BinaryName, common.BinaryName)
					return nil
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSERVER\tPROTOCOL\tSAVED LOGIN\tLAST USED")
				for _, p := range profiles {
					saved := "No"
					if _, ok, _ := a.Secrets.LoadCredential(p.Name); ok {
						saved = "Yes"
					}
					lastUsed := "-"
					if !p.LastUsed.IsZero() {
						lastUsed = p.LastUsed.Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Server, strings.ToUpper(p.Protocol), saved, lastUsed)
				}
				return w.Flush()
			})
		},
	}
}

func newProfilesImportCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file.ovpn>",
		Short: "Import an OpenVPN configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				p, err := a.Profiles.ImportFile(args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "✓ Imported %s (%s/%s)\n", p.Name, p.Server, p.Protocol)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name (default: file name)")
	return cmd
}

type generateOptions struct {
	username   string
	server     string
	protocol   string
	expiryDays int
}

func newProfilesGenerateCmd(opts *rootOptions) *cobra.Command {
	g := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a profile from a server-issued configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.validate(); err != nil {
				return err
			}
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				apiKey, ok := a.Session.APIKey()
				if !ok {
					return common.ErrNotAuthenticated
				}
				password, err := a.prompt.ReadSecret("VPN password: ")
				if err != nil {
					return err
				}

				req := api.GenerateRequest{
					Username:   g.username,
					Password:   password,
					ServerCode: g.server,
					Protocol:   g.protocol,
				}
				if cmd.Flags().Changed("expiry-days") {
					req.ExpiryDays = &g.expiryDays
				}

				p, err := a.Profiles.Generate(cmd.Context(), a.API, apiKey, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "✓ Created profile %s\n", p.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&g.username, "username", "", "VPN account username")
	cmd.Flags().StringVar(&g.server, "server", "", "server code (see 'servers')")
	cmd.Flags().StringVar(&g.protocol, "protocol", "udp", "udp or tcp")
	cmd.Flags().IntVar(&g.expiryDays, "expiry-days", 0, "account validity in days")
	return cmd
}

func (g *generateOptions) validate() error {
	g.protocol = strings.ToLower(g.protocol)
	switch {
	case g.username == "":
		return errors.New("--username is required")
	case g.server == "":
		return errors.New("--server is required")
	case g.protocol != "udp" && g.protocol != "tcp":
		return fmt.Errorf("protocol must be udp or tcp, got %q", g.protocol)
	case g.expiryDays < 0:
		return errors.New("--expiry-days cannot be negative")
	}
	return nil
}

func newProfilesRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a profile and its saved login",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAuthenticatedApp(cmd.Context(), func(a *App) error {
				if err := a.Profiles.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "✓ Removed %s\n", args[0])
				return nil
			})
		},
	}
}
