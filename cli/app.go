package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rbwtech/ovpn-client/api"
	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/config"
	"github.com/rbwtech/ovpn-client/history"
	"github.com/rbwtech/ovpn-client/keyring"
	"github.com/rbwtech/ovpn-client/notify"
	"github.com/rbwtech/ovpn-client/session"
	"github.com/rbwtech/ovpn-client/vpn"
)

// App holds the wired components for one command invocation.
type App struct {
	Config   *config.Config
	Secrets  *keyring.Store
	API      *api.Client
	Session  *session.Session
	Profiles *vpn.ProfileManager
	Tunnel   *vpn.OpenVPNTunnel
	Manager  *vpn.Manager
	History  *history.Store

	prompt  *TerminalPrompt
	closers []io.Closer
	log     common.Logger
}

// NewApp loads configuration from configPath (the default location when
// empty) and wires every component. The tunnel is not touched until Resume.
func NewApp(configPath string, in io.Reader, out io.Writer) (*App, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	configDir, err := common.GetConfigDir()
	if err != nil {
		return nil, err
	}
	dataDir, err := common.GetDataDir()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		prompt: NewTerminalPrompt(in, out),
		log:    common.GetLogger().With("cli"),
	}

	durable, closer, err := keyring.OpenDurable(cfg.SecretBackend, dataDir)
	if err != nil {
		a.log.Warn("Secret store unavailable, keeping secrets in memory only: %v", err)
		durable = nil
	} else {
		a.closers = append(a.closers, closer)
	}
	a.Secrets = keyring.NewStore(durable)

	a.API = api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	a.Session = session.New(a.API, a.Secrets, session.Config{
		Retries:    cfg.VerifyRetries,
		RetryDelay: cfg.VerifyRetryDelay,
	})

	a.Profiles, err = vpn.NewProfileManager(configDir, a.Secrets)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Tunnel = vpn.NewOpenVPNTunnel(a.Profiles, vpn.TunnelOptions{
		Binary:         cfg.OpenVPNPath,
		UsePkexec:      cfg.UsePkexec,
		RunDir:         filepath.Join(dataDir, "run"),
		ConnectTimeout: cfg.ConnectTimeout,
	})

	a.Manager = vpn.NewManager(vpn.Options{
		Tunnel:         a.Tunnel,
		Prerequisite:   vpn.NewSystemPrerequisite(cfg.OpenVPNPath, cfg.InstallCommand),
		Credentials:    a.Secrets,
		Prompt:         a.prompt,
		Gate:           a.Session,
		StatusInterval: cfg.StatusInterval,
		LogInterval:    cfg.LogInterval,
		InstallGrace:   cfg.InstallGrace,
	})

	if cfg.RecordHistory {
		store, err := history.Open(filepath.Join(dataDir, common.HistoryFileName))
		if err != nil {
			a.log.Warn("Connection history disabled: %v", err)
		} else {
			a.History = store
			a.closers = append(a.closers, store)
			a.Manager.OnChange(history.NewRecorder(store).Observe)
		}
	}

	if cfg.ShowNotifications {
		dbusNotifier := notify.NewDBusNotifier()
		a.closers = append(a.closers, dbusNotifier)
		watcher := notify.NewWatcher(notify.Fallback{dbusNotifier, notify.CommandNotifier{}})
		a.Manager.OnChange(watcher.Observe)
	}

	a.Manager.OnChange(func(from, to vpn.State) {
		if to.Phase == vpn.PhaseConnected && from.Phase != vpn.PhaseConnected {
			if err := a.Profiles.MarkUsed(to.Profile); err != nil && !errors.Is(err, common.ErrProfileNotFound) {
				a.log.Warn("Could not update last use of %s: %v", to.Profile, err)
			}
		}
	})

	return a, nil
}

// Resume adopts a running tunnel. When none is running, history rows left
// open by an earlier process are closed.
func (a *App) Resume(ctx context.Context) (bool, error) {
	running, err := a.Manager.Resume(ctx)
	if err != nil {
		return false, err
	}
	if !running && a.History != nil {
		if n, err := a.History.CloseStale(ctx, time.Now()); err != nil {
			a.log.Warn("Could not close stale history rows: %v", err)
		} else if n > 0 {
			a.log.Debug("Closed %d stale history rows", n)
		}
	}
	return running, nil
}

// Authenticate verifies the stored API key.
func (a *App) Authenticate(ctx context.Context) (common.User, error) {
	a.Session.OnAttempt(func(attempt int) {
		if attempt > 1 {
			fmt.Fprintf(os.Stderr, "Retrying verification (attempt %d)...\n", attempt)
		}
	})

	user, err := a.Session.Restore(ctx)
	if errors.Is(err, common.ErrNoStoredKey) {
		return common.User{}, fmt.Errorf("not logged in, run '%s login' first", common.BinaryName)
	}
	return user, err
}

// Close stops background work and releases stores.
func (a *App) Close() {
	if a.Manager != nil {
		a.Manager.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Debug("Close: %v", err)
		}
	}
}
