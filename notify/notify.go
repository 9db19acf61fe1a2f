// Package notify sends desktop notifications for connection events.
package notify

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/vpn"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	notifyCall = busName + ".Notify"
)

// Icons per event.
const (
	iconConnected    = "network-vpn"
	iconDisconnected = "network-vpn-disconnected"
	iconError        = "network-vpn-error"
)

// DBusNotifier talks to the freedesktop notification service on the
// session bus. The connection is opened lazily on first use.
type DBusNotifier struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	timeout int32 // milliseconds, -1 for server default
}

// NewDBusNotifier creates a notifier with the server's default timeout.
func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{timeout: -1}
}

// Notify shows a notification.
func (n *DBusNotifier) Notify(title, message string, urgency common.Urgency) error {
	return n.send(title, message, iconFor(urgency), urgency)
}

func (n *DBusNotifier) send(title, message, icon string, urgency common.Urgency) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("connect session bus: %w", err)
		}
		n.conn = conn
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(urgency)),
	}
	call := n.conn.Object(busName, objectPath).Call(notifyCall, 0,
		common.AppName, uint32(0), icon, title, message, []string{}, hints, n.timeout)
	return call.Err
}

// Close releases the bus connection.
func (n *DBusNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

// CommandNotifier shows notifications using notify-send.
type CommandNotifier struct{}

// Notify shows a notification.
func (CommandNotifier) Notify(title, message string, urgency common.Urgency) error {
	cmd := exec.Command("notify-send",
		"--app-name="+common.AppName,
		"--icon="+iconFor(urgency),
		"--urgency="+urgencyName(urgency),
		title,
		message,
	)
	return cmd.Run()
}

// Fallback tries each notifier in turn until one succeeds.
type Fallback []common.Notifier

// Notify shows a notification.
func (f Fallback) Notify(title, message string, urgency common.Urgency) error {
	var err error
	for _, n := range f {
		if err = n.Notify(title, message, urgency); err == nil {
			return nil
		}
	}
	return err
}

func iconFor(u common.Urgency) string {
	switch u {
	case common.UrgencyCritical:
		return iconError
	case common.UrgencyLow:
		return iconDisconnected
	default:
		return iconConnected
	}
}

func urgencyName(u common.Urgency) string {
	switch u {
	case common.UrgencyCritical:
		return "critical"
	case common.UrgencyLow:
		return "low"
	default:
		return "normal"
	}
}

// Watcher turns orchestrator transitions into notifications.
type Watcher struct {
	notifier common.Notifier
	log      common.Logger
}

// NewWatcher creates a watcher using notifier.
func NewWatcher(notifier common.Notifier) *Watcher {
	return &Watcher{notifier: notifier, log: common.GetLogger().With("notify")}
}

// Observe is registered with vpn.Manager.OnChange.
func (w *Watcher) Observe(from, to vpn.State) {
	title, message, urgency, ok := Message(from, to)
	if !ok {
		return
	}
	if err := w.notifier.Notify(title, message, urgency); err != nil {
		w.log.Debug("Error showing notification: %v", err)
	}
}

// Message returns the notification for a transition, if it deserves one.
func Message(from, to vpn.State) (title, message string, urgency common.Urgency, ok bool) {
	switch {
	case to.Phase == vpn.PhaseConnected && from.Phase != vpn.PhaseConnected:
		return "VPN Connected", "Connected to " + to.Profile, common.UrgencyNormal, true
	case to.Phase == vpn.PhaseFailed:
		return "Connection Error", to.Reason, common.UrgencyCritical, true
	case to.Phase == vpn.PhaseIdle && from.Phase == vpn.PhaseConnected:
		return "VPN Connection Lost", "The tunnel to " + from.Profile + " went down", common.UrgencyCritical, true
	case to.Phase == vpn.PhaseIdle && from.Phase == vpn.PhaseDisconnecting:
		return "VPN Disconnected", "Disconnected from " + from.Profile, common.UrgencyLow, true
	}
	return "", "", 0, false
}
