package notify

import (
	"errors"
	"testing"

	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/vpn"
)

type captureNotifier struct {
	titles []string
	err    error
}

func (c *captureNotifier) Notify(title, message string, urgency common.Urgency) error {
	c.titles = append(c.titles, title)
	return c.err
}

func TestMessage(t *testing.T) {
	connected := vpn.State{Phase: vpn.PhaseConnected, Profile: "sg-udp"}

	tests := []struct {
		name        string
		from, to    vpn.State
		wantTitle   string
		wantUrgency common.Urgency
		wantOK      bool
	}{
		{"connected", vpn.State{Phase: vpn.PhaseConnecting}, connected, "VPN Connected", common.UrgencyNormal, true},
		{"failed", vpn.State{Phase: vpn.PhaseConnecting}, vpn.State{Phase: vpn.PhaseFailed, Reason: "boom"}, "Connection Error", common.UrgencyCritical, true},
		{"dropped", connected, vpn.State{Phase: vpn.PhaseIdle}, "VPN Connection Lost", common.UrgencyCritical, true},
		{"disconnected", vpn.State{Phase: vpn.PhaseDisconnecting, Profile: "sg-udp"}, vpn.State{Phase: vpn.PhaseIdle}, "VPN Disconnected", common.UrgencyLow, true},
		{"connecting", vpn.State{Phase: vpn.PhaseIdle}, vpn.State{Phase: vpn.PhaseConnecting}, "", 0, false},
		{"prompt cancelled", vpn.State{Phase: vpn.PhaseAwaitingCredentials}, vpn.State{Phase: vpn.PhaseIdle}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, _, urgency, ok := Message(tt.from, tt.to)
			if ok != tt.wantOK || title != tt.wantTitle || urgency != tt.wantUrgency {
				t.Errorf("Message() = %q, %v, %v; want %q, %v, %v", title, urgency, ok, tt.wantTitle, tt.wantUrgency, tt.wantOK)
			}
		})
	}
}

func TestWatcher_Observe(t *testing.T) {
	c := &captureNotifier{}
	w := NewWatcher(c)

	w.Observe(vpn.State{Phase: vpn.PhaseIdle}, vpn.State{Phase: vpn.PhaseConnecting})
	w.Observe(vpn.State{Phase: vpn.PhaseConnecting}, vpn.State{Phase: vpn.PhaseConnected, Profile: "sg-udp"})

	if len(c.titles) != 1 || c.titles[0] != "VPN Connected" {
		t.Errorf("notifications = %v, want [VPN Connected]", c.titles)
	}
}

func TestFallback(t *testing.T) {
	broken := &captureNotifier{err: errors.New("no bus")}
	working := &captureNotifier{}

	if err := (Fallback{broken, working}).Notify("t", "m", common.UrgencyNormal); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
	if len(working.titles) != 1 {
		t.Error("fallback notifier not used")
	}

	if err := (Fallback{broken}).Notify("t", "m", common.UrgencyNormal); err == nil {
		t.Error("Notify() with only failing notifiers returned nil")
	}
}

func TestUrgencyName(t *testing.T) {
	tests := []struct {
		urgency common.Urgency
		want    string
	}{
		{common.UrgencyLow, "low"},
		{common.UrgencyNormal, "normal"},
		{common.UrgencyCritical, "critical"},
	}
	for _, tt := range tests {
		if got := urgencyName(tt.urgency); got != tt.want {
			t.Errorf("urgencyName(%d) = %v, want %v", tt.urgency, got, tt.want)
		}
	}
}
