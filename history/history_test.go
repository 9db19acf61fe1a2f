package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbwtech/ovpn-client/vpn"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_StartFinishRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	id, err := s.Start(ctx, vpn.SessionInfo{Profile: "sg-udp", Server: "sg", Protocol: "udp", ConnectedAt: start})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	again, err := s.Start(ctx, vpn.SessionInfo{Profile: "sg-udp", Server: "sg", Protocol: "udp", ConnectedAt: start})
	if err != nil || again != id {
		t.Errorf("Start() for the same open connection = %d, %v; want %d", again, err, id)
	}

	end := start.Add(90 * time.Second)
	if err := s.Finish(ctx, id, end, 2000, 5000, "disconnected"); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(Recent()) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Profile != "sg-udp" || e.BytesSent != 2000 || e.BytesReceived != 5000 || e.EndReason != "disconnected" {
		t.Errorf("entry = %+v", e)
	}
	if e.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 1m30s", e.Duration())
	}
}

func TestStore_RecentOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		s.Start(ctx, vpn.SessionInfo{Profile: name, ConnectedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Profile != "third" || entries[1].Profile != "second" {
		t.Errorf("Recent(2) = %+v, want third, second", entries)
	}
	if !entries[0].DisconnectedAt.IsZero() {
		t.Error("open connection has DisconnectedAt set")
	}
}

func TestStore_CloseStale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	s.Start(ctx, vpn.SessionInfo{Profile: "sg-udp", ConnectedAt: start})

	n, err := s.CloseStale(ctx, start.Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("CloseStale() = %d, %v; want 1", n, err)
	}
	entries, _ := s.Recent(ctx, 1)
	if entries[0].EndReason != "dropped" || entries[0].Duration() != time.Minute {
		t.Errorf("entry = %+v", entries[0])
	}

	if n, _ := s.CloseStale(ctx, time.Now()); n != 0 {
		t.Errorf("second CloseStale() = %d, want 0", n)
	}
}

func TestRecorder(t *testing.T) {
	tests := []struct {
		name       string
		transition []vpn.Phase
		wantReason string
	}{
		{"user disconnect", []vpn.Phase{vpn.PhaseDisconnecting, vpn.PhaseIdle}, "disconnected"},
		{"external drop", []vpn.Phase{vpn.PhaseIdle}, "dropped"},
		{"failed disconnect then gone", []vpn.Phase{vpn.PhaseDisconnecting, vpn.PhaseFailed, vpn.PhaseIdle}, "dropped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			r := NewRecorder(s)

			connected := vpn.State{
				Phase:   vpn.PhaseConnected,
				Profile: "sg-udp",
				Session: vpn.SessionInfo{Profile: "sg-udp", ConnectedAt: time.Now(), BytesSent: 10, BytesReceived: 20},
			}
			r.Observe(vpn.State{Phase: vpn.PhaseConnecting, Profile: "sg-udp"}, connected)

			from := connected
			for _, p := range tt.transition {
				to := vpn.State{Phase: p, Profile: "sg-udp"}
				if p == vpn.PhaseDisconnecting {
					to.Session = connected.Session
				}
				r.Observe(from, to)
				from = to
			}

			entries, _ := s.Recent(context.Background(), 1)
			if len(entries) != 1 {
				t.Fatalf("entries = %d, want 1", len(entries))
			}
			e := entries[0]
			if e.EndReason != tt.wantReason {
				t.Errorf("EndReason = %q, want %q", e.EndReason, tt.wantReason)
			}
			if e.DisconnectedAt.IsZero() {
				t.Error("connection left open")
			}
			if e.BytesSent != 10 || e.BytesReceived != 20 {
				t.Errorf("bytes = %d/%d, want 10/20", e.BytesSent, e.BytesReceived)
			}
		})
	}
}
