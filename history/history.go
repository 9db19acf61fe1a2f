// Package history records finished VPN connections in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rbwtech/ovpn-client/common"
	"github.com/rbwtech/ovpn-client/vpn"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Entry is one connection.
type Entry struct {
	ID             int64
	Profile        string
	Server         string
	Protocol       string
	ConnectedAt    time.Time
	DisconnectedAt time.Time // zero while the connection is open
	BytesSent      uint64
	BytesReceived  uint64
	EndReason      string
}

// Duration returns how long the connection lasted, or has lasted so far.
func (e Entry) Duration() time.Duration {
	if e.DisconnectedAt.IsZero() {
		return time.Since(e.ConnectedAt)
	}
	return e.DisconnectedAt.Sub(e.ConnectedAt)
}

// Store wraps SQLite access for connection history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS connections (
			id INTEGER PRIMARY KEY,
			profile TEXT NOT NULL,
			server TEXT NOT NULL,
			protocol TEXT NOT NULL,
			connected_at TEXT NOT NULL,
			disconnected_at TEXT,
			bytes_sent INTEGER NOT NULL DEFAULT 0,
			bytes_received INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_connections_connected_at ON connections(connected_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Start records an open connection and returns its id. A connection that
// is already open with the same profile and start time is reused, so a
// tunnel adopted by a later process keeps its row.
func (s *Store) Start(ctx context.Context, info vpn.SessionInfo) (int64, error) {
	connectedAt := formatTime(info.ConnectedAt)

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM connections WHERE profile = ? AND connected_at = ? AND disconnected_at IS NULL`,
		info.Profile, connectedAt,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (profile, server, protocol, connected_at) VALUES (?, ?, ?, ?)`,
		info.Profile, info.Server, info.Protocol, connectedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Finish closes the connection id.
func (s *Store) Finish(ctx context.Context, id int64, at time.Time, sent, received uint64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE connections SET disconnected_at = ?, bytes_sent = ?, bytes_received = ?, end_reason = ? WHERE id = ?`,
		formatTime(at), int64(sent), int64(received), reason, id,
	)
	return err
}

// CloseStale marks every open connection as dropped. It is used when no
// tunnel is running, so rows left open by an earlier process get closed.
func (s *Store) CloseStale(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE connections SET disconnected_at = ?, end_reason = 'dropped' WHERE disconnected_at IS NULL`,
		formatTime(at),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Recent returns up to limit connections, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile, server, protocol, connected_at, disconnected_at, bytes_sent, bytes_received, end_reason
		 FROM connections ORDER BY connected_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			connectedAt    string
			disconnectedAt sql.NullString
			sent, received int64
		)
		if err := rows.Scan(&e.ID, &e.Profile, &e.Server, &e.Protocol, &connectedAt, &disconnectedAt, &sent, &received, &e.EndReason); err != nil {
			return nil, err
		}
		if e.ConnectedAt, err = time.Parse(time.RFC3339Nano, connectedAt); err != nil {
			return nil, err
		}
		if disconnectedAt.Valid {
			if e.DisconnectedAt, err = time.Parse(time.RFC3339Nano, disconnectedAt.String); err != nil {
				return nil, err
			}
		}
		e.BytesSent, e.BytesReceived = uint64(sent), uint64(received)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Recorder turns orchestrator transitions into history rows.
type Recorder struct {
	mu    sync.Mutex
	store *Store
	open  int64
	last  vpn.SessionInfo
	log   common.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, log: common.GetLogger().With("history")}
}

// Observe is registered with vpn.Manager.OnChange.
func (r *Recorder) Observe(from, to vpn.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if to.Phase == vpn.PhaseConnected && from.Phase != vpn.PhaseConnected {
		id, err := r.store.Start(ctx, to.Session)
		if err != nil {
			r.log.Warn("Could not record connection to %s: %v", to.Profile, err)
			return
		}
		r.open = id
		return
	}

	if r.open == 0 {
		return
	}
	if from.Phase == vpn.PhaseConnected || from.Phase == vpn.PhaseDisconnecting {
		r.last = from.Session
	}

	var reason string
	switch {
	case from.Phase == vpn.PhaseConnected && to.Phase == vpn.PhaseDisconnecting:
		// Finished when the disconnect resolves.
		return
	case from.Phase == vpn.PhaseDisconnecting && to.Phase == vpn.PhaseIdle:
		reason = "disconnected"
	case from.Phase == vpn.PhaseConnected && to.Phase == vpn.PhaseIdle:
		reason = "dropped"
	case from.Phase == vpn.PhaseDisconnecting && to.Phase == vpn.PhaseFailed:
		// Outcome unknown until the next status poll.
		return
	case from.Phase == vpn.PhaseFailed && to.Phase == vpn.PhaseIdle:
		reason = "dropped"
	default:
		return
	}

	if err := r.store.Finish(ctx, r.open, time.Now(), r.last.BytesSent, r.last.BytesReceived, reason); err != nil {
		r.log.Warn("Could not close connection record: %v", err)
	}
	r.open = 0
}
