package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"campaign_agent/internal/memory"
)

var ErrNotFound = errors.New("campaign not found")

// Campaign is one row of the campaigns table.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompressionRecord is one completed compression.
type CompressionRecord struct {
	ID             string    `json:"id"`
	CampaignID     string    `json:"campaign_id"`
	Count          int       `json:"count"`
	SessionSummary string    `json:"session_summary"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store handles SQLite persistence for campaigns, memory snapshots and
// compression history.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a SQLite database at the given path and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS memory_snapshots (
		campaign_id       TEXT PRIMARY KEY REFERENCES campaigns(id),
		long_term         TEXT NOT NULL DEFAULT '',
		short_term        TEXT NOT NULL DEFAULT '[]',
		compression_count INTEGER NOT NULL DEFAULT 0,
		last_compression  TEXT,
		updated_at        TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS compressions (
		id              TEXT PRIMARY KEY,
		campaign_id     TEXT NOT NULL REFERENCES campaigns(id),
		count           INTEGER NOT NULL,
		session_summary TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_compressions_campaign ON compressions(campaign_id, count);`
	_, err := s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

// CreateCampaign inserts a new campaign record.
func (s *Store) CreateCampaign(ctx context.Context, id, name string) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO campaigns (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, name, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetCampaign returns the campaign or ErrNotFound.
func (s *Store) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	var c Campaign
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM campaigns WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

// ListCampaigns returns campaigns, most recently played first.
func (s *Store) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM campaigns ORDER BY updated_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		var c Campaign
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Name, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTime(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveSnapshot replaces the campaign's memory snapshot and bumps its
// updated_at in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, campaignID string, snap memory.Snapshot) error {
	shortTerm, err := json.Marshal(snap.ShortTermMemory)
	if err != nil {
		return fmt.Errorf("marshal short-term memory: %w", err)
	}
	var last sql.NullString
	if snap.LastCompression != nil {
		last = sql.NullString{String: snap.LastCompression.UTC().Format(timeLayout), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx, "UPDATE campaigns SET updated_at = ? WHERE id = ?", ts, campaignID)
	if err != nil {
		return fmt.Errorf("touch campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, campaignID)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO memory_snapshots (campaign_id, long_term, short_term, compression_count, last_compression, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			long_term = excluded.long_term,
			short_term = excluded.short_term,
			compression_count = excluded.compression_count,
			last_compression = excluded.last_compression,
			updated_at = excluded.updated_at`,
		campaignID, snap.LongTermMemory, string(shortTerm), snap.CompressionCount, last, ts,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return tx.Commit()
}

// LoadSnapshot returns the campaign's snapshot, or nil if none was saved.
func (s *Store) LoadSnapshot(ctx context.Context, campaignID string) (*memory.Snapshot, error) {
	var snap memory.Snapshot
	var shortTerm string
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT long_term, short_term, compression_count, last_compression FROM memory_snapshots WHERE campaign_id = ?",
		campaignID,
	).Scan(&snap.LongTermMemory, &shortTerm, &snap.CompressionCount, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(shortTerm), &snap.ShortTermMemory); err != nil {
		return nil, fmt.Errorf("decode short-term memory: %w", err)
	}
	if last.Valid {
		t, err := time.Parse(time.RFC3339Nano, last.String)
		if err != nil {
			return nil, fmt.Errorf("decode last_compression: %w", err)
		}
		snap.LastCompression = &t
	}
	return &snap, nil
}

// RecordCompression appends to the campaign's compression history.
func (s *Store) RecordCompression(ctx context.Context, campaignID string, count int, sessionSummary string) (string, error) {
	id := ulid.Make().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO compressions (id, campaign_id, count, session_summary, created_at) VALUES (?, ?, ?, ?, ?)",
		id, campaignID, count, sessionSummary, now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert compression: %w", err)
	}
	return id, nil
}

// ListCompressions returns the campaign's compression history, oldest first.
func (s *Store) ListCompressions(ctx context.Context, campaignID string) ([]CompressionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, campaign_id, count, session_summary, created_at FROM compressions WHERE campaign_id = ? ORDER BY count ASC, id ASC",
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("list compressions: %w", err)
	}
	defer rows.Close()

	var out []CompressionRecord
	for rows.Next() {
		var r CompressionRecord
		var created string
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.Count, &r.SessionSummary, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
