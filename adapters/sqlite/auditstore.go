package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/ports"
)

// AuditStore implements ports.AuditLog using SQLite.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new SQLite audit store.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record stores an entry.
func (s *AuditStore) Record(ctx context.Context, e audit.Entry) error {
	applied, err := encodeNames(e.Applied)
	if err != nil {
		return err
	}
	rejected, err := encodeNames(e.Rejected)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_audit (id, time_ns, actor, operation, applied, rejected, denied, misrouted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Time.UnixNano(), e.Actor, e.Operation, applied, rejected, e.Denied, e.Misrouted)
	if err != nil {
		return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (s *AuditStore) List(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, f.Operation)
	}
	if f.DeniedOnly {
		where = append(where, "denied = 1")
	}
	if !f.Since.IsZero() {
		where = append(where, "time_ns >= ?")
		args = append(args, f.Since.UnixNano())
	}

	query := `SELECT id, time_ns, actor, operation, applied, rejected, denied, misrouted FROM sync_audit`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY time_ns DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than before and returns how many went.
func (s *AuditStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sync_audit WHERE time_ns < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(rows *sql.Rows) (audit.Entry, error) {
	var (
		e                 audit.Entry
		timeNs            int64
		applied, rejected string
	)
	if err := rows.Scan(&e.ID, &timeNs, &e.Actor, &e.Operation, &applied, &rejected, &e.Denied, &e.Misrouted); err != nil {
		return audit.Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}
	e.Time = time.Unix(0, timeNs).UTC()

	if err := json.Unmarshal([]byte(applied), &e.Applied); err != nil {
		return audit.Entry{}, fmt.Errorf("decode applied names of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(rejected), &e.Rejected); err != nil {
		return audit.Entry{}, fmt.Errorf("decode rejected names of %s: %w", e.ID, err)
	}
	return e, nil
}

func encodeNames(names []string) (string, error) {
	if len(names) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encode names: %w", err)
	}
	return string(data), nil
}

// Ensure interface compliance.
var _ ports.AuditLog = (*AuditStore)(nil)
