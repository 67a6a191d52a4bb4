// Package journal stores dispatched key events in the SQLite key_events
// table and answers history queries over them.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-keypad/internal/keypad"
)

// Query limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// timeLayout is fixed-width so occurred_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Entry is one stored key event.
type Entry struct {
	ID string `json:"id"`
	keypad.KeyEvent
}

// Filter controls which entries History returns.
type Filter struct {
	Key    *int                // optional: only this key index
	Kind   keypad.KeyEventKind // optional: press, release or control
	Since  time.Time           // optional: only entries at or after this time
	Limit  int                 // default 100, max 1000
	Offset int
}

// ListResult is a page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository reads and writes the key_events table.
type Repository struct {
	db *sql.DB
}

var _ keypad.Recorder = (*Repository)(nil)

// NewRepository creates a repository over an open, migrated database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordKeyEvent inserts ev. A zero timestamp is replaced by the current time.
func (r *Repository) RecordKeyEvent(ctx context.Context, ev keypad.KeyEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO key_events (id, key_index, key_row, key_column, kind, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"kev-"+uuid.NewString(),
		ev.Index, ev.Row, ev.Column, string(ev.Kind),
		nullableString(ev.Detail),
		ev.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting key event: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// History returns the entries matching filter, most recent first.
func (r *Repository) History(ctx context.Context, filter Filter) (*ListResult, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Key != nil {
		conditions = append(conditions, "key_index = ?")
		args = append(args, *filter.Key)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM key_events " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting key events: %w", err)
	}

	query := "SELECT id, key_index, key_row, key_column, kind, detail, occurred_at FROM key_events " + //nolint:gosec // as above
		where + " ORDER BY occurred_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying key events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			kind       string
			detail     sql.NullString
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &e.Index, &e.Row, &e.Column, &kind, &detail, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning key event: %w", err)
		}
		e.Kind = keypad.KeyEventKind(kind)
		e.Detail = detail.String
		if e.At, err = time.Parse(timeLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("parsing key event timestamp %q: %w", occurredAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating key events: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Prune deletes entries older than before and returns how many were removed.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM key_events WHERE occurred_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning key events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned key events: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
