package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kishore1288/nodenewsearch/internal/db"
)

// Store persists history entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a new entry. If entry.ID is empty a UUID is generated; a
// zero StartedAt becomes the current time. The stored entry is returned.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeComplete
	}

	var folder sql.NullInt64
	if entry.FolderID != nil {
		folder = sql.NullInt64{Int64: *entry.FolderID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (
			id, started_at, username, token_present, folder_id, search_type,
			criteria, outcome, error, results, degraded, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.StartedAt.UTC().Format(time.DateTime),
		entry.Username,
		entry.TokenPresent,
		folder,
		entry.SearchType,
		entry.Criteria,
		string(entry.Outcome),
		entry.Error,
		entry.Results,
		entry.Degraded,
		entry.DurationMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("inserting history entry: %w", err)
	}
	entry.StartedAt = entry.StartedAt.UTC().Truncate(time.Second)
	return entry, nil
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM search_history WHERE id = ?", id)
	return scanInto(row)
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	Username string
	Outcome  Outcome
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

const columns = "id, started_at, username, token_present, folder_id, search_type, criteria, outcome, error, results, degraded, duration_ms"

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Username != "" {
		clauses = append(clauses, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "started_at <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT " + columns + " FROM search_history"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries that started before the given time and
// returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM search_history WHERE started_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old history: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e       Entry
		ts      string
		outcome string
		folder  sql.NullInt64
	)

	err := sc.Scan(
		&e.ID, &ts, &e.Username, &e.TokenPresent, &folder, &e.SearchType,
		&e.Criteria, &outcome, &e.Error, &e.Results, &e.Degraded, &e.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	e.Outcome = Outcome(outcome)
	if folder.Valid {
		id := folder.Int64
		e.FolderID = &id
	}
	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.StartedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.StartedAt = t
	}

	return &e, nil
}
