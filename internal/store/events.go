package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the application's SQL statements.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Event is a row of the events table.
type Event struct {
	ID         int64     `json:"id"`
	Level      string    `json:"level"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	Username   string    `json:"username"`
	Metadata   string    `json:"metadata"`
	IpAddress  string    `json:"ip_address"`
	RequestUrl string    `json:"request_url"`
	CreatedAt  time.Time `json:"created_at"`
}

const eventColumns = `id, level, category, message, username, metadata, ip_address, request_url, created_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Username,
		&e.Metadata, &e.IpAddress, &e.RequestUrl, &e.CreatedAt)
	return e, err
}

// CreateEventParams holds the columns of a new event.
type CreateEventParams struct {
	Level      string
	Category   string
	Message    string
	Username   string
	Metadata   string
	IpAddress  string
	RequestUrl string
	CreatedAt  time.Time
}

// CreateEvent inserts an event and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
	}
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO events (level, category, message, username, metadata, ip_address, request_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns,
		arg.Level, arg.Category, arg.Message, arg.Username, arg.Metadata,
		arg.IpAddress, arg.RequestUrl, arg.CreatedAt.UTC(),
	)
	e, err := scanEvent(row)
	if err != nil {
		return Event{}, fmt.Errorf("creating event: %w", err)
	}
	return e, nil
}

// ListEventsParams filters and pages the event list. Empty filters match all.
type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	if arg.Limit <= 0 {
		arg.Limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		arg.Level, arg.Level, arg.Category, arg.Category, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// ListRecentEvents returns the newest limit events.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	return q.ListEvents(ctx, ListEventsParams{Limit: limit})
}

// CountEvents counts events matching the filters of arg.
func (q *Queries) CountEvents(ctx context.Context, arg ListEventsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)`,
		arg.Level, arg.Level, arg.Category, arg.Category,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// DeleteEventsBefore removes events created before cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return res.RowsAffected()
}
