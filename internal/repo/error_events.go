package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ErrorEvent struct {
	Source    string
	UserID    *uuid.UUID
	RequestID string
	Path      string
	Message   string
	Stack     string
	UserAgent string
	Metadata  interface{}
}

func CreateErrorEvent(ctx context.Context, pool *pgxpool.Pool, ev ErrorEvent) error {
	var meta []byte
	if ev.Metadata != nil {
		meta, _ = json.Marshal(ev.Metadata)
	}
	if ev.Source == "" {
		ev.Source = "backend"
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO error_events (source, user_id, request_id, path, message, stack, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.Source, ev.UserID, Clip(ev.RequestID, maxIPLen), Clip(ev.Path, 0), Clip(ev.Message, 0), Clip(ev.Stack, 0),
		Clip(ev.UserAgent, maxUserAgentLen), meta)
	return err
}

type ErrorEventRow struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	UserID    *string         `json:"user_id,omitempty"`
	RequestID string          `json:"request_id"`
	Path      string          `json:"path"`
	Message   string          `json:"message"`
	Stack     string          `json:"stack,omitempty"`
	UserAgent string          `json:"user_agent"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func ListErrorEvents(ctx context.Context, pool *pgxpool.Pool, source string, limit, offset int) ([]ErrorEventRow, error) {
	rows, err := pool.Query(ctx, `
		SELECT id::text, source, user_id::text, request_id, path, message, stack, user_agent, metadata, created_at
		FROM error_events
		WHERE ($1::text IS NULL OR source = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, nullIfEmpty(source), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ErrorEventRow{}
	for rows.Next() {
		var e ErrorEventRow
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Source, &e.UserID, &e.RequestID, &e.Path, &e.Message, &e.Stack, &e.UserAgent, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			e.Metadata = meta
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
