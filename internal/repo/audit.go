package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxUserAgentLen = 255
	maxUsernameLen  = 150
	maxIPLen        = 64
)

// AuditEntry is one append-only audit row. Changes is marshalled to JSON.
type AuditEntry struct {
	UserID     *uuid.UUID
	Username   string
	Action     string
	Model      string
	ObjectID   string
	ObjectRepr string
	Changes    interface{}
	Details    string
	IP         string
	UserAgent  string
	RequestID  string
	Severity   string
}

func InsertAuditLog(ctx context.Context, pool *pgxpool.Pool, e AuditEntry) error {
	var changes []byte
	if e.Changes != nil {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
		changes = b
	}
	if e.Severity == "" {
		e.Severity = "INFO"
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO audit_logs (
			user_id, username, action, model, object_id, object_repr,
			changes, details, ip, user_agent, request_id, severity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.UserID, Clip(e.Username, maxUsernameLen), e.Action, e.Model, Clip(e.ObjectID, 0), Clip(e.ObjectRepr, 0),
		changes, Clip(e.Details, 0), Clip(e.IP, maxIPLen), Clip(e.UserAgent, maxUserAgentLen), Clip(e.RequestID, maxIPLen), e.Severity)
	return err
}

type AuditLog struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id,omitempty"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	Model      string          `json:"model"`
	ObjectID   string          `json:"object_id"`
	ObjectRepr string          `json:"object_repr"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	Details    string          `json:"details"`
	IP         string          `json:"ip"`
	UserAgent  string          `json:"user_agent"`
	RequestID  string          `json:"request_id"`
	Severity   string          `json:"severity"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditFilter struct {
	UserID *uuid.UUID
	Action string
	Model  string
	From   *time.Time
	To     *time.Time
	Q      string
	Limit  int
	Offset int
}

const auditColumns = `id::text, user_id::text, username, action, model, object_id, object_repr,
	changes, details, ip, user_agent, request_id, severity, created_at`

const auditWhere = `
	WHERE ($1::uuid IS NULL OR user_id = $1)
	  AND ($2::text IS NULL OR action = $2)
	  AND ($3::text IS NULL OR model = $3)
	  AND ($4::timestamptz IS NULL OR created_at >= $4)
	  AND ($5::timestamptz IS NULL OR created_at <= $5)
	  AND ($6::text IS NULL OR username ILIKE $6 OR object_repr ILIKE $6 OR details ILIKE $6 OR ip ILIKE $6)
`

func (f AuditFilter) args() []interface{} {
	var q *string
	if nullIfEmpty(f.Q) != nil {
		p := likePattern(f.Q)
		q = &p
	}
	return []interface{}{f.UserID, nullIfEmpty(f.Action), nullIfEmpty(f.Model), f.From, f.To, q}
}

func scanAuditLog(row pgx.Row) (AuditLog, error) {
	var a AuditLog
	var changes []byte
	err := row.Scan(&a.ID, &a.UserID, &a.Username, &a.Action, &a.Model, &a.ObjectID, &a.ObjectRepr,
		&changes, &a.Details, &a.IP, &a.UserAgent, &a.RequestID, &a.Severity, &a.CreatedAt)
	if len(changes) > 0 {
		a.Changes = changes
	}
	return a, err
}

// SearchAuditLogs returns matching rows newest first plus the total count.
func SearchAuditLogs(ctx context.Context, pool *pgxpool.Pool, f AuditFilter) ([]AuditLog, int64, error) {
	args := f.args()
	var total int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+auditWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := pool.Query(ctx, `SELECT `+auditColumns+` FROM audit_logs`+auditWhere+`
		ORDER BY created_at DESC
		LIMIT $7 OFFSET $8
	`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]AuditLog, 0, f.Limit)
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func AuditLogByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*AuditLog, error) {
	a, err := scanAuditLog(pool.QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type AuditStats struct {
	Total      int64         `json:"total"`
	Today      int64         `json:"today"`
	Last7Days  int64         `json:"last_7_days"`
	TopActions []ActionCount `json:"top_actions"`
	Models     []string      `json:"models"`
}

// GetAuditStats counts rows since dayStart (today) and weekStart (7 days back).
func GetAuditStats(ctx context.Context, pool *pgxpool.Pool, dayStart, weekStart time.Time) (*AuditStats, error) {
	s := &AuditStats{TopActions: []ActionCount{}, Models: []string{}}
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= $1),
		       COUNT(*) FILTER (WHERE created_at >= $2)
		FROM audit_logs
	`, dayStart, weekStart).Scan(&s.Total, &s.Today, &s.Last7Days)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT action, COUNT(*) AS n FROM audit_logs GROUP BY action ORDER BY n DESC, action LIMIT 5
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var ac ActionCount
		if err := rows.Scan(&ac.Action, &ac.Count); err != nil {
			rows.Close()
			return nil, err
		}
		s.TopActions = append(s.TopActions, ac)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	models, err := pool.Query(ctx, `SELECT DISTINCT model FROM audit_logs WHERE model <> '' ORDER BY model`)
	if err != nil {
		return nil, err
	}
	defer models.Close()
	for models.Next() {
		var m string
		if err := models.Scan(&m); err != nil {
			return nil, err
		}
		s.Models = append(s.Models, m)
	}
	return s, models.Err()
}
