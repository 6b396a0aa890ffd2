// Package audit writes the append-only audit trail. Write failures are logged
// and never reach the caller.
package audit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const (
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionView           = "VIEW"
	ActionExport         = "EXPORT"
	ActionBirthdaySent   = "BIRTHDAY_GREETING_SENT"
	ActionFormSubmitted  = "MEDICAL_FORM_SUBMITTED"
	ActionPublicRegister = "PUBLIC_REGISTER"
)

const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARN"
)

// SystemActor is the username recorded for jobs without a logged-in user.
const SystemActor = "system"

type Sink interface {
	Insert(ctx context.Context, e repo.AuditEntry) error
}

type PoolSink struct {
	Pool *pgxpool.Pool
}

func (s PoolSink) Insert(ctx context.Context, e repo.AuditEntry) error {
	return repo.InsertAuditLog(ctx, s.Pool, e)
}

type Recorder struct {
	sink Sink
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Event describes what happened; Record fills in who and from where.
type Event struct {
	Action     string
	Model      string
	ObjectID   string
	ObjectRepr string
	Changes    interface{}
	Details    string
	Severity   string
	// Username overrides the claims username (failed logins).
	Username string
}

// Record stores ev with actor, IP, user agent and request id taken from r.
func (rec *Recorder) Record(r *http.Request, ev Event) {
	if rec == nil || rec.sink == nil {
		return
	}
	ctx := r.Context()
	e := repo.AuditEntry{
		Username:   auth.UsernameFrom(ctx),
		Action:     ev.Action,
		Model:      ev.Model,
		ObjectID:   ev.ObjectID,
		ObjectRepr: ev.ObjectRepr,
		Changes:    ev.Changes,
		Details:    ev.Details,
		IP:         middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
		RequestID:  middleware.RequestIDFromContext(ctx),
		Severity:   ev.Severity,
	}
	if id, err := uuid.Parse(auth.UserIDFrom(ctx)); err == nil {
		e.UserID = &id
	}
	if ev.Username != "" {
		e.Username = ev.Username
	}
	rec.write(ctx, e)
}

// RecordSystem stores ev for background jobs.
func (rec *Recorder) RecordSystem(ctx context.Context, ev Event) {
	if rec == nil || rec.sink == nil {
		return
	}
	e := repo.AuditEntry{
		Username:   SystemActor,
		Action:     ev.Action,
		Model:      ev.Model,
		ObjectID:   ev.ObjectID,
		ObjectRepr: ev.ObjectRepr,
		Changes:    ev.Changes,
		Details:    ev.Details,
		RequestID:  middleware.RequestIDFromContext(ctx),
		Severity:   ev.Severity,
	}
	if ev.Username != "" {
		e.Username = ev.Username
	}
	rec.write(ctx, e)
}

func (rec *Recorder) write(ctx context.Context, e repo.AuditEntry) {
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	// detached so a cancelled request still leaves its trail
	if err := rec.sink.Insert(context.WithoutCancel(ctx), e); err != nil {
		log.Error().Err(err).
			Str("action", e.Action).
			Str("model", e.Model).
			Str("object_id", e.ObjectID).
			Msg("[audit] insert failed")
	}
}
