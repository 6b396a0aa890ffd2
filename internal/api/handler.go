package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/cache"
	"github.com/pantera3000/sistema-dental-01/internal/calendar"
	"github.com/pantera3000/sistema-dental-01/internal/config"
	"github.com/pantera3000/sistema-dental-01/internal/crypto"
	"github.com/pantera3000/sistema-dental-01/internal/dashboard"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/reminder"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const maxBodyBytes = 1 << 20

// Handler holds the dependencies of every HTTP endpoint.
type Handler struct {
	DB        *gorm.DB
	Pool      *pgxpool.Pool
	Cfg       *config.Config
	Box       *crypto.Box
	Audit     *audit.Recorder
	Calendar  *calendar.Service
	Dashboard *dashboard.Service
	// Accounts caches role/active lookups for RequireActiveAccount.
	Accounts *cache.TTL
	// LookupAccount overrides the database account lookup.
	LookupAccount middleware.AccountLookup

	sendMedicalFormEmail func(to, fullName, clinic, formURL string, validDays int) error
	whatsapp             reminder.WhatsAppSender
	now                  func() time.Time
}

func (h *Handler) SetSendMedicalFormEmail(fn func(to, fullName, clinic, formURL string, validDays int) error) {
	h.sendMedicalFormEmail = fn
}

func (h *Handler) SetWhatsAppSender(s reminder.WhatsAppSender) { h.whatsapp = s }

func (h *Handler) SetNow(fn func() time.Time) { h.now = fn }

func (h *Handler) lookupAccount(ctx context.Context, userID string) (string, bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", false, nil
	}
	u, err := repo.UserByID(ctx, h.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return u.Role, u.IsActive, nil
}

// forgetAccount drops the cached account state so the next request re-reads it.
func (h *Handler) forgetAccount(id uuid.UUID) {
	if h.Accounts != nil {
		h.Accounts.Delete(middleware.AccountCacheKey(id.String()))
	}
}

// clock returns the current time in the clinic timezone.
func (h *Handler) clock() time.Time {
	now := time.Now()
	if h.now != nil {
		now = h.now()
	}
	return now.In(h.Cfg.Location())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError escapes msg; use the literal http.Error form for fixed messages.
func writeError(w http.ResponseWriter, status int, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	http.Error(w, string(b), status)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// pathID parses the uuid route variable name, answering 400 when invalid.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// dbError maps repository errors: not found → 404, anything else → 500.
func dbError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if repo.IsNotFound(err) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		http.Error(w, `{"error":"timeout"}`, http.StatusGatewayTimeout)
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("[api] " + what)
	http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
}

func actorID(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(auth.UserIDFrom(r.Context()))
	if err != nil {
		return nil
	}
	return &id
}

// parseDay parses a YYYY-MM-DD date at midnight in loc.
func parseDay(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseFromTo reads a from/to pair as RFC3339 or YYYY-MM-DD. A date-only
// "to" covers the whole day.
func parseFromTo(r *http.Request, fromKey, toKey string, loc *time.Location) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if s := strings.TrimSpace(q.Get(fromKey)); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.ParseInLocation("2006-01-02", s, loc)
			if err != nil {
				return nil, nil, err
			}
		}
		from = &t
	}
	if s := strings.TrimSpace(q.Get(toKey)); s != "" {
		t2, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t2, err = time.ParseInLocation("2006-01-02", s, loc)
			if err != nil {
				return nil, nil, err
			}
			t2 = t2.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t2
	}
	return from, to, nil
}

// parseInstant accepts RFC3339 or a bare date (midnight in loc).
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", s, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
