package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

// ListAuditLogs is admin-only; the log itself is never modified through the API.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffsetWith(r, auditPageSize)
	q := r.URL.Query()
	f := repo.AuditFilter{
		Action: strings.ToUpper(strings.TrimSpace(q.Get("action"))),
		Model:  strings.TrimSpace(q.Get("model")),
		Q:      strings.TrimSpace(q.Get("q")),
		Limit:  limit,
		Offset: offset,
	}
	if s := q.Get("user_id"); s != "" {
		uid, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, `{"error":"invalid user_id"}`, http.StatusBadRequest)
			return
		}
		f.UserID = &uid
	}
	from, to, err := parseFromTo(r, "date_from", "date_to", h.Cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	f.From, f.To = from, to
	list, total, err := repo.SearchAuditLogs(r.Context(), h.Pool, f)
	if err != nil {
		dbError(w, r, err, "audit logs")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, limit, offset, total))
}

func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := repo.AuditLogByID(r.Context(), h.Pool, id)
	if err != nil {
		dbError(w, r, err, "audit log")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// AuditStats counts "today" and "last 7 days" from local midnight in the clinic time zone.
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	dayStart := dental.DayStart(h.clock())
	st, err := repo.GetAuditStats(r.Context(), h.Pool, dayStart, dayStart.AddDate(0, 0, -6))
	if err != nil {
		dbError(w, r, err, "audit stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) ListErrorEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffsetWith(r, auditPageSize)
	list, err := repo.ListErrorEvents(r.Context(), h.Pool, strings.TrimSpace(r.URL.Query().Get("source")), limit, offset)
	if err != nil {
		dbError(w, r, err, "error events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": list, "limit": limit, "offset": offset})
}
