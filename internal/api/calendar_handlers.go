package api

import (
	"net/http"

	"github.com/pantera3000/sistema-dental-01/internal/calendar"
)

// CalendarEvents lists the feed events inside the requested window.
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	filter := calendar.NormalizeFilter(r.URL.Query().Get("filter"))
	events := h.Calendar.Filtered(r.Context(), filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filter": filter,
		"items":  events,
		"total":  len(events),
	})
}

func (h *Handler) CalendarToday(w http.ResponseWriter, r *http.Request) {
	today := h.Calendar.Today(r.Context())
	pending := h.Calendar.TodayPending(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":          h.Calendar.Now().Format("2006-01-02"),
		"items":         today,
		"pending":       pending,
		"total":         len(today),
		"pending_total": len(pending),
	})
}
