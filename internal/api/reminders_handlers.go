package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/reminder"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

// TriggerBirthdayReminders runs today's birthday greetings on demand.
// A "date" query (YYYY-MM-DD) replays another day.
func (h *Handler) TriggerBirthdayReminders(w http.ResponseWriter, r *http.Request) {
	day := h.clock()
	if d, err := parseDay(r.URL.Query().Get("date"), h.Cfg.Location()); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	} else if d != nil {
		day = *d
	}
	clinic := repo.DefaultClinicName
	if c, err := repo.GetClinicConfig(r.Context(), h.DB); err == nil {
		clinic = c.ClinicName
	}
	res := reminder.SendBirthdayGreetings(r.Context(), day, reminder.DBLister{DB: h.DB}, h.whatsapp, h.Audit, clinic)
	log.Info().Int("sent", res.Sent).Int("skipped", res.Skipped).Str("date", day.Format("2006-01-02")).Msg("[reminder] manual trigger")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    day.Format("2006-01-02"),
		"sent":    res.Sent,
		"skipped": res.Skipped,
	})
}
