package api

import (
	"net/http"
	"strconv"

	"github.com/pantera3000/sistema-dental-01/internal/dashboard"
)

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.Dashboard(r.Context())
	if err != nil {
		dbError(w, r, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DashboardStatistics reports one calendar year; a missing or invalid year means the current one.
func (h *Handler) DashboardStatistics(w http.ResponseWriter, r *http.Request) {
	year := 0
	if s := r.URL.Query().Get("year"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 2000 && n <= 9999 {
			year = n
		}
	}
	st, err := h.Dashboard.Statistics(r.Context(), year)
	if err != nil {
		dbError(w, r, err, "statistics")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Dashboard.Report(r.Context())
	if err != nil {
		dbError(w, r, err, "reports")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) DebtReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dq := dashboard.DebtQuery{QuickFilter: q.Get("filtro_rapido")}
	var err error
	if dq.From, err = parseDay(q.Get("fecha_desde"), h.Cfg.Location()); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	if dq.To, err = parseDay(q.Get("fecha_hasta"), h.Cfg.Location()); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	if s := q.Get("page"); s != "" {
		dq.Page, _ = strconv.Atoi(s)
	}
	rep, err := h.Dashboard.Debts(r.Context(), dq)
	if err != nil {
		dbError(w, r, err, "debt report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
