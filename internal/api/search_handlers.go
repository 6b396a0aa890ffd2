package api

import (
	"net/http"
	"strings"

	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const (
	searchMinChars = 2
	searchPerKind  = 5
)

type searchItem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ID       string `json:"id"`
}

func searchItems(res *repo.SearchResults) []searchItem {
	out := []searchItem{}
	for _, p := range res.Patients {
		sub := "Paciente"
		if p.Phone != "" {
			sub = "Paciente - " + p.Phone
		}
		out = append(out, searchItem{Type: "patient", Title: p.FullName, Subtitle: sub, ID: p.ID.String()})
	}
	for _, t := range res.Treatments {
		out = append(out, searchItem{
			Type:     "treatment",
			Title:    t.Name,
			Subtitle: t.PatientName + " - " + dental.TreatmentStatusLabel(t.Status),
			ID:       t.ID.String(),
		})
	}
	for _, hh := range res.Histories {
		out = append(out, searchItem{
			Type:     "history",
			Title:    hh.Reason,
			Subtitle: hh.PatientName + " - " + hh.CreatedAt.Format("02/01/2006"),
			ID:       hh.ID.String(),
		})
	}
	return out
}

// GlobalSearch looks up patients, treatments and history entries at once.
func (h *Handler) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < searchMinChars {
		writeJSON(w, http.StatusOK, map[string]interface{}{"query": q, "items": []searchItem{}})
		return
	}
	hash, _ := dniQuery(q)
	res, err := repo.GlobalSearch(r.Context(), h.DB, q, hash, searchPerKind)
	if err != nil {
		dbError(w, r, err, "search")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"query": q, "items": searchItems(res)})
}
