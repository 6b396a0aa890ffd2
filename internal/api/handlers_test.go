package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/calendar"
	"github.com/pantera3000/sistema-dental-01/internal/config"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

var testSecret = []byte("test-secret-with-at-least-32-characters!")

func newTestHandler() *Handler {
	return &Handler{
		Cfg:      &config.Config{JWTSecret: testSecret, AppPublicURL: "https://clinica.example/"},
		Calendar: calendar.New("", time.Second, nil, time.UTC),
		LookupAccount: func(ctx context.Context, _ string) (string, bool, error) {
			return auth.RoleFrom(ctx), true, nil
		},
	}
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.BuildJWT(testSecret, uuid.NewString(), "tester", role, time.Hour)
	if err != nil {
		t.Fatalf("build jwt: %v", err)
	}
	return "Bearer " + tok
}

func TestCheckUserChange(t *testing.T) {
	self := &repo.User{ID: uuid.New(), Role: auth.RoleAdmin}
	super := &repo.User{ID: uuid.New(), Role: auth.RoleSuperuser}
	doctor := &repo.User{ID: uuid.New(), Role: auth.RoleDoctor}
	cases := []struct {
		name      string
		actorRole string
		actorID   string
		target    *repo.User
		newRole   string
		active    bool
		want      error
	}{
		{"admin edits doctor", auth.RoleAdmin, self.ID.String(), doctor, auth.RoleDoctor, true, nil},
		{"admin edits superuser", auth.RoleAdmin, self.ID.String(), super, auth.RoleSuperuser, true, errCannotManageSuperuser},
		{"admin grants superuser", auth.RoleAdmin, self.ID.String(), doctor, auth.RoleSuperuser, true, errCannotGrantSuperuser},
		{"admin creates superuser", auth.RoleAdmin, self.ID.String(), nil, auth.RoleSuperuser, true, errCannotGrantSuperuser},
		{"superuser grants superuser", auth.RoleSuperuser, super.ID.String(), doctor, auth.RoleSuperuser, true, nil},
		{"self deactivate", auth.RoleAdmin, self.ID.String(), self, auth.RoleAdmin, false, errSelfDeactivate},
		{"deactivate other", auth.RoleAdmin, self.ID.String(), doctor, auth.RoleDoctor, false, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := checkUserChange(c.actorRole, c.actorID, c.target, c.newRole, c.active); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestWriteErrorEscapes(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, `dato "inválido"`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(rr.Body.String())), &body); err != nil {
		t.Fatalf("body is not json: %q", rr.Body.String())
	}
	if body["error"] != `dato "inválido"` {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestParseFromTo(t *testing.T) {
	loc := time.FixedZone("PET", -5*3600)
	r := httptest.NewRequest(http.MethodGet, "/x?desde=2026-03-01&hasta=2026-03-31", nil)
	from, to, err := parseFromTo(r, "desde", "hasta", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("from = %s", from)
	}
	if to.Day() != 31 || to.Hour() != 23 || to.Minute() != 59 {
		t.Fatalf("date-only to must cover the day, got %s", to)
	}

	r = httptest.NewRequest(http.MethodGet, "/x?hasta=2026-03-31T10:00:00Z", nil)
	from, to, err = parseFromTo(r, "desde", "hasta", loc)
	if err != nil || from != nil {
		t.Fatalf("from=%v err=%v", from, err)
	}
	if !to.Equal(time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339 to = %s", to)
	}

	r = httptest.NewRequest(http.MethodGet, "/x?desde=31/03/2026", nil)
	if _, _, err := parseFromTo(r, "desde", "hasta", loc); err == nil {
		t.Fatal("expected error for dd/mm/yyyy")
	}
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id.String()})
	rr := httptest.NewRecorder()
	got, ok := pathID(rr, r, "id")
	if !ok || got != id {
		t.Fatalf("got %s ok=%v", got, ok)
	}

	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "nope"})
	rr = httptest.NewRecorder()
	if _, ok := pathID(rr, r, "id"); ok || rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: ok=%v code=%d", ok, rr.Code)
	}
}

func TestImageRequestNormalize(t *testing.T) {
	req := imageRequest{URL: " https://drive.google.com/file/d/abc123/view?usp=sharing ", Description: " rx "}
	if !req.normalize() {
		t.Fatal("drive url should be valid")
	}
	if req.URL != "https://drive.google.com/uc?export=view&id=abc123" {
		t.Fatalf("url = %q", req.URL)
	}
	if req.Description != "rx" {
		t.Fatalf("description = %q", req.Description)
	}
	bad := imageRequest{URL: "javascript:alert(1)"}
	if bad.normalize() {
		t.Fatal("non-http url accepted")
	}
}

func TestFormLink(t *testing.T) {
	h := newTestHandler()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := &repo.MedicalFormToken{Token: "abcdef", ExpiresAt: now.Add(72*time.Hour + time.Hour), CreatedAt: now}
	got := h.formLink(tok, now)
	if got.URL != "https://clinica.example/formulario/abcdef" {
		t.Fatalf("url = %q", got.URL)
	}
	if got.ValidDays != 7 {
		t.Fatalf("default ttl = %d", got.ValidDays)
	}
	if got.DaysRemaining != 3 {
		t.Fatalf("days remaining = %d", got.DaysRemaining)
	}
}

func TestGlobalSearchShortQuery(t *testing.T) {
	h := newTestHandler()
	rr := httptest.NewRecorder()
	h.GlobalSearch(rr, httptest.NewRequest(http.MethodGet, "/api/search?q=a", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var body struct {
		Items []searchItem `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Items == nil || len(body.Items) != 0 {
		t.Fatalf("items = %#v", body.Items)
	}
}

func TestSearchItems(t *testing.T) {
	res := &repo.SearchResults{
		Patients:   []repo.SearchPatient{{ID: uuid.New(), FullName: "Ana Pérez", Phone: "999"}},
		Treatments: []repo.SearchTreatment{{ID: uuid.New(), Name: "Limpieza", Status: "pendiente", PatientName: "Ana Pérez"}},
		Histories:  []repo.SearchHistory{{ID: uuid.New(), Reason: "Dolor", PatientName: "Ana Pérez", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}},
	}
	items := searchItems(res)
	if len(items) != 3 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].Type != "patient" || items[1].Type != "treatment" || items[2].Type != "history" {
		t.Fatalf("types = %v", items)
	}
	if items[2].Subtitle != "Ana Pérez - 02/01/2026" {
		t.Fatalf("history subtitle = %q", items[2].Subtitle)
	}
}

func TestCalendarEventsWithoutFeed(t *testing.T) {
	h := newTestHandler()
	rr := httptest.NewRecorder()
	h.CalendarEvents(rr, httptest.NewRequest(http.MethodGet, "/api/calendar/events?filter=bogus", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var body struct {
		Filter string           `json:"filter"`
		Items  []calendar.Event `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Filter != calendar.FilterMonth || len(body.Items) != 0 {
		t.Fatalf("body = %+v", body)
	}
}

func TestRoutesAuthorization(t *testing.T) {
	h := newTestHandler()
	r := mux.NewRouter()
	h.Register(r, RouteLimiters{})

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{"no token", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"assistant payments", http.MethodGet, "/api/payments", auth.RoleAssistant, http.StatusForbidden},
		{"assistant audit", http.MethodGet, "/api/audit-logs", auth.RoleAssistant, http.StatusForbidden},
		{"doctor users", http.MethodGet, "/api/users", auth.RoleDoctor, http.StatusForbidden},
		{"doctor clinic config", http.MethodPut, "/api/clinic-config", auth.RoleDoctor, http.StatusForbidden},
		{"assistant delete patient", http.MethodDelete, "/api/patients/" + uuid.NewString(), auth.RoleAssistant, http.StatusForbidden},
		{"doctor reminders", http.MethodPost, "/api/admin/reminders/trigger", auth.RoleDoctor, http.StatusForbidden},
		{"any role search", http.MethodGet, "/api/search?q=x", auth.RoleAssistant, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(c.method, c.path, nil)
			if c.role != "" {
				req.Header.Set("Authorization", bearer(t, c.role))
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Fatalf("status %d, want %d (%s)", rr.Code, c.want, rr.Body.String())
			}
		})
	}
}

func TestRoutesRejectDeactivatedAccount(t *testing.T) {
	h := newTestHandler()
	inactive := uuid.NewString()
	h.LookupAccount = func(ctx context.Context, id string) (string, bool, error) {
		return auth.RoleFrom(ctx), id != inactive, nil
	}
	r := mux.NewRouter()
	h.Register(r, RouteLimiters{})

	tok, err := auth.BuildJWT(testSecret, inactive, "baja", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated account got %d", rr.Code)
	}
}

func TestSavePatientFormRejectsBeforeTouchingStore(t *testing.T) {
	h := newTestHandler()
	r := mux.NewRouter()
	h.Register(r, RouteLimiters{})
	pid := uuid.NewString()

	cases := []struct {
		name string
		role string
		path string
		body string
		want int
	}{
		{"assistant cannot edit", auth.RoleAssistant, "health-program", `{}`, http.StatusForbidden},
		{"unknown symptom", auth.RoleDoctor, "health-program", `{"symptoms":["fiebre"]}`, http.StatusBadRequest},
		{"bad side", auth.RoleDoctor, "health-program", `{"mastication_side":"ambos"}`, http.StatusBadRequest},
		{"bad growth pattern", auth.RoleDoctor, "functional-evaluation", `{"growth_pattern":"largo"}`, http.StatusBadRequest},
		{"not json", auth.RoleDoctor, "functional-evaluation", `{`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/patients/"+pid+"/"+c.path, strings.NewReader(c.body))
			req.Header.Set("Authorization", bearer(t, c.role))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != c.want {
				t.Fatalf("got %d want %d: %s", rr.Code, c.want, rr.Body.String())
			}
		})
	}
}
