package audit

import (
	"context"
	"errors"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type mockSink struct {
	entries []repo.AuditEntry
	err     error
}

func (m *mockSink) Insert(_ context.Context, e repo.AuditEntry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func TestRecordFillsRequestData(t *testing.T) {
	sink := &mockSink{}
	rec := NewRecorder(sink)

	if err := middleware.SetTrustedProxies([]string{"192.0.2.1", "10.0.0.0/8"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = middleware.SetTrustedProxies(nil) })
	r := httptest.NewRequest("POST", "/api/patients", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("User-Agent", "test-agent")
	ctx := auth.WithClaims(r.Context(), &auth.Claims{
		UserID:   "6f1c2d3e-0000-4000-8000-000000000001",
		Username: "ana",
		Role:     auth.RoleDoctor,
	})
	ctx = middleware.WithRequestID(ctx, "rid-1")
	r = r.WithContext(ctx)

	rec.Record(r, Event{Action: ActionCreate, Model: "patient", ObjectID: "p1", ObjectRepr: "Juan"})

	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Username != "ana" || e.IP != "203.0.113.7" || e.UserAgent != "test-agent" || e.RequestID != "rid-1" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.UserID == nil || e.UserID.String() != "6f1c2d3e-0000-4000-8000-000000000001" {
		t.Errorf("user id: %v", e.UserID)
	}
	if e.Severity != SeverityInfo {
		t.Errorf("severity: %q", e.Severity)
	}
}

func TestRecordFailedLoginUsesGivenUsername(t *testing.T) {
	sink := &mockSink{}
	rec := NewRecorder(sink)
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	rec.Record(r, Event{Action: ActionLoginFailed, Username: "mallory", Severity: SeverityWarning})
	e := sink.entries[0]
	if e.Username != "mallory" || e.UserID != nil || e.Severity != SeverityWarning {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestRecordSinkErrorIsSwallowed(t *testing.T) {
	sink := &mockSink{err: errors.New("db down")}
	rec := NewRecorder(sink)
	rec.RecordSystem(context.Background(), Event{Action: ActionBirthdaySent})
	if len(sink.entries) != 1 || sink.entries[0].Username != SystemActor {
		t.Fatalf("unexpected entries: %+v", sink.entries)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(httptest.NewRequest("GET", "/", nil), Event{Action: ActionView})
	rec.RecordSystem(context.Background(), Event{Action: ActionView})
}

func TestDiff(t *testing.T) {
	type row struct {
		Name      string  `json:"name"`
		Cost      string  `json:"cost"`
		End       *string `json:"end"`
		UpdatedAt string  `json:"updated_at"`
	}
	end := "2026-01-02"
	before := row{Name: "Limpieza", Cost: "100", UpdatedAt: "a"}
	after := row{Name: "Limpieza", Cost: "120", End: &end, UpdatedAt: "b"}

	d := Diff(before, after)
	if got := Fields(d); !reflect.DeepEqual(got, []string{"cost", "end"}) {
		t.Fatalf("fields: %v", got)
	}
	if d["cost"].Old != "100" || d["cost"].New != "120" {
		t.Errorf("cost change: %+v", d["cost"])
	}
	if d["end"].Old != nil || d["end"].New != "2026-01-02" {
		t.Errorf("end change: %+v", d["end"])
	}

	created := Diff(nil, after, "end")
	if _, ok := created["end"]; ok {
		t.Error("ignored field present")
	}
	if created["name"].New != "Limpieza" || created["name"].Old != nil {
		t.Errorf("create diff: %+v", created["name"])
	}
}
