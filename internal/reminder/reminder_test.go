package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type mockLister struct {
	rows []repo.PatientBirthday
	err  error
}

func (m *mockLister) PatientsWithBirthDate(context.Context) ([]repo.PatientBirthday, error) {
	return m.rows, m.err
}

type mockSender struct {
	calls []string
	fail  map[string]bool
}

func (m *mockSender) SendBirthdayGreeting(_ context.Context, phone, name, clinic string) error {
	m.calls = append(m.calls, phone)
	if m.fail[phone] {
		return errors.New("send failed")
	}
	return nil
}

type mockAuditor struct {
	events []audit.Event
}

func (m *mockAuditor) RecordSystem(_ context.Context, ev audit.Event) {
	m.events = append(m.events, ev)
}

var day = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func born(m time.Month, d int) time.Time { return time.Date(1990, m, d, 0, 0, 0, 0, time.UTC) }

func TestSendBirthdayGreetingsNilLister(t *testing.T) {
	if res := SendBirthdayGreetings(context.Background(), day, nil, &mockSender{}, nil, "X"); res != (Result{}) {
		t.Errorf("got %+v", res)
	}
}

func TestSendBirthdayGreetingsListerError(t *testing.T) {
	res := SendBirthdayGreetings(context.Background(), day, &mockLister{err: errors.New("db")}, &mockSender{}, nil, "X")
	if res != (Result{}) {
		t.Errorf("got %+v", res)
	}
}

func TestSendBirthdayGreetings(t *testing.T) {
	lister := &mockLister{rows: []repo.PatientBirthday{
		{ID: uuid.New(), FullName: "Ana", Phone: "111", BirthDate: born(3, 10)},
		{ID: uuid.New(), FullName: "Sin telefono", BirthDate: born(3, 10)},
		{ID: uuid.New(), FullName: "Falla", Phone: "222", BirthDate: born(3, 10)},
		{ID: uuid.New(), FullName: "Otro dia", Phone: "333", BirthDate: born(3, 11)},
	}}
	sender := &mockSender{fail: map[string]bool{"222": true}}
	aud := &mockAuditor{}

	res := SendBirthdayGreetings(context.Background(), day, lister, sender, aud, "Clinic")
	if res.Sent != 1 || res.Skipped != 2 {
		t.Errorf("got %+v, want sent=1 skipped=2", res)
	}
	if len(sender.calls) != 2 {
		t.Errorf("calls: %v", sender.calls)
	}
	if len(aud.events) != 1 || aud.events[0].Action != audit.ActionBirthdaySent || aud.events[0].ObjectRepr != "Ana" {
		t.Errorf("audit: %+v", aud.events)
	}
}

func TestSendBirthdayGreetingsNoSender(t *testing.T) {
	lister := &mockLister{rows: []repo.PatientBirthday{
		{ID: uuid.New(), FullName: "Ana", Phone: "111", BirthDate: born(3, 10)},
	}}
	res := SendBirthdayGreetings(context.Background(), day, lister, nil, nil, "Clinic")
	if res.Sent != 0 || res.Skipped != 1 {
		t.Errorf("got %+v", res)
	}
}

func TestDefaultWhatsAppSender(t *testing.T) {
	if DefaultWhatsAppSender("", "tok", "from") != nil {
		t.Error("expected nil sender without account sid")
	}
	if DefaultWhatsAppSender("sid", "tok", "from") == nil {
		t.Error("expected sender when configured")
	}
}
