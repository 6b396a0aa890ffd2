package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var clinic = Clinic{Name: "Consultorio Dental", Title: "ODONTOGRAMA", Address: "Av. Perú 123", Phone: "999888777"}

func TestBuildOdontogram(t *testing.T) {
	entries := []ToothEntry{
		{Tooth: 21, Face: "Oclusal", State: "Caries"},
		{Tooth: 11, Face: "Vestibular", State: "Obturado", Notes: "resina"},
		{Tooth: 11, Face: "Mesial", State: "Sano"},
	}
	b, err := BuildOdontogram(clinic, Patient{FullName: "José Núñez", DNI: "12345678"}, entries, time.Now())
	if err != nil {
		t.Fatalf("BuildOdontogram: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Errorf("not a pdf: %q", b[:8])
	}
	// input order is preserved
	if entries[0].Tooth != 21 {
		t.Error("entries were reordered in place")
	}
}

func TestBuildOdontogramEmpty(t *testing.T) {
	b, err := BuildOdontogram(Clinic{Name: "X"}, Patient{FullName: "Ana"}, nil, time.Now())
	if err != nil || len(b) == 0 {
		t.Fatalf("empty chart: %v", err)
	}
}

func TestBuildStatement(t *testing.T) {
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := Statement{
		Patient:   Patient{FullName: "Ana"},
		Treatment: "Ortodoncia",
		Status:    "En progreso",
		StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		TotalCost: decimal.NewFromInt(1200),
		TotalPaid: decimal.NewFromInt(300),
		Payments: []StatementPayment{
			{PaidAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), Method: "Yape", Amount: decimal.NewFromInt(300)},
		},
		FormURL: "http://localhost:5173/ficha/abc",
	}
	b, err := BuildStatement(clinic, s, time.Now())
	if err != nil {
		t.Fatalf("BuildStatement: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Error("not a pdf")
	}
}

func TestMoney(t *testing.T) {
	if got := money(decimal.RequireFromString("12.5")); got != "S/ 12.50" {
		t.Errorf("got %q", got)
	}
	if got := joinNonEmpty(" | ", "", "a", "", "b"); got != "a | b" {
		t.Errorf("join: %q", got)
	}
}

func TestBuildFormReport(t *testing.T) {
	r := FormReport{
		Title:     "PROGRAMA DE SALUD",
		Patient:   Patient{FullName: "Lucía Peña", Age: "34 años"},
		UpdatedAt: time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC),
		Sections: []FormSection{
			{Title: "Hábitos", Lines: []FormLine{{"Fumador", "No"}, {"Bebedor", "Sí"}}},
			{Title: "Antecedentes", Lines: []FormLine{{"Medicación", "Ibuprofeno 400 mg cada 8 horas, según dolor"}}},
			{Title: "Actividades diarias"},
		},
	}
	b, err := BuildFormReport(clinic, r, time.Now())
	if err != nil {
		t.Fatalf("BuildFormReport: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Error("not a pdf")
	}
}
