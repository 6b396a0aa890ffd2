package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger holds the patient ids created by SeedLedger.
type Ledger struct {
	Ana, Beto, Carla, Diego uuid.UUID
}

// SeedLedger loads a small clinic in Lima time (UTC-5):
//
//	Ana    created 2024-12-10; Ortodoncia 1000 paid 300+200, Limpieza 100 paid 150
//	Beto   created 2025-01-20; Limpieza 200 unpaid
//	Carla  created 2025-02-28 23:30 local (March 1 in UTC); Endodoncia 400 paid in full
//	Diego  created 2024-05-01; Control 50 paid in full, nothing since June 2024
//
// The first Ortodoncia payment is 2025-01-31 23:00 local, which is February in UTC.
func SeedLedger(t testing.TB, db *gorm.DB) Ledger {
	t.Helper()
	l := Ledger{Ana: uuid.New(), Beto: uuid.New(), Carla: uuid.New(), Diego: uuid.New()}

	exec := func(q string, args ...interface{}) {
		t.Helper()
		if err := db.Exec(q, args...).Error; err != nil {
			t.Fatalf("seed %q: %v", q, err)
		}
	}
	patient := func(id uuid.UUID, name, createdAt string) {
		exec(`INSERT INTO patients (id, full_name, phone, created_at, updated_at) VALUES (?, ?, '999000111', ?::timestamptz, ?::timestamptz)`,
			id, name, createdAt, createdAt)
	}
	treatment := func(patientID uuid.UUID, name, cost, start, status string) uuid.UUID {
		id := uuid.New()
		exec(`INSERT INTO treatments (id, patient_id, name, total_cost, start_date, status) VALUES (?, ?, ?, ?::numeric, ?::date, ?)`,
			id, patientID, name, cost, start, status)
		return id
	}
	payment := func(treatmentID uuid.UUID, amount, paidAt, method string) {
		exec(`INSERT INTO payments (treatment_id, amount, paid_at, method) VALUES (?, ?::numeric, ?::timestamptz, ?)`,
			treatmentID, amount, paidAt, method)
	}

	patient(l.Ana, "Ana Quispe", "2024-12-10T15:00:00Z")
	patient(l.Beto, "Beto Ramos", "2025-01-20T15:00:00Z")
	patient(l.Carla, "Carla Soto", "2025-03-01T04:30:00Z")
	patient(l.Diego, "Diego Vega", "2024-05-01T15:00:00Z")

	orto := treatment(l.Ana, "Ortodoncia", "1000", "2025-01-05", "en_progreso")
	payment(orto, "300", "2025-02-01T04:00:00Z", "yape")
	payment(orto, "200", "2025-02-10T15:00:00Z", "efectivo")

	overpaid := treatment(l.Ana, "Limpieza", "100", "2025-02-01", "completado")
	payment(overpaid, "150", "2025-02-01T15:00:00Z", "efectivo")

	treatment(l.Beto, "Limpieza", "200", "2025-03-02", "pendiente")

	endo := treatment(l.Carla, "Endodoncia", "400", "2025-03-03", "completado")
	payment(endo, "400", "2025-03-05T15:00:00Z", "tarjeta")

	control := treatment(l.Diego, "Control", "50", "2024-06-01", "completado")
	payment(control, "50", "2024-06-02T15:00:00Z", "plin")
	return l
}
