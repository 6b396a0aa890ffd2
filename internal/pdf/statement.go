package pdf

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatementPayment struct {
	PaidAt time.Time
	Method string
	Amount decimal.Decimal
	Note   string
}

type Statement struct {
	Patient     Patient
	Treatment   string
	Description string
	Status      string
	StartDate   time.Time
	EndDate     *time.Time
	TotalCost   decimal.Decimal
	TotalPaid   decimal.Decimal
	Payments    []StatementPayment
	// FormURL, when set, is printed as a QR code for the medical form.
	FormURL string
}

func money(d decimal.Decimal) string { return "S/ " + d.StringFixed(2) }

// BuildStatement renders a treatment's account statement.
func BuildStatement(c Clinic, s Statement, printedAt time.Time) ([]byte, error) {
	d := newDoc()
	d.AddPage()
	d.header(c, "ESTADO DE CUENTA")

	d.field("Paciente:", s.Patient.FullName)
	if s.Patient.DNI != "" {
		d.field("DNI:", s.Patient.DNI)
	}
	d.field("Tratamiento:", s.Treatment)
	if s.Description != "" {
		d.field("Descripción:", s.Description)
	}
	d.field("Estado:", s.Status)
	period := s.StartDate.Format("02/01/2006")
	if s.EndDate != nil {
		period += " - " + s.EndDate.Format("02/01/2006")
	}
	d.field("Periodo:", period)
	d.field("Emitido:", printedAt.Format("02/01/2006 15:04"))
	d.Ln(4)

	widths := []float64{35, 40, 35, 70}
	d.tableHeader(widths, "Fecha", "Método", "Monto", "Nota")
	if len(s.Payments) == 0 {
		d.CellFormat(180, 6, d.tr("Sin pagos registrados."), "1", 1, "C", false, 0, "")
	}
	for _, p := range s.Payments {
		d.row(widths, "CLRL", p.PaidAt.Format("02/01/2006"), p.Method, money(p.Amount), p.Note)
	}
	d.Ln(4)

	d.field("Costo total:", money(s.TotalCost))
	d.field("Total pagado:", money(s.TotalPaid))
	d.field("Saldo:", money(s.TotalCost.Sub(s.TotalPaid)))

	if s.FormURL != "" {
		d.Ln(6)
		d.SetFont("Helvetica", "", 9)
		d.MultiCell(0, 5, d.tr("Escanee el código para completar su ficha médica:"), "", "L", false)
		d.qr(s.FormURL, 30)
	}
	return d.bytes()
}
