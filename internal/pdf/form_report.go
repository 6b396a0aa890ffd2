package pdf

import "time"

type FormLine struct {
	Label string
	Value string
}

type FormSection struct {
	Title string
	Lines []FormLine
}

// FormReport is a per-patient questionnaire printed as titled sections.
type FormReport struct {
	Title     string
	Patient   Patient
	UpdatedAt time.Time
	Sections  []FormSection
}

// BuildFormReport renders r. Sections without answers print a placeholder line.
func BuildFormReport(c Clinic, r FormReport, printedAt time.Time) ([]byte, error) {
	d := newDoc()
	d.AddPage()
	d.header(c, r.Title)

	d.field("Paciente:", r.Patient.FullName)
	if r.Patient.DNI != "" {
		d.field("DNI:", r.Patient.DNI)
	}
	if r.Patient.Age != "" {
		d.field("Edad:", r.Patient.Age)
	}
	if !r.UpdatedAt.IsZero() {
		d.field("Actualizado:", r.UpdatedAt.Format("02/01/2006 15:04"))
	}
	d.field("Emitido:", printedAt.Format("02/01/2006 15:04"))

	for _, s := range r.Sections {
		d.Ln(3)
		d.SetFont("Helvetica", "B", 11)
		d.SetFillColor(230, 230, 230)
		d.CellFormat(0, 7, d.tr(s.Title), "", 1, "L", true, 0, "")
		d.SetFont("Helvetica", "", 10)
		if len(s.Lines) == 0 {
			d.CellFormat(0, 6, d.tr("Sin datos registrados."), "", 1, "L", false, 0, "")
			continue
		}
		for _, l := range s.Lines {
			if l.Value == "Sí" {
				d.MultiCell(0, 6, d.tr("[x] "+l.Label), "", "L", false)
				continue
			}
			d.SetFont("Helvetica", "B", 10)
			d.MultiCell(0, 6, d.tr(l.Label+":"), "", "L", false)
			d.SetFont("Helvetica", "", 10)
			d.MultiCell(0, 5, d.tr(l.Value), "", "L", false)
		}
	}
	return d.bytes()
}
