package pdf

import (
	"sort"
	"strconv"
	"time"
)

type Patient struct {
	FullName  string
	DNI       string
	Age       string
	Phone     string
	BirthDate string
}

// ToothEntry is one current face state of the chart.
type ToothEntry struct {
	Tooth     int
	Face      string
	State     string
	Notes     string
	UpdatedAt time.Time
}

// BuildOdontogram renders the current chart grouped by tooth.
func BuildOdontogram(c Clinic, p Patient, entries []ToothEntry, printedAt time.Time) ([]byte, error) {
	d := newDoc()
	d.AddPage()
	title := c.Title
	if title == "" {
		title = "ODONTOGRAMA"
	}
	d.header(c, title)

	d.field("Paciente:", p.FullName)
	if p.DNI != "" {
		d.field("DNI:", p.DNI)
	}
	if p.Age != "" {
		d.field("Edad:", p.Age)
	}
	if p.Phone != "" {
		d.field("Teléfono:", p.Phone)
	}
	d.field("Fecha:", printedAt.Format("02/01/2006 15:04"))
	d.Ln(4)

	sorted := append([]ToothEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tooth != sorted[j].Tooth {
			return sorted[i].Tooth < sorted[j].Tooth
		}
		return sorted[i].Face < sorted[j].Face
	})

	widths := []float64{20, 35, 45, 80}
	d.tableHeader(widths, "Diente", "Cara", "Estado", "Observaciones")
	if len(sorted) == 0 {
		d.CellFormat(180, 6, d.tr("Sin registros en el odontograma."), "1", 1, "C", false, 0, "")
	}
	prev := 0
	for _, e := range sorted {
		tooth := ""
		if e.Tooth != prev {
			tooth = strconv.Itoa(e.Tooth)
			prev = e.Tooth
		}
		d.row(widths, "CLLL", tooth, e.Face, e.State, e.Notes)
	}
	return d.bytes()
}
