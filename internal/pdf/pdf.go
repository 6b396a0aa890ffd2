// Package pdf renders the clinic's printable documents.
package pdf

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// Clinic is the letterhead printed on every document.
type Clinic struct {
	Name    string
	Title   string
	Address string
	Phone   string
	Email   string
}

type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc() *doc {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetMargins(15, 15, 15)
	f.SetAutoPageBreak(true, 15)
	// core fonts are cp1252; translate accents and ñ
	return &doc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

func (d *doc) header(c Clinic, subtitle string) {
	d.SetFont("Helvetica", "B", 14)
	d.CellFormat(0, 8, d.tr(c.Name), "", 1, "C", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	for _, line := range []string{c.Address, joinNonEmpty(" | ", c.Phone, c.Email)} {
		if line != "" {
			d.CellFormat(0, 5, d.tr(line), "", 1, "C", false, 0, "")
		}
	}
	d.Ln(3)
	d.SetFont("Helvetica", "B", 12)
	d.CellFormat(0, 8, d.tr(subtitle), "B", 1, "C", false, 0, "")
	d.Ln(3)
}

func (d *doc) field(label, value string) {
	d.SetFont("Helvetica", "B", 10)
	d.CellFormat(40, 6, d.tr(label), "", 0, "L", false, 0, "")
	d.SetFont("Helvetica", "", 10)
	d.CellFormat(0, 6, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *doc) tableHeader(widths []float64, cols ...string) {
	d.SetFont("Helvetica", "B", 9)
	d.SetFillColor(230, 230, 230)
	for i, c := range cols {
		d.CellFormat(widths[i], 7, d.tr(c), "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 9)
}

func (d *doc) row(widths []float64, aligns string, vals ...string) {
	for i, v := range vals {
		d.CellFormat(widths[i], 6, d.tr(v), "1", 0, string(aligns[i]), false, 0, "")
	}
	d.Ln(-1)
}

// qr draws a QR code for url at the current position, size mm wide.
func (d *doc) qr(url string, size float64) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	d.ImageOptions("qr", d.GetX(), d.GetY(), size, size, false, opts, 0, "")
	d.SetY(d.GetY() + size + 2)
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
