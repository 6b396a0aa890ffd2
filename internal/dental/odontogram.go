package dental

import "errors"

var (
	ErrIncompleteData = errors.New("Datos incompletos")
	ErrInvalidTooth   = errors.New("número de diente inválido")
	ErrInvalidFace    = errors.New("cara de diente inválida")
	ErrInvalidState   = errors.New("estado de diente inválido")
)

var faces = map[string]string{
	"V": "Vestibular",
	"L": "Lingual/Palatino",
	"M": "Mesial",
	"D": "Distal",
	"O": "Oclusal",
	"C": "Completo",
}

// Order matters: it is the order shown in legends and PDFs.
var toothStates = []struct{ Code, Label string }{
	{"sano", "Sano"},
	{"caries", "Caries"},
	{"obturado", "Obturado"},
	{"corona", "Corona"},
	{"ausente", "Ausente"},
	{"endodoncia", "Endodoncia"},
	{"protesis", "Prótesis"},
	{"sellante", "Sellante"},
	{"bracket", "Bracket"},
	{"retenedor", "Retenedor"},
	{"aparato", "Aparato"},
	{"extraccion_programada", "Extracción programada"},
	{"fractura", "Fractura"},
	{"implante", "Implante"},
	{"puente", "Puente"},
	{"protesis_parcial", "Prótesis parcial"},
	{"protesis_total", "Prótesis total"},
	{"en_erupcion", "En erupción"},
	{"retenido", "Retenido"},
}

// IsValidTooth accepts FDI numbers: permanent 11-18..41-48, primary 51-55..81-85.
func IsValidTooth(n int) bool {
	q, t := n/10, n%10
	switch {
	case q >= 1 && q <= 4:
		return t >= 1 && t <= 8
	case q >= 5 && q <= 8:
		return t >= 1 && t <= 5
	}
	return false
}

func IsValidFace(f string) bool {
	_, ok := faces[f]
	return ok
}

func FaceLabel(f string) string {
	if l, ok := faces[f]; ok {
		return l
	}
	return f
}

func IsValidToothState(s string) bool {
	for _, st := range toothStates {
		if st.Code == s {
			return true
		}
	}
	return false
}

func ToothStateLabel(s string) string {
	for _, st := range toothStates {
		if st.Code == s {
			return st.Label
		}
	}
	return s
}

// ToothStates returns the state catalogue in display order.
func ToothStates() []struct{ Code, Label string } {
	out := make([]struct{ Code, Label string }, len(toothStates))
	copy(out, toothStates)
	return out
}

// ValidateToothEntry checks one odontogram write. Zero values count as missing.
func ValidateToothEntry(tooth int, face, state string) error {
	if tooth == 0 || face == "" || state == "" {
		return ErrIncompleteData
	}
	if !IsValidTooth(tooth) {
		return ErrInvalidTooth
	}
	if !IsValidFace(face) {
		return ErrInvalidFace
	}
	if !IsValidToothState(state) {
		return ErrInvalidState
	}
	return nil
}
