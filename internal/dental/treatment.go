package dental

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pendiente"
	StatusInProgress = "en_progreso"
	StatusCompleted  = "completado"
)

const (
	PaymentPending   = "pendiente"
	PaymentPartial   = "parcial"
	PaymentCompleted = "completado"
)

var (
	ErrInvalidStatus   = errors.New("estado de tratamiento inválido")
	ErrNegativeCost    = errors.New("el costo total no puede ser negativo")
	ErrEndBeforeStart  = errors.New("la fecha de fin no puede ser anterior a la fecha de inicio")
	ErrInvalidAmount   = errors.New("el monto debe ser mayor a cero")
	ErrInvalidMethod   = errors.New("método de pago inválido")
	ErrHasPayments     = errors.New("No se puede eliminar un tratamiento con pagos asociados.")
	ErrMissingTreatmnt = errors.New("nombre del tratamiento requerido")
)

var treatmentStatuses = map[string]string{
	StatusPending:    "Pendiente",
	StatusInProgress: "En progreso",
	StatusCompleted:  "Completado",
}

var paymentMethods = map[string]string{
	"efectivo":      "Efectivo",
	"yape":          "Yape",
	"plin":          "Plin",
	"transferencia": "Transferencia",
	"tarjeta":       "Tarjeta",
	"otro":          "Otro",
}

func IsValidTreatmentStatus(s string) bool {
	_, ok := treatmentStatuses[s]
	return ok
}

func TreatmentStatusLabel(s string) string {
	if l, ok := treatmentStatuses[s]; ok {
		return l
	}
	return s
}

func IsValidPaymentMethod(m string) bool {
	_, ok := paymentMethods[m]
	return ok
}

func PaymentMethodLabel(m string) string {
	if l, ok := paymentMethods[m]; ok {
		return l
	}
	return m
}

// ResolveStatus applies the end-date rules to a requested status.
// On edit, a completed treatment without end date goes back to en_progreso.
func ResolveStatus(requested string, endDate *time.Time, editing bool) string {
	if requested == "" {
		requested = StatusPending
	}
	if endDate != nil {
		return StatusCompleted
	}
	if editing && requested == StatusCompleted {
		return StatusInProgress
	}
	return requested
}

// ValidateTreatment checks the editable fields of a treatment.
func ValidateTreatment(name, status string, cost decimal.Decimal, start time.Time, end *time.Time) error {
	if name == "" {
		return ErrMissingTreatmnt
	}
	if cost.IsNegative() {
		return ErrNegativeCost
	}
	if status != "" && !IsValidTreatmentStatus(status) {
		return ErrInvalidStatus
	}
	if end != nil && end.Before(start) {
		return ErrEndBeforeStart
	}
	return nil
}

func ValidatePayment(amount decimal.Decimal, method string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !IsValidPaymentMethod(method) {
		return ErrInvalidMethod
	}
	return nil
}

// Balance holds the payment figures derived from a treatment's cost and payments.
type Balance struct {
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Debt          decimal.Decimal `json:"debt"`
	PercentPaid   float64         `json:"percent_paid"`
	PaymentStatus string          `json:"payment_status"`
}

func ComputeBalance(cost, paid decimal.Decimal) Balance {
	b := Balance{
		TotalCost: cost,
		TotalPaid: paid,
		Debt:      cost.Sub(paid),
	}
	if cost.IsZero() {
		b.PercentPaid = 100
	} else {
		b.PercentPaid = paid.Div(cost).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	switch {
	case !paid.IsPositive():
		b.PaymentStatus = PaymentPending
	case paid.GreaterThanOrEqual(cost):
		b.PaymentStatus = PaymentCompleted
	default:
		b.PaymentStatus = PaymentPartial
	}
	return b
}

// Percent returns part/whole*100 rounded to one decimal, 0 when whole is zero.
func Percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}
