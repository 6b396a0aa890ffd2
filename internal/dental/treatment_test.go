package dental

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestResolveStatus(t *testing.T) {
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		requested string
		end       *time.Time
		editing   bool
		want      string
	}{
		{"default pending", "", nil, false, StatusPending},
		{"end date completes", StatusPending, &end, false, StatusCompleted},
		{"end date completes on edit", StatusInProgress, &end, true, StatusCompleted},
		{"create completed without end keeps", StatusCompleted, nil, false, StatusCompleted},
		{"edit completed without end reopens", StatusCompleted, nil, true, StatusInProgress},
		{"edit in progress stays", StatusInProgress, nil, true, StatusInProgress},
	}
	for _, c := range cases {
		if got := ResolveStatus(c.requested, c.end, c.editing); got != c.want {
			t.Errorf("%s: got %s want %s", c.name, got, c.want)
		}
	}
}

func TestComputeBalance(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		cost, paid string
		debt       string
		percent    float64
		status     string
	}{
		{"0", "0", "0", 100, PaymentPending},
		{"300", "0", "300", 0, PaymentPending},
		{"300", "100", "200", 33.3, PaymentPartial},
		{"300", "200", "100", 66.7, PaymentPartial},
		{"300", "300", "0", 100, PaymentCompleted},
		{"300", "350", "-50", 116.7, PaymentCompleted},
	}
	for _, c := range cases {
		b := ComputeBalance(d(c.cost), d(c.paid))
		if !b.Debt.Equal(d(c.debt)) {
			t.Errorf("cost=%s paid=%s debt=%s want %s", c.cost, c.paid, b.Debt, c.debt)
		}
		if b.PercentPaid != c.percent {
			t.Errorf("cost=%s paid=%s percent=%v want %v", c.cost, c.paid, b.PercentPaid, c.percent)
		}
		if b.PaymentStatus != c.status {
			t.Errorf("cost=%s paid=%s status=%s want %s", c.cost, c.paid, b.PaymentStatus, c.status)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.NewFromInt(1), decimal.Zero); got != 0 {
		t.Fatalf("zero whole: got %v", got)
	}
	if got := Percent(decimal.NewFromInt(2), decimal.NewFromInt(3)); got != 66.7 {
		t.Fatalf("got %v", got)
	}
}

func TestValidateTreatment(t *testing.T) {
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	if err := ValidateTreatment("Limpieza", "", decimal.NewFromInt(80), start, nil); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if err := ValidateTreatment("", "", decimal.Zero, start, nil); err != ErrMissingTreatmnt {
		t.Fatalf("missing name: %v", err)
	}
	if err := ValidateTreatment("X", "", decimal.NewFromInt(-1), start, nil); err != ErrNegativeCost {
		t.Fatalf("negative: %v", err)
	}
	if err := ValidateTreatment("X", "cancelado", decimal.Zero, start, nil); err != ErrInvalidStatus {
		t.Fatalf("status: %v", err)
	}
	if err := ValidateTreatment("X", "", decimal.Zero, start, &before); err != ErrEndBeforeStart {
		t.Fatalf("end before start: %v", err)
	}
}

func TestValidatePayment(t *testing.T) {
	if err := ValidatePayment(decimal.NewFromInt(50), "yape"); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if err := ValidatePayment(decimal.Zero, "yape"); err != ErrInvalidAmount {
		t.Fatalf("zero amount: %v", err)
	}
	if err := ValidatePayment(decimal.NewFromInt(5), "bitcoin"); err != ErrInvalidMethod {
		t.Fatalf("method: %v", err)
	}
}
