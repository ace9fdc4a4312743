//go:build !integration

package model

import (
	"errors"
	"fmt"
	"testing"

	"momo-checkout/internal/domain"
)

func TestDetectCarrier(t *testing.T) {
	tests := []struct {
		phone string
		want  Carrier
	}{
		{"671234567", CarrierMTN},
		{"679999999", CarrierMTN},
		{"650000000", CarrierMTN},
		{"654999999", CarrierMTN},
		{"680000000", CarrierMTN},
		{"689999999", CarrierMTN},
		{"691234567", CarrierOrange},
		{"655000000", CarrierOrange},
		{"659999999", CarrierOrange},
		{"600000000", CarrierUnknown},
		{"660000000", CarrierUnknown},
		{"690", CarrierOrange},
		{"+237 671 23 45 67", CarrierMTN},
		{"237-691-234-567", CarrierOrange},
		{"(+237) 655 000 000", CarrierOrange},
		{"+23767", CarrierUnknown},
		{"67", CarrierUnknown},
		{"", CarrierUnknown},
		{"  - ( ) ", CarrierUnknown},
		{"237", CarrierUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.phone), func(t *testing.T) {
			if got := DetectCarrier(tt.phone); got != tt.want {
				t.Errorf("DetectCarrier(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestDetectCarrier_Ranges(t *testing.T) {
	// every 3-digit prefix, checked against the numbering plan
	for p := 600; p <= 699; p++ {
		phone := fmt.Sprintf("%d000000", p)
		var want Carrier
		switch {
		case p/10 == 67, p >= 650 && p <= 654, p >= 680 && p <= 689:
			want = CarrierMTN
		case p/10 == 69, p >= 655 && p <= 659:
			want = CarrierOrange
		}
		if got := DetectCarrier(phone); got != want {
			t.Errorf("DetectCarrier(%s) = %q, want %q", phone, got, want)
		}
	}
}

func TestDetectCarrier_Pure(t *testing.T) {
	inputs := []string{"671234567", "691234567", "600000000", "+237 655 1"}
	first := make([]Carrier, len(inputs))
	for i, in := range inputs {
		first[i] = DetectCarrier(in)
	}
	for round := 0; round < 3; round++ {
		for i := len(inputs) - 1; i >= 0; i-- {
			if got := DetectCarrier(inputs[i]); got != first[i] {
				t.Fatalf("round %d: DetectCarrier(%q) changed from %q to %q", round, inputs[i], first[i], got)
			}
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"671234567":          "671234567",
		"+237 671 234 567":   "671234567",
		"237671234567":       "671234567",
		"(+237) 69-123-4567": "691234567",
		" 6 7 1 ":            "671",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPromoResult_Normalize(t *testing.T) {
	const plan = 5000

	t.Run("valid result keeps final = plan - discount", func(t *testing.T) {
		got := PromoResult{Valid: true, DiscountAmount: 500, FinalAmount: 1}.Normalize(plan)
		if got.FinalAmount != 4500 || got.DiscountAmount != 500 || !got.Valid {
			t.Errorf("unexpected normalized result: %+v", got)
		}
	})

	t.Run("invalid result never carries a discount", func(t *testing.T) {
		got := PromoResult{Valid: false, DiscountAmount: 2000, FinalAmount: 3000, Reason: "Expired"}.Normalize(plan)
		if got.DiscountAmount != 0 || got.FinalAmount != plan || got.Reason != "Expired" {
			t.Errorf("unexpected normalized result: %+v", got)
		}
	})

	t.Run("discount is clamped to the plan amount", func(t *testing.T) {
		got := PromoResult{Valid: true, DiscountAmount: 9000}.Normalize(plan)
		if got.FinalAmount != 0 || got.DiscountAmount != plan {
			t.Errorf("unexpected normalized result: %+v", got)
		}
		got = PromoResult{Valid: true, DiscountAmount: -10}.Normalize(plan)
		if got.FinalAmount != plan || got.DiscountAmount != 0 {
			t.Errorf("unexpected normalized result: %+v", got)
		}
	})

	t.Run("failed promo", func(t *testing.T) {
		got := FailedPromo(plan)
		if got.Valid || got.FinalAmount != plan || got.Reason != PromoReasonValidationFailed {
			t.Errorf("unexpected failed promo: %+v", got)
		}
	})
}

func TestPaymentStatus_Transitions(t *testing.T) {
	allowed := [][2]PaymentStatus{
		{PaymentStatusIdle, PaymentStatusProcessing},
		{PaymentStatusProcessing, PaymentStatusPolling},
		{PaymentStatusProcessing, PaymentStatusFailed},
		{PaymentStatusPolling, PaymentStatusSuccess},
		{PaymentStatusPolling, PaymentStatusFailed},
		{PaymentStatusFailed, PaymentStatusProcessing},
	}
	for _, tr := range allowed {
		if !tr[0].CanTransition(tr[1]) {
			t.Errorf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	denied := [][2]PaymentStatus{
		{PaymentStatusIdle, PaymentStatusSuccess},
		{PaymentStatusIdle, PaymentStatusPolling},
		{PaymentStatusSuccess, PaymentStatusProcessing},
		{PaymentStatusPolling, PaymentStatusProcessing},
		{PaymentStatusFailed, PaymentStatusSuccess},
	}
	for _, tr := range denied {
		if tr[0].CanTransition(tr[1]) {
			t.Errorf("expected %s -> %s to be denied", tr[0], tr[1])
		}
	}
	if !PaymentStatusPolling.InFlight() || PaymentStatusFailed.InFlight() {
		t.Error("InFlight misclassifies statuses")
	}
}

func TestNewPlan(t *testing.T) {
	days := 30
	p, err := NewPlan("p1", " premium ", "Premium", 5000, &days)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if p.Slug != "premium" || p.IsZero() {
		t.Errorf("unexpected plan: %+v", p)
	}
	if _, err := NewPlan("p2", "basic", "Basic", 0, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero amount, got %v", err)
	}
	zero := 0
	if _, err := NewPlan("p3", "basic", "Basic", 100, &zero); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero duration, got %v", err)
	}
	var nilPlan *Plan
	if !nilPlan.IsZero() {
		t.Error("nil plan should be zero")
	}
}
