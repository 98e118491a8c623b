package negotiation

import (
	"testing"
	"time"
)

func TestPaymentGateUnlockOrderIndependent(t *testing.T) {
	tests := []struct {
		name  string
		first Role
	}{
		{name: "buyer pays first", first: RoleBuyer},
		{name: "seller pays first", first: RoleSeller},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewPaymentGate()
			g.Update(false, false, nil, true, false)

			second := RoleSeller
			if tt.first == RoleSeller {
				second = RoleBuyer
			}

			g.RecordPayment(tt.first)
			if g.UnlockedForLocation() {
				t.Error("one payment must not unlock location negotiation")
			}
			g.RecordPayment(second)
			if !g.UnlockedForLocation() {
				t.Error("both payments must unlock location negotiation")
			}
		})
	}
}

func TestPaymentGateRequiresTimeAccepted(t *testing.T) {
	g := NewPaymentGate()
	g.Update(true, true, nil, false, false)

	if g.UnlockedForLocation() {
		t.Error("payments without an accepted time must not unlock location negotiation")
	}
	if !g.BothPaid() {
		t.Error("both flags should be set")
	}
}

func TestPaymentGateLocksAfterLocationAccepted(t *testing.T) {
	g := NewPaymentGate()
	g.Update(true, true, nil, true, false)
	if !g.UnlockedForLocation() {
		t.Fatal("gate should be open")
	}

	g.Update(true, true, nil, true, true)
	if g.UnlockedForLocation() {
		t.Error("an accepted location closes the gate for further proposals")
	}
}

func TestPaymentGateConsumeUnlockOnce(t *testing.T) {
	g := NewPaymentGate()
	g.Update(false, false, nil, true, false)
	if g.ConsumeUnlock() {
		t.Error("no unlock event before both payments")
	}

	g.RecordPayment(RoleBuyer)
	g.RecordPayment(RoleSeller)

	if !g.ConsumeUnlock() {
		t.Error("expected one unlock event after crossing to both paid")
	}
	if g.ConsumeUnlock() {
		t.Error("unlock event must fire exactly once")
	}

	// A later fetch re-reporting both paid must not re-raise the event.
	g.Update(true, true, nil, true, false)
	if g.ConsumeUnlock() {
		t.Error("re-reported payments must not raise a second unlock event")
	}
}

func TestPaymentGateFlagsNeverRegress(t *testing.T) {
	g := NewPaymentGate()
	g.Update(true, false, nil, true, false)
	if !g.BuyerPaid() {
		t.Fatal("buyer flag should be set")
	}

	// A fetch claiming the buyer has not paid must not un-pay them.
	g.Update(false, false, nil, true, false)
	if !g.BuyerPaid() {
		t.Error("payment flags only move false to true")
	}
}

func TestPaymentGateDeadlineClearsOnBothPaid(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	g := NewPaymentGate()
	g.Update(true, false, &deadline, true, false)

	if g.Deadline() == nil {
		t.Fatal("deadline should be tracked while a payment is outstanding")
	}
	if text, ok := g.RemainingTime(deadline.Add(-30 * time.Minute)); !ok || text != "30m remaining" {
		t.Errorf("expected 30m remaining, got %q ok=%t", text, ok)
	}

	g.RecordPayment(RoleSeller)
	if g.Deadline() != nil {
		t.Error("deadline must clear once both fees are paid")
	}
	if _, ok := g.RemainingTime(deadline); ok {
		t.Error("no remaining-time string without a deadline")
	}
}
