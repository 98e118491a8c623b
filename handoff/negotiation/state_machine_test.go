package negotiation

import (
	"errors"
	"testing"
	"time"
)

var (
	testBase     = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	meetingTime  = testBase.Add(48 * time.Hour)
	counterTime1 = testBase.Add(72 * time.Hour)
)

func newTestNegotiation() *Negotiation {
	return NewNegotiation("neg-1", "listing-1", "buyer-1", "seller-1", meetingTime, testBase)
}

func TestNewNegotiation(t *testing.T) {
	n := newTestNegotiation()

	if n.Status != StatusProposed {
		t.Errorf("expected status %s, got %s", StatusProposed, n.Status)
	}
	if n.ProposedBy != "buyer-1" {
		t.Errorf("expected proposedBy buyer-1, got %s", n.ProposedBy)
	}
	if !n.CurrentProposedTime.Equal(meetingTime) {
		t.Errorf("expected proposed time %v, got %v", meetingTime, n.CurrentProposedTime)
	}
	if len(n.History) != 1 || n.History[0].Action != ActionProposed {
		t.Errorf("expected single proposed history entry, got %+v", n.History)
	}
}

func TestCounterAcceptFlow(t *testing.T) {
	n := newTestNegotiation()

	// Seller counters the buyer's proposal.
	if err := n.Counter("seller-1", counterTime1, testBase.Add(time.Minute)); err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if n.Status != StatusCountered {
		t.Errorf("expected status %s, got %s", StatusCountered, n.Status)
	}
	if n.ProposedBy != "seller-1" {
		t.Errorf("expected proposedBy seller-1, got %s", n.ProposedBy)
	}
	if !n.CurrentProposedTime.Equal(counterTime1) {
		t.Errorf("expected proposed time %v, got %v", counterTime1, n.CurrentProposedTime)
	}

	// Buyer accepts the counter, opening the payment window.
	acceptedAt := testBase.Add(2 * time.Minute)
	if err := n.Accept("buyer-1", 2*time.Hour, acceptedAt); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if n.Status != StatusAgreed {
		t.Errorf("expected status %s, got %s", StatusAgreed, n.Status)
	}
	if n.PaymentDeadline == nil || !n.PaymentDeadline.Equal(acceptedAt.Add(2*time.Hour)) {
		t.Errorf("expected deadline %v, got %v", acceptedAt.Add(2*time.Hour), n.PaymentDeadline)
	}

	if got := DeriveStatus(n.History); got != StatusAgreed {
		t.Errorf("history replay yields %s, status is %s", got, n.Status)
	}
}

func TestCounterGuards(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *Negotiation
		actor string
	}{
		{
			name:  "proposer cannot counter own proposal",
			setup: newTestNegotiation,
			actor: "buyer-1",
		},
		{
			name:  "stranger cannot counter",
			setup: newTestNegotiation,
			actor: "intruder",
		},
		{
			name: "cannot counter after agreement",
			setup: func() *Negotiation {
				n := newTestNegotiation()
				if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
					t.Fatalf("setup accept failed: %v", err)
				}
				return n
			},
			actor: "buyer-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.setup()
			err := n.Counter(tt.actor, counterTime1, testBase)
			if !errors.Is(err, ErrGuardViolation) {
				t.Errorf("expected guard violation, got %v", err)
			}
		})
	}
}

func TestAcceptOwnProposalRejected(t *testing.T) {
	n := newTestNegotiation()
	if err := n.Accept("buyer-1", 2*time.Hour, testBase); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected guard violation accepting own proposal, got %v", err)
	}
}

func TestPaymentFlow(t *testing.T) {
	n := newTestNegotiation()
	if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := n.RecordPayment("buyer-1", testBase.Add(time.Minute)); err != nil {
		t.Fatalf("buyer payment failed: %v", err)
	}
	if n.Status != StatusPaidPartial {
		t.Errorf("expected status %s after first payment, got %s", StatusPaidPartial, n.Status)
	}
	if n.PaymentDeadline == nil {
		t.Error("deadline must survive a single payment")
	}

	// Double payment by the same party is rejected.
	if err := n.RecordPayment("buyer-1", testBase.Add(2*time.Minute)); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected guard violation on double payment, got %v", err)
	}

	if err := n.RecordPayment("seller-1", testBase.Add(3*time.Minute)); err != nil {
		t.Fatalf("seller payment failed: %v", err)
	}
	if n.Status != StatusPaidComplete {
		t.Errorf("expected status %s after both payments, got %s", StatusPaidComplete, n.Status)
	}
	if n.PaymentDeadline != nil {
		t.Error("deadline must clear once both parties paid")
	}

	if got := DeriveStatus(n.History); got != StatusPaidComplete {
		t.Errorf("history replay yields %s, want %s", got, StatusPaidComplete)
	}
}

func TestRejectRules(t *testing.T) {
	t.Run("reject while proposed", func(t *testing.T) {
		n := newTestNegotiation()
		if err := n.Reject("seller-1", testBase); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if n.Status != StatusRejected {
			t.Errorf("expected status %s, got %s", StatusRejected, n.Status)
		}
	})

	t.Run("reject agreed before payment", func(t *testing.T) {
		n := newTestNegotiation()
		if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if err := n.Reject("buyer-1", testBase); err != nil {
			t.Errorf("reject of unpaid agreement should succeed, got %v", err)
		}
	})

	t.Run("reject blocked after payment", func(t *testing.T) {
		n := newTestNegotiation()
		if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if err := n.RecordPayment("buyer-1", testBase); err != nil {
			t.Fatalf("payment failed: %v", err)
		}
		if err := n.Reject("seller-1", testBase); !errors.Is(err, ErrGuardViolation) {
			t.Errorf("expected guard violation rejecting paid negotiation, got %v", err)
		}
	})

	t.Run("reject blocked in terminal state", func(t *testing.T) {
		n := newTestNegotiation()
		if err := n.Reject("seller-1", testBase); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if err := n.Reject("buyer-1", testBase); !errors.Is(err, ErrGuardViolation) {
			t.Errorf("expected guard violation on double reject, got %v", err)
		}
	})
}

func TestExpire(t *testing.T) {
	n := newTestNegotiation()
	if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Before the deadline nothing expires.
	if err := n.Expire(testBase.Add(time.Hour)); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected guard violation before deadline, got %v", err)
	}

	if err := n.Expire(testBase.Add(2*time.Hour + time.Second)); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if n.Status != StatusExpired {
		t.Errorf("expected status %s, got %s", StatusExpired, n.Status)
	}
	if !n.Status.Terminal() {
		t.Error("expired must be terminal")
	}
}

func TestExpireBlockedWhenFullyPaid(t *testing.T) {
	n := newTestNegotiation()
	if err := n.Accept("seller-1", 2*time.Hour, testBase); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := n.RecordPayment("buyer-1", testBase); err != nil {
		t.Fatalf("buyer payment failed: %v", err)
	}
	if err := n.RecordPayment("seller-1", testBase); err != nil {
		t.Fatalf("seller payment failed: %v", err)
	}

	if err := n.Expire(testBase.Add(3 * time.Hour)); !errors.Is(err, ErrGuardViolation) {
		t.Errorf("expected guard violation expiring a fully paid negotiation, got %v", err)
	}
}

func TestApplyAuthoritative(t *testing.T) {
	n := newTestNegotiation()
	n.PendingConfirmation = true

	deadline := testBase.Add(2 * time.Hour)
	history := []HistoryEntry{
		{Actor: "buyer-1", Action: ActionProposed, CreatedAt: testBase},
		{Actor: "seller-1", Action: ActionAccepted, CreatedAt: testBase.Add(time.Minute)},
	}

	n.ApplyAuthoritative(StatusAgreed, "buyer-1", meetingTime, false, false, &deadline, history)

	if n.Status != StatusAgreed {
		t.Errorf("expected status %s, got %s", StatusAgreed, n.Status)
	}
	if len(n.History) != 2 {
		t.Errorf("expected authoritative history to replace local, got %d entries", len(n.History))
	}
	if n.PendingConfirmation {
		t.Error("apply must clear the pending confirmation flag")
	}
}

func TestApplyAuthoritativeKeepsLongerLocalHistory(t *testing.T) {
	n := newTestNegotiation()
	if err := n.Counter("seller-1", counterTime1, testBase); err != nil {
		t.Fatalf("counter failed: %v", err)
	}

	// A stale fetch with a shorter history must not truncate local history.
	short := []HistoryEntry{{Actor: "buyer-1", Action: ActionProposed, CreatedAt: testBase}}
	n.ApplyAuthoritative(StatusProposed, "buyer-1", meetingTime, false, false, nil, short)

	if len(n.History) != 2 {
		t.Errorf("expected local history retained, got %d entries", len(n.History))
	}
}

func TestDeriveStatusTerminalShortCircuit(t *testing.T) {
	history := []HistoryEntry{
		{Action: ActionProposed},
		{Action: ActionAccepted},
		{Action: ActionBuyerPaid},
		{Action: ActionExpired},
	}
	if got := DeriveStatus(history); got != StatusExpired {
		t.Errorf("expected %s, got %s", StatusExpired, got)
	}
}
