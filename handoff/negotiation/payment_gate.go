package negotiation

import (
	"sync"
	"time"

	"github.com/handoffapp/handoff/handoff/timeutil"
)

// PaymentGate tracks the two independent fee flags plus the payment deadline
// and answers whether downstream stages (location negotiation, messaging)
// are unlocked. Crossing into "both paid" raises a one-time event that the
// engine consumes to permit location-proposal actions.
type PaymentGate struct {
	mu            sync.Mutex
	buyerPaid     bool
	sellerPaid    bool
	deadline      *time.Time
	timeAccepted  bool
	locationFinal bool
	unlockPending bool
}

func NewPaymentGate() *PaymentGate {
	return &PaymentGate{}
}

// Update refreshes the gate from the latest committed negotiation and
// proposal state. Flags only move false to true; a fetch can never un-pay.
func (g *PaymentGate) Update(buyerPaid, sellerPaid bool, deadline *time.Time, timeAccepted, locationAccepted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wasBoth := g.buyerPaid && g.sellerPaid

	g.buyerPaid = g.buyerPaid || buyerPaid
	g.sellerPaid = g.sellerPaid || sellerPaid
	g.deadline = deadline
	g.timeAccepted = timeAccepted
	g.locationFinal = locationAccepted

	if !wasBoth && g.buyerPaid && g.sellerPaid {
		g.unlockPending = true
		g.deadline = nil
	}
}

// RecordPayment sets one party's flag. The deadline clears once both are
// true.
func (g *PaymentGate) RecordPayment(role Role) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wasBoth := g.buyerPaid && g.sellerPaid
	switch role {
	case RoleBuyer:
		g.buyerPaid = true
	case RoleSeller:
		g.sellerPaid = true
	}

	if !wasBoth && g.buyerPaid && g.sellerPaid {
		g.unlockPending = true
		g.deadline = nil
	}
}

func (g *PaymentGate) BuyerPaid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buyerPaid
}

func (g *PaymentGate) SellerPaid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sellerPaid
}

func (g *PaymentGate) BothPaid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buyerPaid && g.sellerPaid
}

// UnlockedForLocation reports whether location negotiation is open: the time
// proposal is accepted, both fees are paid, and no location proposal has
// already been accepted (re-negotiating an accepted location is a separate
// cancel action).
func (g *PaymentGate) UnlockedForLocation() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeAccepted && g.buyerPaid && g.sellerPaid && !g.locationFinal
}

// ConsumeUnlock returns true exactly once after the gate crosses from "not
// both paid" to "both paid".
func (g *PaymentGate) ConsumeUnlock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.unlockPending {
		return false
	}
	g.unlockPending = false
	return true
}

// SetAspects refreshes the non-payment gate inputs from the current
// negotiation and proposal state. Payment flags are untouched.
func (g *PaymentGate) SetAspects(timeAccepted, locationAccepted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeAccepted = timeAccepted
	g.locationFinal = locationAccepted
}

// paymentGateState is a value copy of the gate, kept alongside the rest of
// the pre-action state so a refused optimistic payment can be rolled back.
type paymentGateState struct {
	buyerPaid     bool
	sellerPaid    bool
	deadline      *time.Time
	timeAccepted  bool
	locationFinal bool
	unlockPending bool
}

func (g *PaymentGate) snapshot() paymentGateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := paymentGateState{
		buyerPaid:     g.buyerPaid,
		sellerPaid:    g.sellerPaid,
		timeAccepted:  g.timeAccepted,
		locationFinal: g.locationFinal,
		unlockPending: g.unlockPending,
	}
	if g.deadline != nil {
		d := *g.deadline
		st.deadline = &d
	}
	return st
}

func (g *PaymentGate) restore(st paymentGateState) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.buyerPaid = st.buyerPaid
	g.sellerPaid = st.sellerPaid
	g.deadline = st.deadline
	g.timeAccepted = st.timeAccepted
	g.locationFinal = st.locationFinal
	g.unlockPending = st.unlockPending
}

// RemainingTime returns the human remaining-payment string, or ok=false when
// no deadline is set.
func (g *PaymentGate) RemainingTime(now time.Time) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deadline == nil {
		return "", false
	}
	text, _ := timeutil.Remaining(now, *g.deadline)
	return text, true
}

// Deadline returns the current payment deadline, if any.
func (g *PaymentGate) Deadline() *time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deadline == nil {
		return nil
	}
	d := *g.deadline
	return &d
}
