package negotiation

import (
	"fmt"
	"time"
)

// DefaultPaymentWindow is how long both parties have to pay the fee after a
// time proposal is accepted.
const DefaultPaymentWindow = 2 * time.Hour

// NewNegotiation creates the local record for a first time proposal. The
// caller must have verified that no live negotiation exists for the listing;
// the authority enforces the same rule remotely.
func NewNegotiation(id, listingID, buyerID, sellerID string, proposedTime time.Time, now time.Time) *Negotiation {
	t := proposedTime
	return &Negotiation{
		ID:                  id,
		ListingID:           listingID,
		BuyerID:             buyerID,
		SellerID:            sellerID,
		Status:              StatusProposed,
		CurrentProposedTime: proposedTime,
		ProposedBy:          buyerID,
		History: []HistoryEntry{{
			Actor:        buyerID,
			Action:       ActionProposed,
			ProposedTime: &t,
			CreatedAt:    now,
		}},
	}
}

// Counter moves the negotiation to countered with a new proposed time. Only
// the party that did not make the current proposal may counter.
func (n *Negotiation) Counter(actor string, proposedTime time.Time, now time.Time) error {
	if n.Status != StatusProposed && n.Status != StatusCountered {
		return fmt.Errorf("%w: cannot counter in status %s", ErrGuardViolation, n.Status)
	}
	if actor == n.ProposedBy {
		return fmt.Errorf("%w: cannot counter your own proposal", ErrGuardViolation)
	}
	if _, ok := n.RoleOf(actor); !ok {
		return fmt.Errorf("%w: %s is not a party to this negotiation", ErrGuardViolation, actor)
	}

	n.Status = StatusCountered
	n.CurrentProposedTime = proposedTime
	n.ProposedBy = actor
	t := proposedTime
	n.appendHistory(HistoryEntry{Actor: actor, Action: ActionCountered, ProposedTime: &t, CreatedAt: now})
	return nil
}

// Accept agrees to the current proposed time and opens the payment window.
func (n *Negotiation) Accept(actor string, window time.Duration, now time.Time) error {
	if n.Status != StatusProposed && n.Status != StatusCountered {
		return fmt.Errorf("%w: cannot accept in status %s", ErrGuardViolation, n.Status)
	}
	if actor == n.ProposedBy {
		return fmt.Errorf("%w: cannot accept your own proposal", ErrGuardViolation)
	}
	if _, ok := n.RoleOf(actor); !ok {
		return fmt.Errorf("%w: %s is not a party to this negotiation", ErrGuardViolation, actor)
	}

	n.Status = StatusAgreed
	deadline := now.Add(window)
	n.PaymentDeadline = &deadline
	n.appendHistory(HistoryEntry{Actor: actor, Action: ActionAccepted, CreatedAt: now})
	return nil
}

// Reject terminates the negotiation. Allowed from proposed, countered, and
// agreed as long as nobody has paid yet.
func (n *Negotiation) Reject(actor string, now time.Time) error {
	switch n.Status {
	case StatusProposed, StatusCountered:
	case StatusAgreed:
		if n.BuyerPaid || n.SellerPaid {
			return fmt.Errorf("%w: cannot reject after a payment was made", ErrGuardViolation)
		}
	default:
		return fmt.Errorf("%w: cannot reject in status %s", ErrGuardViolation, n.Status)
	}
	if _, ok := n.RoleOf(actor); !ok {
		return fmt.Errorf("%w: %s is not a party to this negotiation", ErrGuardViolation, actor)
	}

	n.Status = StatusRejected
	n.appendHistory(HistoryEntry{Actor: actor, Action: ActionRejected, CreatedAt: now})
	return nil
}

// RecordPayment marks the actor's fee as paid. Payment flags only ever move
// false to true. The second payment clears the deadline.
func (n *Negotiation) RecordPayment(actor string, now time.Time) error {
	if n.Status != StatusAgreed && n.Status != StatusPaidPartial {
		return fmt.Errorf("%w: cannot pay in status %s", ErrGuardViolation, n.Status)
	}

	role, ok := n.RoleOf(actor)
	if !ok {
		return fmt.Errorf("%w: %s is not a party to this negotiation", ErrGuardViolation, actor)
	}

	var action ActionKind
	switch role {
	case RoleBuyer:
		if n.BuyerPaid {
			return fmt.Errorf("%w: buyer already paid", ErrGuardViolation)
		}
		n.BuyerPaid = true
		action = ActionBuyerPaid
	case RoleSeller:
		if n.SellerPaid {
			return fmt.Errorf("%w: seller already paid", ErrGuardViolation)
		}
		n.SellerPaid = true
		action = ActionSellerPaid
	}

	if n.BuyerPaid && n.SellerPaid {
		n.Status = StatusPaidComplete
		n.PaymentDeadline = nil
	} else {
		n.Status = StatusPaidPartial
	}
	n.appendHistory(HistoryEntry{Actor: actor, Action: action, CreatedAt: now})
	return nil
}

// Expire is the system-driven transition once the payment deadline passes
// without both fees paid. The local copy only shadows it for display; the
// authoritative expired status is final once confirmed by reconciliation.
func (n *Negotiation) Expire(now time.Time) error {
	if n.Status != StatusAgreed && n.Status != StatusPaidPartial {
		return fmt.Errorf("%w: cannot expire in status %s", ErrGuardViolation, n.Status)
	}
	if n.BuyerPaid && n.SellerPaid {
		return fmt.Errorf("%w: cannot expire a fully paid negotiation", ErrGuardViolation)
	}
	if n.PaymentDeadline == nil || !now.After(*n.PaymentDeadline) {
		return fmt.Errorf("%w: payment deadline has not passed", ErrGuardViolation)
	}

	n.Status = StatusExpired
	n.appendHistory(HistoryEntry{Action: ActionExpired, CreatedAt: now})
	return nil
}

// Cancel terminates the negotiation from any non-terminal state.
func (n *Negotiation) Cancel(actor string, now time.Time) error {
	if n.Status.Terminal() {
		return fmt.Errorf("%w: cannot cancel in status %s", ErrGuardViolation, n.Status)
	}
	if _, ok := n.RoleOf(actor); !ok {
		return fmt.Errorf("%w: %s is not a party to this negotiation", ErrGuardViolation, actor)
	}

	n.Status = StatusCancelled
	n.appendHistory(HistoryEntry{Actor: actor, Action: ActionCancelled, CreatedAt: now})
	return nil
}

// ApplyAuthoritative replaces the negotiation-level state wholesale with the
// latest fetch. Status, ProposedBy and CurrentProposedTime always move as one
// tuple; patching them independently can surface illegal intermediate states.
func (n *Negotiation) ApplyAuthoritative(status Status, proposedBy string, proposedTime time.Time, buyerPaid, sellerPaid bool, deadline *time.Time, history []HistoryEntry) {
	n.Status = status
	n.ProposedBy = proposedBy
	n.CurrentProposedTime = proposedTime
	n.BuyerPaid = buyerPaid
	n.SellerPaid = sellerPaid
	n.PaymentDeadline = deadline
	if len(history) >= len(n.History) {
		n.History = history
	}
	n.PendingConfirmation = false
}

func (n *Negotiation) appendHistory(e HistoryEntry) {
	n.History = append(n.History, e)
}
