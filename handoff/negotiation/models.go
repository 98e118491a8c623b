// Package negotiation implements the client-side shadow of the authority's
// bilateral negotiation state machine: optimistic local actions, periodic
// reconciliation against authoritative state, payment gating and the chat log.
package negotiation

import (
	"context"
	"errors"
	"time"

	"github.com/handoffapp/handoff/handoff/api"
)

// Authority is the remote negotiation service as seen by the engine. The
// concrete implementation is api.Client; tests substitute a mock.
type Authority interface {
	ProposeNegotiation(ctx context.Context, listingID string, proposedTime time.Time) (*api.ProposeNegotiationResponse, error)
	GetNegotiation(ctx context.Context, negotiationID string) (*api.GetNegotiationResponse, error)
	AcceptProposal(ctx context.Context, negotiationID string) (*api.ActionResponse, error)
	RejectNegotiation(ctx context.Context, negotiationID string) (*api.ActionResponse, error)
	CounterProposal(ctx context.Context, negotiationID string, proposedTime time.Time) (*api.ActionResponse, error)
	PayNegotiationFee(ctx context.Context, negotiationID string) (*api.ActionResponse, error)
	GetMeetingProposals(ctx context.Context, listingID string) (*api.MeetingProposalsResponse, error)
	ProposeMeeting(ctx context.Context, listingID string, lat, lng float64, name, message string) (*api.ActionResponse, error)
	RespondToMeeting(ctx context.Context, proposalID, response string) (*api.ActionResponse, error)
	GetContactMessages(ctx context.Context, listingID string) (*api.MessagesResponse, error)
	SendContactMessage(ctx context.Context, listingID, text string) (*api.ActionResponse, error)
}

var (
	// ErrGuardViolation marks a precondition failure on a local action. It is
	// a caller bug, rejected synchronously and never sent to the network.
	ErrGuardViolation = errors.New("guard violation")

	// ErrUnknownNegotiation marks a proposal referencing a negotiation the
	// store was never told about.
	ErrUnknownNegotiation = errors.New("unknown negotiation")
)

type Status string

const (
	StatusProposed     Status = "proposed"
	StatusCountered    Status = "countered"
	StatusAgreed       Status = "agreed"
	StatusPaidPartial  Status = "paid_partial"
	StatusPaidComplete Status = "paid_complete"
	StatusRejected     Status = "rejected"
	StatusExpired      Status = "expired"
	StatusCancelled    Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusCancelled, StatusPaidComplete:
		return true
	}
	return false
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type ActionKind string

const (
	ActionProposed   ActionKind = "proposed"
	ActionCountered  ActionKind = "counter_proposal"
	ActionAccepted   ActionKind = "accepted"
	ActionRejected   ActionKind = "rejected"
	ActionBuyerPaid  ActionKind = "buyer_paid"
	ActionSellerPaid ActionKind = "seller_paid"
	ActionExpired    ActionKind = "expired"
	ActionCancelled  ActionKind = "cancelled"
)

// HistoryEntry is one transition event. History is append-only and never
// reordered.
type HistoryEntry struct {
	Actor        string
	Action       ActionKind
	ProposedTime *time.Time
	CreatedAt    time.Time
}

// Negotiation is the local shadow of one (listing, buyer, seller) agreement
// record. All mutation goes through the transition methods in
// state_machine.go or through ApplyAuthoritative.
type Negotiation struct {
	ID                  string
	ListingID           string
	BuyerID             string
	SellerID            string
	Status              Status
	CurrentProposedTime time.Time
	ProposedBy          string
	BuyerPaid           bool
	SellerPaid          bool
	PaymentDeadline     *time.Time
	History             []HistoryEntry

	// PendingConfirmation is set when an optimistic local transition has
	// been applied but its submission has not yet been confirmed by a
	// reconciliation fetch.
	PendingConfirmation bool
}

// RoleOf maps a party id onto its side of the negotiation.
func (n *Negotiation) RoleOf(partyID string) (Role, bool) {
	switch partyID {
	case n.BuyerID:
		return RoleBuyer, true
	case n.SellerID:
		return RoleSeller, true
	}
	return "", false
}

// DeriveStatus replays history from the initial proposed event and returns
// the status it implies. Used to check the history/status invariant after
// merges.
func DeriveStatus(history []HistoryEntry) Status {
	status := Status("")
	paid := 0
	for _, e := range history {
		switch e.Action {
		case ActionProposed:
			status = StatusProposed
		case ActionCountered:
			status = StatusCountered
		case ActionAccepted:
			status = StatusAgreed
		case ActionBuyerPaid, ActionSellerPaid:
			paid++
			if paid >= 2 {
				status = StatusPaidComplete
			} else {
				status = StatusPaidPartial
			}
		case ActionRejected:
			return StatusRejected
		case ActionExpired:
			return StatusExpired
		case ActionCancelled:
			return StatusCancelled
		}
	}
	return status
}

type ProposalKind string

const (
	KindTime     ProposalKind = "time"
	KindLocation ProposalKind = "location"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
)

// Proposal is a single time or location suggestion. Proposals are never
// deleted, only superseded; the ordered history stays available for display.
type Proposal struct {
	ProposalID       string
	Kind             ProposalKind
	ProposedLocation string
	ProposedTime     *time.Time
	Latitude         *float64
	Longitude        *float64
	Message          string
	Status           ProposalStatus
	Proposer         string
	IsFromMe         bool
}

type DeliveryStatus string

const (
	DeliverySending DeliveryStatus = "sending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"

	// DeliveryNone means the message is confirmed present in the
	// authoritative log; the transient overlay no longer applies.
	DeliveryNone DeliveryStatus = ""
)

type Message struct {
	ID         string
	Text       string
	SentAt     time.Time
	IsFromUser bool
	Delivery   DeliveryStatus
}

// Meeting is the currently agreed meeting pair. Either aspect may be unset
// when only one side of the pair has an accepted proposal.
type Meeting struct {
	Time     *time.Time
	Location *Proposal
}
