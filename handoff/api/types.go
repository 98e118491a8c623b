package api

import "time"

// Each endpoint gets its own response struct with explicit optional fields.
// success:false plus an error string is an authoritative rejection and is
// surfaced as *RequestError, never silently defaulted.

type ProposeNegotiationResponse struct {
	Success       bool      `json:"success"`
	NegotiationID string    `json:"negotiation_id"`
	Status        string    `json:"status"`
	ProposedTime  time.Time `json:"proposed_time"`
	Error         string    `json:"error,omitempty"`
}

type NegotiationPayload struct {
	Status              string     `json:"status"`
	ProposedBy          string     `json:"proposed_by"`
	CurrentProposedTime time.Time  `json:"current_proposed_time"`
	BuyerPaid           bool       `json:"buyer_paid"`
	SellerPaid          bool       `json:"seller_paid"`
	PaymentDeadline     *time.Time `json:"payment_deadline,omitempty"`
}

type PartyPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListingPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type HistoryEventPayload struct {
	Actor        string     `json:"actor"`
	Action       string     `json:"action"`
	ProposedTime *time.Time `json:"proposed_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type GetNegotiationResponse struct {
	Success     bool                  `json:"success"`
	Negotiation NegotiationPayload    `json:"negotiation"`
	Buyer       PartyPayload          `json:"buyer"`
	Seller      PartyPayload          `json:"seller"`
	Listing     ListingPayload        `json:"listing"`
	History     []HistoryEventPayload `json:"history"`
	Error       string                `json:"error,omitempty"`
}

// ActionResponse covers accept/reject/counter/pay/respond/send, all of which
// return only an acknowledgement.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ProposalPayload struct {
	ProposalID       string     `json:"proposal_id"`
	Kind             string     `json:"kind"`
	ProposedLocation string     `json:"proposed_location,omitempty"`
	ProposedTime     *time.Time `json:"proposed_time,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	Message          string     `json:"message,omitempty"`
	Status           string     `json:"status"`
	Proposer         string     `json:"proposer"`
}

type CurrentMeetingPayload struct {
	Time     *time.Time       `json:"time,omitempty"`
	Location *ProposalPayload `json:"location,omitempty"`
}

type MeetingProposalsResponse struct {
	Success        bool                   `json:"success"`
	DisplayStatus  string                 `json:"display_status"`
	Data           []ProposalPayload      `json:"data"`
	CurrentMeeting *CurrentMeetingPayload `json:"current_meeting,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

type MessagePayload struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
	IsFromUser bool      `json:"is_from_user"`
}

type MessagesResponse struct {
	Success  bool             `json:"success"`
	Messages []MessagePayload `json:"messages"`
	Error    string           `json:"error,omitempty"`
}
