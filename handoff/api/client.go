// Package api implements the HTTP client for the remote negotiation
// authority. All requests are query-parameter shaped and return JSON; every
// endpoint decodes into its own typed response struct.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/handoffapp/handoff/handoff/timeutil"
)

// ErrDecode marks a response body that was not valid JSON for the endpoint's
// shape. Distinct from transport failures so callers can tell a broken server
// from an unreachable one.
var ErrDecode = errors.New("malformed authority response")

// RequestError is an authoritative rejection: the authority answered the
// request but refused it (success:false).
type RequestError struct {
	Op      string
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected by authority", e.Op)
	}
	return fmt.Sprintf("%s rejected by authority: %s", e.Op, e.Message)
}

type Client struct {
	baseURL      string
	sessionToken string
	http         *http.Client
}

func NewClient(baseURL, sessionToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		sessionToken: sessionToken,
		http:         &http.Client{Timeout: timeout},
	}
}

func (c *Client) ProposeNegotiation(ctx context.Context, listingID string, proposedTime time.Time) (*ProposeNegotiationResponse, error) {
	params := url.Values{}
	params.Set("listing_id", listingID)
	params.Set("proposed_time", timeutil.FormatTimestamp(proposedTime))

	var resp ProposeNegotiationResponse
	if err := c.call(ctx, http.MethodPost, "/negotiations/propose", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: "propose", Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) GetNegotiation(ctx context.Context, negotiationID string) (*GetNegotiationResponse, error) {
	params := url.Values{}
	params.Set("negotiation_id", negotiationID)

	var resp GetNegotiationResponse
	if err := c.call(ctx, http.MethodGet, "/negotiations/get", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: "get_negotiation", Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) AcceptProposal(ctx context.Context, negotiationID string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("negotiation_id", negotiationID)
	return c.action(ctx, "accept", "/negotiations/accept", params)
}

func (c *Client) RejectNegotiation(ctx context.Context, negotiationID string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("negotiation_id", negotiationID)
	return c.action(ctx, "reject", "/negotiations/reject", params)
}

func (c *Client) CounterProposal(ctx context.Context, negotiationID string, proposedTime time.Time) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("negotiation_id", negotiationID)
	params.Set("proposed_time", timeutil.FormatTimestamp(proposedTime))
	return c.action(ctx, "counter", "/negotiations/counter", params)
}

func (c *Client) PayNegotiationFee(ctx context.Context, negotiationID string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("negotiation_id", negotiationID)
	return c.action(ctx, "pay", "/negotiations/pay", params)
}

func (c *Client) GetMeetingProposals(ctx context.Context, listingID string) (*MeetingProposalsResponse, error) {
	params := url.Values{}
	params.Set("listing_id", listingID)

	var resp MeetingProposalsResponse
	if err := c.call(ctx, http.MethodGet, "/meetings/proposals", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: "get_meeting_proposals", Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) ProposeMeeting(ctx context.Context, listingID string, lat, lng float64, name, message string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("listing_id", listingID)
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("name", name)
	if message != "" {
		params.Set("message", message)
	}
	return c.action(ctx, "propose_meeting", "/meetings/propose", params)
}

func (c *Client) RespondToMeeting(ctx context.Context, proposalID, response string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("proposal_id", proposalID)
	params.Set("response", response)
	return c.action(ctx, "respond_meeting", "/meetings/respond", params)
}

func (c *Client) GetContactMessages(ctx context.Context, listingID string) (*MessagesResponse, error) {
	params := url.Values{}
	params.Set("listing_id", listingID)

	var resp MessagesResponse
	if err := c.call(ctx, http.MethodGet, "/messages/list", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: "get_messages", Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) SendContactMessage(ctx context.Context, listingID, text string) (*ActionResponse, error) {
	params := url.Values{}
	params.Set("listing_id", listingID)
	params.Set("text", text)
	return c.action(ctx, "send_message", "/messages/send", params)
}

func (c *Client) action(ctx context.Context, op, path string, params url.Values) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.call(ctx, http.MethodPost, path, params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RequestError{Op: op, Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, params url.Values, out any) error {
	if c.sessionToken != "" {
		params.Set("session", c.sessionToken)
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return nil
}
