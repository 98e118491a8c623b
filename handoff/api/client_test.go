package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetNegotiationSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/negotiations/get" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("negotiation_id"); got != "neg-1" {
			t.Errorf("expected negotiation_id neg-1, got %s", got)
		}
		if got := r.URL.Query().Get("session"); got != "tok-123" {
			t.Errorf("expected session token forwarded, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"negotiation": {
				"status": "agreed",
				"proposed_by": "buyer-1",
				"current_proposed_time": "2025-06-03T12:00:00Z",
				"buyer_paid": true,
				"seller_paid": false
			},
			"buyer": {"id": "buyer-1"},
			"seller": {"id": "seller-1"},
			"listing": {"id": "listing-1"}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok-123", 5*time.Second)
	resp, err := client.GetNegotiation(context.Background(), "neg-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Negotiation.Status != "agreed" {
		t.Errorf("expected status agreed, got %s", resp.Negotiation.Status)
	}
	if !resp.Negotiation.BuyerPaid || resp.Negotiation.SellerPaid {
		t.Errorf("payment flags mis-decoded: %+v", resp.Negotiation)
	}
	want := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	if !resp.Negotiation.CurrentProposedTime.Equal(want) {
		t.Errorf("expected proposed time %v, got %v", want, resp.Negotiation.CurrentProposedTime)
	}
}

func TestActionRejectionIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("actions must POST, got %s", r.Method)
		}
		w.Write([]byte(`{"success": false, "error": "negotiation already closed"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.AcceptProposal(context.Background(), "neg-1")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Op != "accept" || reqErr.Message != "negotiation already closed" {
		t.Errorf("unexpected rejection details: %+v", reqErr)
	}
}

func TestMalformedResponseIsErrDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.GetContactMessages(context.Background(), "listing-1")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.GetNegotiation(context.Background(), "neg-1")
	if err == nil {
		t.Fatal("expected error on 502")
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Error("a 502 is a transport-level failure, not an authoritative rejection")
	}
}

func TestProposeMeetingParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "40.7128" || q.Get("lng") != "-74.006" {
			t.Errorf("coordinates mis-encoded: lat=%s lng=%s", q.Get("lat"), q.Get("lng"))
		}
		if q.Get("name") != "Central Station" {
			t.Errorf("expected name, got %q", q.Get("name"))
		}
		if q.Get("message") != "by the clock" {
			t.Errorf("expected message, got %q", q.Get("message"))
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	if _, err := client.ProposeMeeting(context.Background(), "listing-1", 40.7128, -74.006, "Central Station", "by the clock"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProposeNegotiationEncodesTime(t *testing.T) {
	proposed := time.Date(2025, 6, 3, 15, 30, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("proposed_time"); got != "2025-06-03T15:30:00Z" {
			t.Errorf("expected RFC3339 proposed_time, got %q", got)
		}
		w.Write([]byte(`{"success": true, "negotiation_id": "neg-77", "status": "proposed"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second)
	resp, err := client.ProposeNegotiation(context.Background(), "listing-1", proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NegotiationID != "neg-77" {
		t.Errorf("expected negotiation id neg-77, got %s", resp.NegotiationID)
	}
}
