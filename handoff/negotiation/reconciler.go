package negotiation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/handoffapp/handoff/handoff/api"
	"github.com/handoffapp/handoff/handoff/logger"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSyncInterval is the negotiation/meeting state poll cadence.
	DefaultSyncInterval = 75 * time.Second

	// DefaultChatInterval is the chat poll cadence.
	DefaultChatInterval = 1500 * time.Millisecond
)

// Reconciler runs the recurring poll-and-merge cycle for one engine. Within
// a cycle the fetch order is fixed (negotiation, then proposals, then
// messages) and the merged result commits atomically at the end; a network
// error aborts the cycle with no partial mutation, keeping last-known-good
// state. A cycle still in flight when its next tick fires causes that tick
// to be skipped, never queued.
type Reconciler struct {
	engine       *Engine
	syncInterval time.Duration
	chatInterval time.Duration

	syncInFlight atomic.Bool
	chatInFlight atomic.Bool
	group        singleflight.Group

	nowFn func() time.Time
}

func NewReconciler(engine *Engine, syncInterval, chatInterval time.Duration) *Reconciler {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	if chatInterval <= 0 {
		chatInterval = DefaultChatInterval
	}
	return &Reconciler{
		engine:       engine,
		syncInterval: syncInterval,
		chatInterval: chatInterval,
		nowFn:        time.Now,
	}
}

// Run polls until ctx is cancelled. The first full cycle fires immediately.
func (r *Reconciler) Run(ctx context.Context) {
	if err := r.SyncNow(ctx); err != nil {
		logger.LogSync(r.engine.NegotiationID(), 0, err)
	}

	syncTicker := time.NewTicker(r.syncInterval)
	defer syncTicker.Stop()
	chatTicker := time.NewTicker(r.chatInterval)
	defer chatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
			if !r.syncInFlight.CompareAndSwap(false, true) {
				continue // previous cycle still running, skip this tick
			}
			go func() {
				defer r.syncInFlight.Store(false)
				start := r.nowFn()
				err := r.SyncNow(ctx)
				logger.LogSync(r.engine.NegotiationID(), time.Since(start), err)
			}()
		case <-chatTicker.C:
			if !r.chatInFlight.CompareAndSwap(false, true) {
				continue
			}
			go func() {
				defer r.chatInFlight.Store(false)
				r.chatCycle(ctx)
			}()
		}
	}
}

// SyncNow runs one full cycle immediately. Every cycle, ticker-driven or
// manual, goes through the singleflight group, so two cycles for the same
// negotiation never run concurrently; concurrent callers share one fetch.
func (r *Reconciler) SyncNow(ctx context.Context) error {
	_, err, _ := r.group.Do("sync", func() (any, error) {
		return nil, r.cycle(ctx)
	})
	return err
}

// cycle fetches negotiation state, then proposals, then messages, and
// commits the merged snapshot in one step.
func (r *Reconciler) cycle(ctx context.Context) error {
	negotiationID := r.engine.NegotiationID()
	listingID := r.engine.ListingID()

	negResp, err := r.engine.authority.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return fmt.Errorf("negotiation fetch failed: %w", err)
	}

	propResp, err := r.engine.authority.GetMeetingProposals(ctx, listingID)
	if err != nil {
		return fmt.Errorf("proposal fetch failed: %w", err)
	}

	msgResp, err := r.engine.authority.GetContactMessages(ctx, listingID)
	if err != nil {
		return fmt.Errorf("message fetch failed: %w", err)
	}

	if ctx.Err() != nil {
		// The subject is no longer observed; discard the results.
		return ctx.Err()
	}

	snap := r.buildSnapshot(negResp, propResp, msgResp)
	r.engine.CommitSnapshot(snap)
	return nil
}

func (r *Reconciler) chatCycle(ctx context.Context) {
	msgResp, err := r.engine.authority.GetContactMessages(ctx, r.engine.ListingID())
	if err != nil || ctx.Err() != nil {
		return // keep last-known-good; the next tick retries
	}
	r.engine.CommitMessages(messagesFromPayload(msgResp.Messages), r.nowFn())
}

func (r *Reconciler) buildSnapshot(negResp *api.GetNegotiationResponse, propResp *api.MeetingProposalsResponse, msgResp *api.MessagesResponse) *Snapshot {
	localParty := r.engine.cfg.LocalPartyID

	proposals := make([]*Proposal, 0, len(propResp.Data))
	for _, p := range propResp.Data {
		proposals = append(proposals, proposalFromPayload(p, localParty))
	}

	history := make([]HistoryEntry, 0, len(negResp.History))
	for _, h := range negResp.History {
		history = append(history, HistoryEntry{
			Actor:        h.Actor,
			Action:       ActionKind(h.Action),
			ProposedTime: h.ProposedTime,
			CreatedAt:    h.CreatedAt,
		})
	}

	return &Snapshot{
		Status:              Status(negResp.Negotiation.Status),
		ProposedBy:          negResp.Negotiation.ProposedBy,
		CurrentProposedTime: negResp.Negotiation.CurrentProposedTime,
		BuyerPaid:           negResp.Negotiation.BuyerPaid,
		SellerPaid:          negResp.Negotiation.SellerPaid,
		PaymentDeadline:     negResp.Negotiation.PaymentDeadline,
		History:             history,
		Proposals:           proposals,
		Messages:            messagesFromPayload(msgResp.Messages),
		FetchedAt:           r.nowFn(),
	}
}

func proposalFromPayload(p api.ProposalPayload, localParty string) *Proposal {
	return &Proposal{
		ProposalID:       p.ProposalID,
		Kind:             ProposalKind(p.Kind),
		ProposedLocation: p.ProposedLocation,
		ProposedTime:     p.ProposedTime,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Message:          p.Message,
		Status:           ProposalStatus(p.Status),
		Proposer:         p.Proposer,
		IsFromMe:         p.Proposer == localParty,
	}
}

func messagesFromPayload(payloads []api.MessagePayload) []*Message {
	msgs := make([]*Message, 0, len(payloads))
	for _, m := range payloads {
		msgs = append(msgs, &Message{
			ID:         m.ID,
			Text:       m.Text,
			SentAt:     m.SentAt,
			IsFromUser: m.IsFromUser,
		})
	}
	return msgs
}
