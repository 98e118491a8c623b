// Package handoff wires the negotiation engine to its collaborators: the
// remote authority client, the offline cache, the place directory and the
// fee schedule.
package handoff

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/handoffapp/handoff/handoff/currency"
	"github.com/handoffapp/handoff/handoff/logger"
	"github.com/handoffapp/handoff/handoff/negotiation"
	"github.com/handoffapp/handoff/handoff/places"
	"github.com/handoffapp/handoff/handoff/store"
	"github.com/handoffapp/handoff/handoff/timeutil"
	"github.com/handoffapp/handoff/handoff/utils"
)

const defaultReadModelCapacity = 128

// App is the per-session aggregate. It holds no ambient globals; every
// engine it creates receives its dependencies explicitly.
type App struct {
	Cfg       Config
	Authority negotiation.Authority
	Snapshots store.SnapshotRepository
	Fees      *currency.FeeSchedule
	Places    *places.Directory
	Processes *utils.BackgroundProcessManager

	mu         sync.Mutex
	engines    map[string]*negotiation.Engine
	readModels *lru.Cache
}

func New(cfg Config, authority negotiation.Authority, snapshots store.SnapshotRepository) (*App, error) {
	fees, err := currency.NewFeeSchedule(cfg.Payment.FeeAmount, cfg.Payment.FeeCurrency, cfg.Payment.Rates)
	if err != nil {
		return nil, fmt.Errorf("failed to build fee schedule: %w", err)
	}

	capacity := cfg.Cache.ReadModelCapacity
	if capacity <= 0 {
		capacity = defaultReadModelCapacity
	}
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create read model cache: %w", err)
	}

	entries := make([]places.Place, 0, len(cfg.Places.Entries))
	for _, e := range cfg.Places.Entries {
		entries = append(entries, places.Place{
			Name:      e.Name,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
		})
	}

	return &App{
		Cfg:        cfg,
		Authority:  authority,
		Snapshots:  snapshots,
		Fees:       fees,
		Places:     places.NewDirectory(entries),
		Processes:  utils.NewBackgroundProcessManager(),
		engines:    make(map[string]*negotiation.Engine),
		readModels: cache,
	}, nil
}

func (a *App) engineConfig() negotiation.EngineConfig {
	var snapshots negotiation.SnapshotSink
	if a.Snapshots != nil {
		snapshots = a.Snapshots
	}
	return negotiation.EngineConfig{
		LocalPartyID:  a.Cfg.API.LocalPartyID,
		PaymentWindow: a.Cfg.Payment.Window(),
		ConfirmWindow: a.Cfg.Sync.MessageConfirmWindow(),
		SyncInterval:  a.Cfg.Sync.NegotiationInterval(),
		ChatInterval:  a.Cfg.Sync.ChatInterval(),
		FeeText:       a.Fees.Format(a.Cfg.Payment.DisplayCurrency),
		Snapshots:     snapshots,
	}
}

// OpenNegotiation submits the first time proposal for a listing and begins
// observing the new negotiation.
func (a *App) OpenNegotiation(ctx context.Context, listingID, buyerID, sellerID string, proposedTime time.Time) (*negotiation.Engine, error) {
	engine, err := negotiation.StartNegotiation(ctx, a.Authority, listingID, buyerID, sellerID, proposedTime, a.engineConfig())
	if err != nil {
		return nil, err
	}
	a.adopt(engine)
	return engine, nil
}

// Watch rebuilds the engine for an existing negotiation from an
// authoritative fetch and begins observing it.
func (a *App) Watch(ctx context.Context, negotiationID string) (*negotiation.Engine, error) {
	a.mu.Lock()
	if engine, ok := a.engines[negotiationID]; ok {
		a.mu.Unlock()
		return engine, nil
	}
	a.mu.Unlock()

	resp, err := a.Authority.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch negotiation %s: %w", negotiationID, err)
	}

	neg := &negotiation.Negotiation{
		ID:                  negotiationID,
		ListingID:           resp.Listing.ID,
		BuyerID:             resp.Buyer.ID,
		SellerID:            resp.Seller.ID,
		Status:              negotiation.Status(resp.Negotiation.Status),
		CurrentProposedTime: resp.Negotiation.CurrentProposedTime,
		ProposedBy:          resp.Negotiation.ProposedBy,
		BuyerPaid:           resp.Negotiation.BuyerPaid,
		SellerPaid:          resp.Negotiation.SellerPaid,
		PaymentDeadline:     resp.Negotiation.PaymentDeadline,
	}
	for _, h := range resp.History {
		neg.History = append(neg.History, negotiation.HistoryEntry{
			Actor:        h.Actor,
			Action:       negotiation.ActionKind(h.Action),
			ProposedTime: h.ProposedTime,
			CreatedAt:    h.CreatedAt,
		})
	}

	engine := negotiation.NewEngine(a.Authority, neg, a.engineConfig())
	a.adopt(engine)
	return engine, nil
}

func (a *App) adopt(engine *negotiation.Engine) {
	id := engine.NegotiationID()
	engine.Subscribe(func(rm negotiation.ReadModel) {
		a.readModels.Add(id, rm)
	})

	a.mu.Lock()
	a.engines[id] = engine
	a.mu.Unlock()

	// The watch scope lives under the process manager: stopping the process
	// cancels the reconciler and every countdown for this negotiation.
	a.Processes.StartProcess(watchProcessName(id), func(ctx context.Context) {
		scope := engine.Observe(ctx)
		defer scope.Cancel()
		<-ctx.Done()
	})
}

func watchProcessName(negotiationID string) string {
	return "watch:" + negotiationID
}

// StopWatching cancels the negotiation's reconciliation and countdown tasks.
func (a *App) StopWatching(negotiationID string) {
	a.mu.Lock()
	_, watched := a.engines[negotiationID]
	delete(a.engines, negotiationID)
	a.mu.Unlock()

	if watched {
		a.Processes.StopProcess(watchProcessName(negotiationID))
		logger.LogSystem("Stopped observing negotiation",
			slog.String("negotiation_id", negotiationID))
	}
}

// LastKnown returns the most recent read model for a negotiation: the live
// in-memory one when cached, the offline snapshot otherwise.
func (a *App) LastKnown(ctx context.Context, negotiationID string) (*negotiation.ReadModel, error) {
	if v, ok := a.readModels.Get(negotiationID); ok {
		rm := v.(negotiation.ReadModel)
		return &rm, nil
	}
	if a.Snapshots == nil {
		return nil, nil
	}
	return a.Snapshots.LoadSnapshot(ctx, negotiationID)
}

// Shutdown stops every observed negotiation and background task.
func (a *App) Shutdown(timeout time.Duration) {
	a.mu.Lock()
	for id := range a.engines {
		delete(a.engines, id)
	}
	a.mu.Unlock()

	if err := a.Processes.Shutdown(timeout); err != nil {
		logger.LogError("Background processes did not stop in time", err)
	}
}

// FormatMeetingTime renders a meeting timestamp for CLI display.
func FormatMeetingTime(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	return timeutil.FormatTimestamp(*t)
}
