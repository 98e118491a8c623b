package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/handoffapp/handoff/handoff/api"
	"github.com/handoffapp/handoff/handoff/logger"
	"github.com/handoffapp/handoff/handoff/timeutil"
)

const (
	timerMeeting  = "meeting_time"
	timerDeadline = "payment_deadline"
)

// PaymentState is the derived payment view cached on the read model so call
// sites never recompute "both paid" ad hoc.
type PaymentState struct {
	BuyerPaid           bool
	SellerPaid          bool
	BothPaid            bool
	UnlockedForLocation bool
	FeeText             string
}

// ReadModel is what the surrounding UI consumes. It is recomputed once per
// committed mutation by a single derived-state function.
type ReadModel struct {
	NegotiationID        string
	ListingID            string
	Status               Status
	EffectiveTime        *time.Time
	EffectiveLocation    *Proposal
	Payment              PaymentState
	Messages             []*Message
	RemainingTimeText    string
	RemainingPaymentText string
	CurrentMeeting       Meeting
	PendingConfirmation  bool
}

// SnapshotSink receives committed state for offline caching. Failures are
// logged and never block a commit.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, rm ReadModel) error
	SaveMessages(ctx context.Context, listingID string, msgs []*Message) error
}

// EngineConfig carries the injected collaborators and tunables. No ambient
// globals: every engine is constructed with its own authority handle so
// multiple negotiations can run side by side in tests.
type EngineConfig struct {
	LocalPartyID      string
	PaymentWindow     time.Duration
	ConfirmWindow     time.Duration
	CountdownInterval time.Duration
	SyncInterval      time.Duration
	ChatInterval      time.Duration
	FeeText           string
	Snapshots         SnapshotSink
}

func (c *EngineConfig) fillDefaults() {
	if c.PaymentWindow <= 0 {
		c.PaymentWindow = DefaultPaymentWindow
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = DefaultConfirmWindow
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.ChatInterval <= 0 {
		c.ChatInterval = DefaultChatInterval
	}
}

// Engine drives one negotiation: optimistic local actions submitted to the
// authority, merged against authoritative fetches by its reconciler. All
// mutations pass through e.mu (single-writer discipline) so a user action
// and a concurrent merge can never produce an inconsistent composite.
type Engine struct {
	mu         sync.Mutex
	authority  Authority
	cfg        EngineConfig
	neg        *Negotiation
	proposals  *ProposalStore
	gate       *PaymentGate
	log        *MessageLog
	supervisor *TimerSupervisor
	reconciler *Reconciler
	readModel  ReadModel
	observers  []func(ReadModel)

	observeCtx     context.Context
	meetingTarget  time.Time
	deadlineTarget time.Time

	nowFn func() time.Time
}

// NewEngine wraps an already known negotiation (normally rebuilt from a
// GetNegotiation fetch or a cached snapshot).
func NewEngine(authority Authority, neg *Negotiation, cfg EngineConfig) *Engine {
	if authority == nil {
		panic("negotiation authority cannot be nil")
	}
	if neg == nil {
		panic("negotiation cannot be nil")
	}
	cfg.fillDefaults()

	e := &Engine{
		authority:  authority,
		cfg:        cfg,
		neg:        neg,
		proposals:  NewProposalStore(),
		gate:       NewPaymentGate(),
		log:        NewMessageLog(cfg.ConfirmWindow),
		supervisor: NewTimerSupervisor(cfg.CountdownInterval),
		nowFn:      time.Now,
	}
	e.proposals.Register(neg.ID)
	e.reconciler = NewReconciler(e, cfg.SyncInterval, cfg.ChatInterval)

	e.mu.Lock()
	e.recomputeLocked(e.nowFn())
	e.mu.Unlock()
	return e
}

// StartNegotiation submits the buyer's first time proposal and returns an
// engine shadowing the freshly created negotiation.
func StartNegotiation(ctx context.Context, authority Authority, listingID, buyerID, sellerID string, proposedTime time.Time, cfg EngineConfig) (*Engine, error) {
	resp, err := authority.ProposeNegotiation(ctx, listingID, proposedTime)
	if err != nil {
		return nil, fmt.Errorf("failed to open negotiation: %w", err)
	}

	neg := NewNegotiation(resp.NegotiationID, listingID, buyerID, sellerID, proposedTime, time.Now())
	engine := NewEngine(authority, neg, cfg)
	logger.LogAction("propose", resp.NegotiationID, nil)
	return engine, nil
}

// Subscribe registers an observer invoked after every committed mutation.
func (e *Engine) Subscribe(fn func(ReadModel)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// ReadModel returns the current read model.
func (e *Engine) ReadModel() ReadModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readModel
}

// NegotiationID returns the id of the negotiation this engine shadows.
func (e *Engine) NegotiationID() string {
	return e.neg.ID
}

// ListingID returns the listing the negotiation belongs to.
func (e *Engine) ListingID() string {
	return e.neg.ListingID
}

// Scope owns the background tasks spawned for an observed negotiation.
// Cancelling it stops the reconciler and every countdown deterministically;
// in-flight fetches may complete but their results are discarded.
type Scope struct {
	cancel context.CancelFunc
	engine *Engine
}

func (s *Scope) Cancel() {
	s.cancel()
	s.engine.supervisor.StopAll()
}

// Observe starts the reconciliation loop and countdown timers for this
// negotiation and returns the scope that stops them.
func (e *Engine) Observe(ctx context.Context) *Scope {
	scopeCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.observeCtx = scopeCtx
	e.syncTimersLocked()
	e.mu.Unlock()

	go e.reconciler.Run(scopeCtx)

	logger.LogSystem("Observing negotiation",
		slog.String("negotiation_id", e.neg.ID),
		slog.String("listing_id", e.neg.ListingID))

	return &Scope{cancel: cancel, engine: e}
}

// SyncNow forces an immediate full reconciliation cycle. Concurrent callers
// share one cycle.
func (e *Engine) SyncNow(ctx context.Context) error {
	return e.reconciler.SyncNow(ctx)
}

// CounterTime proposes a different meeting time in response to the other
// party's proposal.
func (e *Engine) CounterTime(ctx context.Context, proposedTime time.Time) error {
	now := e.nowFn()

	e.mu.Lock()
	saved := e.cloneStateLocked()
	if err := e.neg.Counter(e.cfg.LocalPartyID, proposedTime, now); err != nil {
		e.mu.Unlock()
		return err
	}
	e.neg.PendingConfirmation = true
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.CounterProposal(ctx, e.neg.ID, proposedTime)
	return e.settleSubmission("counter", saved, err)
}

// AcceptTime agrees to the current proposed time and opens the payment
// window.
func (e *Engine) AcceptTime(ctx context.Context) error {
	now := e.nowFn()

	e.mu.Lock()
	saved := e.cloneStateLocked()
	if err := e.neg.Accept(e.cfg.LocalPartyID, e.cfg.PaymentWindow, now); err != nil {
		e.mu.Unlock()
		return err
	}
	e.neg.PendingConfirmation = true
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.AcceptProposal(ctx, e.neg.ID)
	return e.settleSubmission("accept", saved, err)
}

// Reject terminates the negotiation.
func (e *Engine) Reject(ctx context.Context) error {
	now := e.nowFn()

	e.mu.Lock()
	saved := e.cloneStateLocked()
	if err := e.neg.Reject(e.cfg.LocalPartyID, now); err != nil {
		e.mu.Unlock()
		return err
	}
	e.neg.PendingConfirmation = true
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.RejectNegotiation(ctx, e.neg.ID)
	return e.settleSubmission("reject", saved, err)
}

// Pay records the local party's fee payment.
func (e *Engine) Pay(ctx context.Context) error {
	now := e.nowFn()

	e.mu.Lock()
	saved := e.cloneStateLocked()
	if err := e.neg.RecordPayment(e.cfg.LocalPartyID, now); err != nil {
		e.mu.Unlock()
		return err
	}
	role, _ := e.neg.RoleOf(e.cfg.LocalPartyID)
	e.gate.RecordPayment(role)
	e.neg.PendingConfirmation = true
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.PayNegotiationFee(ctx, e.neg.ID)
	return e.settleSubmission("pay", saved, err)
}

// ProposeLocation suggests a meeting spot. Only valid once the payment gate
// has unlocked location negotiation.
func (e *Engine) ProposeLocation(ctx context.Context, lat, lng float64, name, message string) error {
	now := e.nowFn()

	e.mu.Lock()
	if !e.gate.UnlockedForLocation() {
		e.mu.Unlock()
		return fmt.Errorf("%w: location negotiation is not unlocked", ErrGuardViolation)
	}
	saved := e.cloneStateLocked()
	proposal := &Proposal{
		ProposalID:       localIDPrefix + newProposalID(now),
		Kind:             KindLocation,
		ProposedLocation: name,
		Latitude:         &lat,
		Longitude:        &lng,
		Message:          message,
		Status:           ProposalPending,
		Proposer:         e.cfg.LocalPartyID,
		IsFromMe:         true,
	}
	if err := e.proposals.Upsert(e.neg.ID, proposal); err != nil {
		e.mu.Unlock()
		return err
	}
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.ProposeMeeting(ctx, e.neg.ListingID, lat, lng, name, message)
	return e.settleSubmission("propose_location", saved, err)
}

// RespondToLocation accepts or rejects the pending location proposal.
func (e *Engine) RespondToLocation(ctx context.Context, proposalID string, accept bool) error {
	now := e.nowFn()

	e.mu.Lock()
	var target *Proposal
	for _, p := range e.proposals.All(e.neg.ID) {
		if p.ProposalID == proposalID {
			target = p
			break
		}
	}
	if target == nil || target.Kind != KindLocation || target.Status != ProposalPending {
		e.mu.Unlock()
		return fmt.Errorf("%w: no pending location proposal %s", ErrGuardViolation, proposalID)
	}
	if target.IsFromMe {
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot respond to your own location proposal", ErrGuardViolation)
	}
	saved := e.cloneStateLocked()

	updated := *target
	if accept {
		updated.Status = ProposalAccepted
	} else {
		updated.Status = ProposalRejected
	}
	if err := e.proposals.Upsert(e.neg.ID, &updated); err != nil {
		e.mu.Unlock()
		return err
	}
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	response := "reject"
	if accept {
		response = "accept"
	}
	_, err := e.authority.RespondToMeeting(ctx, proposalID, response)
	return e.settleSubmission("respond_location", saved, err)
}

// SendMessage appends an optimistic chat message and submits it. The message
// stays "sending" until a reconciliation fetch returns the authoritative
// copy; a failed submission demotes it to "failed" immediately and it is
// never auto-retried.
func (e *Engine) SendMessage(ctx context.Context, text string) error {
	now := e.nowFn()

	e.mu.Lock()
	msg := e.log.Append(text, now)
	e.recomputeLocked(now)
	e.mu.Unlock()
	e.notify()

	_, err := e.authority.SendContactMessage(ctx, e.neg.ListingID, text)
	if err != nil {
		e.mu.Lock()
		e.log.MarkFailed(msg.ID)
		e.recomputeLocked(e.nowFn())
		e.mu.Unlock()
		e.notify()
		logger.LogAction("send_message", e.neg.ID, err)
		return fmt.Errorf("message send failed: %w", err)
	}

	logger.LogAction("send_message", e.neg.ID, nil)
	return nil
}

// settleSubmission resolves the outcome of an optimistic action's remote
// submission. An authoritative rejection discards the optimistic guess
// entirely; a transport failure keeps it flagged for the next poll to
// confirm or revert.
func (e *Engine) settleSubmission(op string, saved *engineState, err error) error {
	var reqErr *api.RequestError
	switch {
	case err == nil:
		logger.LogAction(op, e.neg.ID, nil)
		return nil
	case errors.As(err, &reqErr):
		e.mu.Lock()
		e.restoreStateLocked(saved)
		e.recomputeLocked(e.nowFn())
		e.mu.Unlock()
		e.notify()
		logger.LogAction(op, e.neg.ID, err)
		return err
	default:
		logger.LogAction(op, e.neg.ID, err)
		return fmt.Errorf("%s submission unconfirmed: %w", op, err)
	}
}

// Snapshot is the result of one full reconciliation cycle, committed
// atomically at cycle end.
type Snapshot struct {
	Status              Status
	ProposedBy          string
	CurrentProposedTime time.Time
	BuyerPaid           bool
	SellerPaid          bool
	PaymentDeadline     *time.Time
	History             []HistoryEntry
	Proposals           []*Proposal
	Messages            []*Message
	FetchedAt           time.Time
}

// CommitSnapshot merges one authoritative cycle into local state. The whole
// snapshot commits under one lock so the view never observes a status from
// one fetch with a proposal set from another.
func (e *Engine) CommitSnapshot(snap *Snapshot) {
	e.mu.Lock()

	e.neg.ApplyAuthoritative(snap.Status, snap.ProposedBy, snap.CurrentProposedTime,
		snap.BuyerPaid, snap.SellerPaid, snap.PaymentDeadline, snap.History)
	e.proposals.Replace(e.neg.ID, snap.Proposals)
	e.log.Merge(snap.Messages, snap.FetchedAt)

	timeAccepted := e.timeAcceptedLocked()
	locationAccepted := e.proposals.Accepted(e.neg.ID, KindLocation) != nil
	e.gate.Update(snap.BuyerPaid, snap.SellerPaid, snap.PaymentDeadline, timeAccepted, locationAccepted)

	if e.gate.ConsumeUnlock() {
		logger.LogSystem("Both fees paid, location negotiation unlocked",
			slog.String("negotiation_id", e.neg.ID))
	}

	e.recomputeLocked(snap.FetchedAt)
	e.syncTimersLocked()
	rm := e.readModel
	e.mu.Unlock()

	e.persist(rm)
	e.notify()
}

// CommitMessages merges a chat-only fetch.
func (e *Engine) CommitMessages(msgs []*Message, fetchedAt time.Time) {
	e.mu.Lock()
	e.log.Merge(msgs, fetchedAt)
	e.recomputeLocked(fetchedAt)
	rm := e.readModel
	e.mu.Unlock()

	e.persist(rm)
	e.notify()
}

// recomputeLocked is the single derived-state function: every read model
// field is computed here and nowhere else.
func (e *Engine) recomputeLocked(now time.Time) {
	rm := ReadModel{
		NegotiationID:       e.neg.ID,
		ListingID:           e.neg.ListingID,
		Status:              e.neg.Status,
		Messages:            e.log.Messages(),
		PendingConfirmation: e.neg.PendingConfirmation,
	}

	timeAccepted := e.timeAcceptedLocked()
	locationAccepted := e.proposals.Accepted(e.neg.ID, KindLocation) != nil
	e.gate.SetAspects(timeAccepted, locationAccepted)

	if p := e.proposals.Effective(e.neg.ID, KindTime); p != nil && p.ProposedTime != nil {
		t := *p.ProposedTime
		rm.EffectiveTime = &t
	} else if !e.neg.CurrentProposedTime.IsZero() {
		t := e.neg.CurrentProposedTime
		rm.EffectiveTime = &t
	}

	if p := e.proposals.Effective(e.neg.ID, KindLocation); p != nil {
		copied := *p
		rm.EffectiveLocation = &copied
	}

	// currentMeeting carries only the accepted aspects.
	if timeAccepted && rm.EffectiveTime != nil {
		t := *rm.EffectiveTime
		rm.CurrentMeeting.Time = &t
	}
	if p := e.proposals.Accepted(e.neg.ID, KindLocation); p != nil {
		copied := *p
		rm.CurrentMeeting.Location = &copied
	}

	rm.Payment = PaymentState{
		BuyerPaid:           e.neg.BuyerPaid || e.gate.BuyerPaid(),
		SellerPaid:          e.neg.SellerPaid || e.gate.SellerPaid(),
		UnlockedForLocation: e.gate.UnlockedForLocation(),
		FeeText:             e.cfg.FeeText,
	}
	rm.Payment.BothPaid = rm.Payment.BuyerPaid && rm.Payment.SellerPaid

	if rm.CurrentMeeting.Time != nil {
		rm.RemainingTimeText, _ = timeutil.Remaining(now, *rm.CurrentMeeting.Time)
	}
	if text, ok := e.gate.RemainingTime(now); ok {
		rm.RemainingPaymentText = text
	}

	e.readModel = rm
}

func (e *Engine) timeAcceptedLocked() bool {
	switch e.neg.Status {
	case StatusAgreed, StatusPaidPartial, StatusPaidComplete:
		return true
	}
	return e.proposals.Accepted(e.neg.ID, KindTime) != nil
}

// syncTimersLocked keeps the meeting and deadline countdowns pointed at the
// current targets, restarting only when a target actually moved.
func (e *Engine) syncTimersLocked() {
	if e.observeCtx == nil {
		return
	}

	if t := e.readModel.CurrentMeeting.Time; t != nil && !e.neg.Status.Terminal() {
		if !t.Equal(e.meetingTarget) {
			e.meetingTarget = *t
			target := *t
			e.supervisor.Start(e.observeCtx, timerMeeting, target, func(text string) {
				e.mu.Lock()
				e.readModel.RemainingTimeText = text
				e.mu.Unlock()
				e.notify()
			})
		}
	} else {
		e.meetingTarget = time.Time{}
		e.supervisor.Stop(timerMeeting)
	}

	if d := e.gate.Deadline(); d != nil && !e.neg.Status.Terminal() {
		if !d.Equal(e.deadlineTarget) {
			e.deadlineTarget = *d
			target := *d
			e.supervisor.Start(e.observeCtx, timerDeadline, target, func(text string) {
				e.mu.Lock()
				e.readModel.RemainingPaymentText = text
				if text == timeutil.ExpiredText {
					// Shadow the expiry locally for display; the
					// authoritative expired status arrives with the next
					// successful poll.
					if err := e.neg.Expire(e.nowFn()); err == nil {
						e.recomputeLocked(e.nowFn())
						e.readModel.RemainingPaymentText = timeutil.ExpiredText
					}
				}
				e.mu.Unlock()
				e.notify()
			})
		}
	} else {
		e.deadlineTarget = time.Time{}
		e.supervisor.Stop(timerDeadline)
	}
}

func (e *Engine) persist(rm ReadModel) {
	if e.cfg.Snapshots == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.cfg.Snapshots.SaveSnapshot(ctx, rm); err != nil {
		logger.LogError("Failed to cache negotiation snapshot", err,
			slog.String("negotiation_id", rm.NegotiationID))
	}
	if err := e.cfg.Snapshots.SaveMessages(ctx, rm.ListingID, rm.Messages); err != nil {
		logger.LogError("Failed to cache messages", err,
			slog.String("listing_id", rm.ListingID))
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	rm := e.readModel
	observers := make([]func(ReadModel), len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(rm)
	}
}

// engineState is the pre-action copy kept for reverting an optimistic guess
// the authority refuses.
type engineState struct {
	neg       Negotiation
	history   []HistoryEntry
	proposals []*Proposal
	gate      paymentGateState
}

func (e *Engine) cloneStateLocked() *engineState {
	st := &engineState{neg: *e.neg, gate: e.gate.snapshot()}
	st.history = make([]HistoryEntry, len(e.neg.History))
	copy(st.history, e.neg.History)

	for _, p := range e.proposals.All(e.neg.ID) {
		copied := *p
		st.proposals = append(st.proposals, &copied)
	}
	return st
}

func (e *Engine) restoreStateLocked(st *engineState) {
	restored := st.neg
	restored.History = st.history
	*e.neg = restored
	e.proposals.Replace(e.neg.ID, st.proposals)
	e.gate.restore(st.gate)
}
