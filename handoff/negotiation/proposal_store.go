package negotiation

import (
	"fmt"
	"sync"
)

// ProposalStore keeps the per-negotiation time/location proposal collections.
// Proposals are never deleted: a new proposal of the same kind supersedes the
// prior pending one, and a fetch replaces the whole set wholesale.
type ProposalStore struct {
	mu    sync.RWMutex
	byNeg map[string][]*Proposal
}

func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		byNeg: make(map[string][]*Proposal),
	}
}

// Register makes the store aware of a negotiation. Upsert against an
// unregistered id is a caller bug and is rejected.
func (s *ProposalStore) Register(negotiationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNeg[negotiationID]; !ok {
		s.byNeg[negotiationID] = nil
	}
}

// Upsert inserts a proposal, superseding any prior pending proposal of the
// same kind. An incoming accepted proposal forces every other live proposal
// of that kind to rejected so the view never shows two live proposals at
// once (optimistic supersession, confirmed by the next fetch).
func (s *ProposalStore) Upsert(negotiationID string, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposals, ok := s.byNeg[negotiationID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNegotiation, negotiationID)
	}

	replaced := false
	for i, existing := range proposals {
		if existing.ProposalID == p.ProposalID {
			proposals[i] = p
			replaced = true
			continue
		}
		if existing.Kind != p.Kind {
			continue
		}
		switch {
		case p.Status == ProposalAccepted && existing.Status == ProposalPending:
			existing.Status = ProposalRejected
		case p.Status == ProposalPending && existing.Status == ProposalPending:
			existing.Status = ProposalRejected
		}
	}

	if !replaced {
		s.byNeg[negotiationID] = append(proposals, p)
	}
	return nil
}

// Replace swaps in the full authoritative proposal set for the negotiation.
func (s *ProposalStore) Replace(negotiationID string, proposals []*Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byNeg[negotiationID] = proposals
}

// Pending returns the single pending proposal of the given kind, if any.
func (s *ProposalStore) Pending(negotiationID string, kind ProposalKind) *Proposal {
	return s.firstWithStatus(negotiationID, kind, ProposalPending)
}

// Accepted returns the accepted proposal of the given kind, if any.
func (s *ProposalStore) Accepted(negotiationID string, kind ProposalKind) *Proposal {
	return s.firstWithStatus(negotiationID, kind, ProposalAccepted)
}

// Effective resolves accepted over pending over none.
func (s *ProposalStore) Effective(negotiationID string, kind ProposalKind) *Proposal {
	if p := s.Accepted(negotiationID, kind); p != nil {
		return p
	}
	return s.Pending(negotiationID, kind)
}

// All returns the ordered proposal history for the negotiation.
func (s *ProposalStore) All(negotiationID string) []*Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	proposals := s.byNeg[negotiationID]
	out := make([]*Proposal, len(proposals))
	copy(out, proposals)
	return out
}

// LiveCount returns how many proposals of the kind are pending or accepted.
// At most one should ever be live per kind; merges assert on this.
func (s *ProposalStore) LiveCount(negotiationID string, kind ProposalKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.byNeg[negotiationID] {
		if p.Kind == kind && (p.Status == ProposalPending || p.Status == ProposalAccepted) {
			count++
		}
	}
	return count
}

func (s *ProposalStore) firstWithStatus(negotiationID string, kind ProposalKind, status ProposalStatus) *Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.byNeg[negotiationID] {
		if p.Kind == kind && p.Status == status {
			return p
		}
	}
	return nil
}
