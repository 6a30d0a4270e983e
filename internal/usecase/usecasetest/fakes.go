// Package usecasetest содержит in-memory реализации портов для тестов сценариев.
package usecasetest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

type ContributionRepository struct {
	mu            sync.Mutex
	contributions map[uuid.UUID]entity.Contribution
	terms         map[uuid.UUID]entity.TermSet
	// TermsErr, если задана, возвращается из операций с условиями.
	TermsErr error
}

func NewContributionRepository() *ContributionRepository {
	return &ContributionRepository{
		contributions: make(map[uuid.UUID]entity.Contribution),
		terms:         make(map[uuid.UUID]entity.TermSet),
	}
}

func (r *ContributionRepository) Create(ctx context.Context, c *entity.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contributions[c.ID] = *c
	return nil
}

func (r *ContributionRepository) Update(ctx context.Context, c *entity.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contributions[c.ID]; !ok {
		return apperror.ErrContributionNotFound
	}
	r.contributions[c.ID] = *c
	return nil
}

func (r *ContributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contributions[id]
	if !ok {
		return nil, apperror.ErrContributionNotFound
	}
	return &c, nil
}

func (r *ContributionRepository) LoadTerms(ctx context.Context, contributionID uuid.UUID) (*entity.TermSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.TermsErr != nil {
		return nil, r.TermsErr
	}
	if _, ok := r.contributions[contributionID]; !ok {
		return nil, apperror.ErrContributionNotFound
	}
	ts := cloneTerms(r.terms[contributionID])
	ts.ContributionID = contributionID
	return &ts, nil
}

func (r *ContributionRepository) ReplaceTerms(ctx context.Context, terms *entity.TermSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.TermsErr != nil {
		return r.TermsErr
	}
	if _, ok := r.contributions[terms.ContributionID]; !ok {
		return apperror.ErrContributionNotFound
	}
	r.terms[terms.ContributionID] = cloneTerms(*terms)
	return nil
}

func cloneTerms(ts entity.TermSet) entity.TermSet {
	ts.Subtypes = append([]entity.Subtype(nil), ts.Subtypes...)
	ts.Valuations = append([]entity.Valuation(nil), ts.Valuations...)
	ts.Insights = append([]entity.Insight(nil), ts.Insights...)
	ts.FollowUps = append([]entity.FollowUp(nil), ts.FollowUps...)
	ts.SmartRules = append([]entity.SmartRule(nil), ts.SmartRules...)
	ts.Files = append([]entity.TermFile(nil), ts.Files...)
	return ts
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]entity.NegotiationSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uuid.UUID]entity.NegotiationSession)}
}

func (r *SessionRepository) CreateIfAbsent(ctx context.Context, s *entity.NegotiationSession) (*entity.NegotiationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.ContributionID == s.ContributionID {
			return &existing, nil
		}
	}
	r.sessions[s.ID] = *s
	stored := *s
	return &stored, nil
}

func (r *SessionRepository) Close(ctx context.Context, s *entity.NegotiationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked(s)
}

func (r *SessionRepository) closeLocked(s *entity.NegotiationSession) error {
	stored, ok := r.sessions[s.ID]
	if !ok {
		return apperror.ErrSessionNotFound
	}
	if stored.Status != valueobject.SessionStatusOpen {
		return apperror.StateConflict("сессия переговоров уже закрыта")
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *SessionRepository) MarkTermsApplied(ctx context.Context, s *entity.NegotiationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[s.ID]
	if !ok {
		return apperror.ErrSessionNotFound
	}
	if s.TermsAppliedAt == nil {
		s.MarkTermsApplied()
	}
	if stored.TermsAppliedAt == nil {
		stored.TermsAppliedAt = s.TermsAppliedAt
		r.sessions[s.ID] = stored
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.NegotiationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRepository) FindByContributionID(ctx context.Context, contributionID uuid.UUID) ([]*entity.NegotiationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.NegotiationSession
	for _, s := range r.sessions {
		if s.ContributionID == contributionID {
			s := s
			result = append(result, &s)
		}
	}
	return result, nil
}

// ProposalRepository повторяет условную запись хранилища: переход проходит,
// только если версия и статус не изменились.
type ProposalRepository struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]entity.Proposal
	events    map[uuid.UUID][]entity.ProposalEvent
	sessions  *SessionRepository
}

func NewProposalRepository(sessions *SessionRepository) *ProposalRepository {
	return &ProposalRepository{
		proposals: make(map[uuid.UUID]entity.Proposal),
		events:    make(map[uuid.UUID][]entity.ProposalEvent),
		sessions:  sessions,
	}
}

func (r *ProposalRepository) Create(ctx context.Context, p *entity.Proposal, event *entity.ProposalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals[p.ID] = *p
	r.events[p.ID] = append(r.events[p.ID], *event)
	return nil
}

func (r *ProposalRepository) Transition(ctx context.Context, p *entity.Proposal, expectedVersion int, event *entity.ProposalEvent, closing *entity.NegotiationSession) ([]*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.proposals[p.ID]
	if !ok {
		return nil, apperror.ErrProposalNotFound
	}
	if stored.Version != expectedVersion || stored.Status != valueobject.ProposalStatusPending {
		return nil, apperror.ErrStaleVersion
	}
	if closing != nil {
		r.sessions.mu.Lock()
		err := r.sessions.closeLocked(closing)
		r.sessions.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	r.proposals[p.ID] = *p
	r.events[p.ID] = append(r.events[p.ID], *event)
	if closing == nil {
		return nil, nil
	}

	var superseded []*entity.Proposal
	for id, sibling := range r.proposals {
		if sibling.SessionID != closing.ID || id == p.ID {
			continue
		}
		sibling := sibling
		e := sibling.Supersede(event.ActorID)
		if e == nil {
			continue
		}
		r.proposals[id] = sibling
		r.events[id] = append(r.events[id], *e)
		superseded = append(superseded, &sibling)
	}
	sort.Slice(superseded, func(i, j int) bool { return superseded[i].CreatedAt.Before(superseded[j].CreatedAt) })
	return superseded, nil
}

func (r *ProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, apperror.ErrProposalNotFound
	}
	return &p, nil
}

func (r *ProposalRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Proposal
	for _, p := range r.proposals {
		if p.SessionID == sessionID {
			p := p
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *ProposalRepository) FindEvents(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.ProposalEvent
	for _, e := range r.events[proposalID] {
		e := e
		result = append(result, &e)
	}
	return result, nil
}

type MessageRepository struct {
	mu       sync.Mutex
	messages []entity.Message
	Err      error
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MessageRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID, afterCursor string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var result []*entity.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID && m.Cursor > afterCursor {
			m := m
			result = append(result, &m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cursor < result[j].Cursor })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Published - событие, отправленное через Notifier.
type Published struct {
	SessionID uuid.UUID
	Event     string
	Data      any
}

type Notifier struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (n *Notifier) PublishToSession(sessionID uuid.UUID, event string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.events = append(n.events, Published{SessionID: sessionID, Event: event, Data: data})
	return nil
}

func (n *Notifier) Events() []Published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Published(nil), n.events...)
}

// EventNames возвращает типы событий в порядке публикации.
func (n *Notifier) EventNames() []string {
	var names []string
	for _, e := range n.Events() {
		names = append(names, e.Event)
	}
	return names
}

var (
	_ repository.ContributionRepository = (*ContributionRepository)(nil)
	_ repository.SessionRepository      = (*SessionRepository)(nil)
	_ repository.ProposalRepository     = (*ProposalRepository)(nil)
	_ repository.MessageRepository      = (*MessageRepository)(nil)
	_ repository.SessionNotifier        = (*Notifier)(nil)
)
