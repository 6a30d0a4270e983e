package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

const MaxProposalMessageLength = 2000

type Proposal struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	ProposerID uuid.UUID
	Payload    valueobject.TermPayload
	Message    *string
	Status     valueobject.ProposalStatus
	// Version - токен оптимистичной блокировки, растёт при каждом переходе.
	Version   int
	DecidedBy *uuid.UUID
	DecidedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProposal(sessionID, proposerID uuid.UUID, payload valueobject.TermPayload, message *string) (*Proposal, error) {
	if sessionID == uuid.Nil || proposerID == uuid.Nil {
		return nil, apperror.Validation("session_id и proposer_id обязательны")
	}
	if err := payload.Normalize(); err != nil {
		return nil, err
	}
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if len([]rune(trimmed)) > MaxProposalMessageLength {
			return nil, apperror.Validation("сообщение к предложению слишком длинное")
		}
		if trimmed == "" {
			message = nil
		} else {
			message = &trimmed
		}
	}

	now := time.Now()
	return &Proposal{
		ID:         uuid.New(),
		SessionID:  sessionID,
		ProposerID: proposerID,
		Payload:    payload,
		Message:    message,
		Status:     valueobject.ProposalStatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Accept переводит предложение в accepted. Повторное принятие - no-op
// (возвращает false), принятие отклонённого - конфликт состояния.
// Своё предложение принять нельзя.
func (p *Proposal) Accept(actorID uuid.UUID, expectedVersion int) (bool, error) {
	if p.Status == valueobject.ProposalStatusAccepted {
		return false, nil
	}
	if p.Status.IsTerminal() {
		return false, apperror.StateConflict("нельзя принять отклонённое предложение")
	}
	if p.IsOwnedBy(actorID) {
		return false, apperror.New(apperror.ErrCodeForbidden, "нельзя принять собственное предложение")
	}
	if err := p.transition(valueobject.ProposalStatusAccepted, actorID, expectedVersion); err != nil {
		return false, err
	}
	return true, nil
}

// Reject симметричен Accept. Автор может отклонить своё предложение (отозвать его).
func (p *Proposal) Reject(actorID uuid.UUID, expectedVersion int) (bool, error) {
	if p.Status == valueobject.ProposalStatusRejected {
		return false, nil
	}
	if p.Status.IsTerminal() {
		return false, apperror.StateConflict("нельзя отклонить принятое предложение")
	}
	if err := p.transition(valueobject.ProposalStatusRejected, actorID, expectedVersion); err != nil {
		return false, err
	}
	return true, nil
}

// Supersede отклоняет ожидающее предложение, когда сессию закрыло другое
// принятое предложение. Возвращает событие перехода или nil.
func (p *Proposal) Supersede(actorID uuid.UUID) *ProposalEvent {
	if !p.IsPending() {
		return nil
	}
	from := p.Status
	_ = p.transition(valueobject.ProposalStatusRejected, actorID, p.Version)
	return NewProposalEvent(p, &from, actorID)
}

func (p *Proposal) transition(to valueobject.ProposalStatus, actorID uuid.UUID, expectedVersion int) error {
	if expectedVersion != p.Version {
		return apperror.ErrStaleVersion
	}
	now := time.Now()
	p.Status = to
	p.Version++
	p.DecidedBy = &actorID
	p.DecidedAt = &now
	p.UpdatedAt = now
	return nil
}

func (p *Proposal) IsOwnedBy(userID uuid.UUID) bool {
	return p.ProposerID == userID
}

func (p *Proposal) IsPending() bool {
	return p.Status == valueobject.ProposalStatusPending
}

// ProposalEvent - запись в неизменяемой истории статусов предложения.
type ProposalEvent struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	FromStatus *valueobject.ProposalStatus
	ToStatus   valueobject.ProposalStatus
	ActorID    uuid.UUID
	Version    int
	CreatedAt  time.Time
}

func NewProposalEvent(p *Proposal, from *valueobject.ProposalStatus, actorID uuid.UUID) *ProposalEvent {
	return &ProposalEvent{
		ID:         uuid.New(),
		ProposalID: p.ID,
		FromStatus: from,
		ToStatus:   p.Status,
		ActorID:    actorID,
		Version:    p.Version,
		CreatedAt:  p.UpdatedAt,
	}
}
