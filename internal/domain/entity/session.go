package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// NegotiationSession - переговоры по одному вкладу между дающей и
// получающей стороной. На вклад приходится не более одной сессии.
type NegotiationSession struct {
	ID                 uuid.UUID
	ContributionID     uuid.UUID
	GiverUserID        uuid.UUID
	ReceiverUserID     uuid.UUID
	Mode               valueobject.NegotiationMode
	Status             valueobject.SessionStatus
	Outcome            *valueobject.ProposalStatus
	AcceptedProposalID *uuid.UUID
	// TermsAppliedAt - момент, когда принятые условия записаны во вклад.
	TermsAppliedAt *time.Time
	CreatedAt      time.Time
	ClosedAt       *time.Time
}

func NewNegotiationSession(contributionID, giverID, receiverID uuid.UUID, mode valueobject.NegotiationMode) (*NegotiationSession, error) {
	if contributionID == uuid.Nil {
		return nil, apperror.Validation("contribution_id обязателен")
	}
	if giverID == uuid.Nil || receiverID == uuid.Nil {
		return nil, apperror.Validation("giver_user_id и receiver_user_id обязательны")
	}
	if giverID == receiverID {
		return nil, apperror.Validation("нельзя вести переговоры с самим собой")
	}
	if !mode.IsValid() {
		return nil, apperror.Validation("режим переговоров должен быть strict или flexible")
	}
	return &NegotiationSession{
		ID:             uuid.New(),
		ContributionID: contributionID,
		GiverUserID:    giverID,
		ReceiverUserID: receiverID,
		Mode:           mode,
		Status:         valueobject.SessionStatusOpen,
		CreatedAt:      time.Now(),
	}, nil
}

func (s *NegotiationSession) IsParticipant(userID uuid.UUID) bool {
	return s.GiverUserID == userID || s.ReceiverUserID == userID
}

// Counterparty возвращает вторую сторону переговоров.
func (s *NegotiationSession) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == s.GiverUserID {
		return s.ReceiverUserID
	}
	return s.GiverUserID
}

func (s *NegotiationSession) IsOpen() bool {
	return s.Status == valueobject.SessionStatusOpen
}

func (s *NegotiationSession) IsFlexible() bool {
	return s.Mode == valueobject.NegotiationModeFlexible
}

// Decide фиксирует решение по неизменяемым условиям strict-сессии.
// Повтор того же решения ничего не меняет и возвращает false.
func (s *NegotiationSession) Decide(userID uuid.UUID, decision valueobject.Decision) (bool, error) {
	if s.IsFlexible() {
		return false, apperror.Validation("в режиме flexible решения принимаются через предложения")
	}
	if userID != s.ReceiverUserID {
		return false, apperror.New(apperror.ErrCodeForbidden, "решение по условиям принимает получающая сторона")
	}

	outcome := decision.Outcome()
	if s.Outcome != nil {
		if *s.Outcome == outcome {
			return false, nil
		}
		return false, apperror.StateConflict("решение по сессии уже принято и не может быть изменено")
	}

	s.Outcome = &outcome
	s.close()
	return true, nil
}

// CloseWithProposal закрывает flexible-сессию принятым предложением.
func (s *NegotiationSession) CloseWithProposal(proposalID uuid.UUID) error {
	if !s.IsOpen() {
		if s.AcceptedProposalID != nil && *s.AcceptedProposalID == proposalID {
			return nil
		}
		return apperror.StateConflict("сессия переговоров уже закрыта")
	}
	accepted := valueobject.ProposalStatusAccepted
	s.Outcome = &accepted
	s.AcceptedProposalID = &proposalID
	s.close()
	return nil
}

// AwaitsTermsFor сообщает, что предложение принято, но его условия ещё не
// записаны во вклад.
func (s *NegotiationSession) AwaitsTermsFor(proposalID uuid.UUID) bool {
	return s.AcceptedProposalID != nil && *s.AcceptedProposalID == proposalID && s.TermsAppliedAt == nil
}

func (s *NegotiationSession) MarkTermsApplied() {
	now := time.Now()
	s.TermsAppliedAt = &now
}

func (s *NegotiationSession) close() {
	now := time.Now()
	s.Status = valueobject.SessionStatusClosed
	s.ClosedAt = &now
}
