package proposal

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/events"
	"github.com/sirupsen/logrus"
)

type SubmitProposalInput struct {
	SessionID  uuid.UUID
	ProposerID uuid.UUID
	Payload    valueobject.TermPayload
	Message    *string
}

type SubmitProposalUseCase struct {
	sessionRepo  repository.SessionRepository
	proposalRepo repository.ProposalRepository
	notifier     repository.SessionNotifier
}

func NewSubmitProposalUseCase(sessionRepo repository.SessionRepository, proposalRepo repository.ProposalRepository, notifier repository.SessionNotifier) *SubmitProposalUseCase {
	return &SubmitProposalUseCase{
		sessionRepo:  sessionRepo,
		proposalRepo: proposalRepo,
		notifier:     notifier,
	}
}

func (uc *SubmitProposalUseCase) Execute(ctx context.Context, input SubmitProposalInput) (*entity.Proposal, error) {
	session, err := access.LoadParticipantSession(ctx, uc.sessionRepo, input.SessionID, input.ProposerID)
	if err != nil {
		return nil, err
	}
	if !session.IsFlexible() {
		return nil, apperror.Validation("в режиме strict предложения не принимаются")
	}
	if !session.IsOpen() {
		return nil, apperror.StateConflict("сессия переговоров уже закрыта")
	}

	proposal, err := entity.NewProposal(session.ID, input.ProposerID, input.Payload, input.Message)
	if err != nil {
		return nil, err
	}
	if err := uc.proposalRepo.Create(ctx, proposal, entity.NewProposalEvent(proposal, nil, input.ProposerID)); err != nil {
		return nil, err
	}

	logger.ForSession(session.ID).WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"kind":        proposal.Payload.Kind,
	}).Info("Proposal submitted")
	events.Publish(uc.notifier, session.ID, repository.EventProposalSubmitted, eventData(proposal))
	return proposal, nil
}

func eventData(p *entity.Proposal) map[string]any {
	return map[string]any{
		"proposal_id": p.ID,
		"session_id":  p.SessionID,
		"proposer_id": p.ProposerID,
		"payload":     p.Payload,
		"message":     p.Message,
		"status":      p.Status,
		"version":     p.Version,
		"decided_by":  p.DecidedBy,
	}
}
