package proposal

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
)

type ListProposalsUseCase struct {
	sessionRepo  repository.SessionRepository
	proposalRepo repository.ProposalRepository
}

func NewListProposalsUseCase(sessionRepo repository.SessionRepository, proposalRepo repository.ProposalRepository) *ListProposalsUseCase {
	return &ListProposalsUseCase{
		sessionRepo:  sessionRepo,
		proposalRepo: proposalRepo,
	}
}

// Execute возвращает предложения сессии по возрастанию created_at.
func (uc *ListProposalsUseCase) Execute(ctx context.Context, sessionID, userID uuid.UUID) ([]*entity.Proposal, error) {
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID); err != nil {
		return nil, err
	}
	return uc.proposalRepo.FindBySessionID(ctx, sessionID)
}

type ProposalHistoryUseCase struct {
	sessionRepo  repository.SessionRepository
	proposalRepo repository.ProposalRepository
}

func NewProposalHistoryUseCase(sessionRepo repository.SessionRepository, proposalRepo repository.ProposalRepository) *ProposalHistoryUseCase {
	return &ProposalHistoryUseCase{
		sessionRepo:  sessionRepo,
		proposalRepo: proposalRepo,
	}
}

func (uc *ProposalHistoryUseCase) Execute(ctx context.Context, proposalID, sessionID, userID uuid.UUID) ([]*entity.ProposalEvent, error) {
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID); err != nil {
		return nil, err
	}
	p, err := uc.proposalRepo.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.SessionID != sessionID {
		return nil, apperror.ErrProposalNotFound
	}
	return uc.proposalRepo.FindEvents(ctx, proposalID)
}
