package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
)

type GetSessionUseCase struct {
	sessionRepo repository.SessionRepository
}

func NewGetSessionUseCase(sessionRepo repository.SessionRepository) *GetSessionUseCase {
	return &GetSessionUseCase{sessionRepo: sessionRepo}
}

func (uc *GetSessionUseCase) Execute(ctx context.Context, sessionID, userID uuid.UUID) (*entity.NegotiationSession, error) {
	return access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID)
}

type ListSessionsUseCase struct {
	sessionRepo      repository.SessionRepository
	contributionRepo repository.ContributionRepository
}

func NewListSessionsUseCase(sessionRepo repository.SessionRepository, contributionRepo repository.ContributionRepository) *ListSessionsUseCase {
	return &ListSessionsUseCase{
		sessionRepo:      sessionRepo,
		contributionRepo: contributionRepo,
	}
}

// Execute возвращает сессии вклада. Владелец видит все, остальные только свои.
func (uc *ListSessionsUseCase) Execute(ctx context.Context, contributionID, userID uuid.UUID) ([]*entity.NegotiationSession, error) {
	contribution, err := uc.contributionRepo.FindByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	sessions, err := uc.sessionRepo.FindByContributionID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if contribution.IsOwnedBy(userID) {
		return sessions, nil
	}

	visible := make([]*entity.NegotiationSession, 0, len(sessions))
	for _, s := range sessions {
		if s.IsParticipant(userID) {
			visible = append(visible, s)
		}
	}
	return visible, nil
}
