package comparison

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
)

// CompareUseCase - информационное сравнение условий двух сторон.
// Результат не кэшируется и ничего не меняет в хранилище.
type CompareUseCase struct {
	contributionRepo repository.ContributionRepository
	sessionRepo      repository.SessionRepository
	policy           PartitionPolicy
}

func NewCompareUseCase(contributionRepo repository.ContributionRepository, sessionRepo repository.SessionRepository, policy PartitionPolicy) *CompareUseCase {
	if policy == "" {
		policy = PartitionShared
	}
	return &CompareUseCase{
		contributionRepo: contributionRepo,
		sessionRepo:      sessionRepo,
		policy:           policy,
	}
}

func (uc *CompareUseCase) Execute(ctx context.Context, contributionID, userID uuid.UUID) (*Comparison, error) {
	contribution, err := uc.contributionRepo.FindByID(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewContribution(ctx, uc.sessionRepo, contribution, userID); err != nil {
		return nil, err
	}

	terms, err := uc.contributionRepo.LoadTerms(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	return Build(terms, uc.policy), nil
}
