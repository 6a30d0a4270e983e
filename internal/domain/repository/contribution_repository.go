package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
)

// ContributionRepository - хранилище вкладов и их условий (Term Store).
type ContributionRepository interface {
	Create(ctx context.Context, contribution *entity.Contribution) error
	Update(ctx context.Context, contribution *entity.Contribution) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Contribution, error)

	// LoadTerms читает весь набор условий одним согласованным снимком.
	LoadTerms(ctx context.Context, contributionID uuid.UUID) (*entity.TermSet, error)
	ReplaceTerms(ctx context.Context, terms *entity.TermSet) error
}
