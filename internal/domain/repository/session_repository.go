package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
)

type SessionRepository interface {
	// CreateIfAbsent вставляет сессию, если у вклада её ещё нет, и возвращает
	// ту сессию, которая в итоге хранится для вклада.
	CreateIfAbsent(ctx context.Context, session *entity.NegotiationSession) (*entity.NegotiationSession, error)
	// Close сохраняет закрытие сессии, если она ещё открыта; иначе StateConflict.
	Close(ctx context.Context, session *entity.NegotiationSession) error
	// MarkTermsApplied сохраняет отметку о записи принятых условий во вклад.
	// Повторная отметка ничего не меняет.
	MarkTermsApplied(ctx context.Context, session *entity.NegotiationSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.NegotiationSession, error)
	FindByContributionID(ctx context.Context, contributionID uuid.UUID) ([]*entity.NegotiationSession, error)
}
