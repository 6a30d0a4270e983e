// Package access отвечает на вопрос, может ли пользователь видеть вклад.
package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// CanViewContribution: владелец вклада или участник любой его сессии.
func CanViewContribution(ctx context.Context, sessions repository.SessionRepository, c *entity.Contribution, userID uuid.UUID) error {
	if c.IsOwnedBy(userID) {
		return nil
	}
	list, err := sessions.FindByContributionID(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, s := range list {
		if s.IsParticipant(userID) {
			return nil
		}
	}
	return apperror.ErrForbidden
}

// LoadParticipantSession читает сессию и проверяет, что userID в ней участвует.
func LoadParticipantSession(ctx context.Context, sessions repository.SessionRepository, sessionID, userID uuid.UUID) (*entity.NegotiationSession, error) {
	s, err := sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsParticipant(userID) {
		return nil, apperror.ErrNotParticipant
	}
	return s, nil
}
