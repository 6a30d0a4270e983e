package session

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

type DecideInput struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Decision  string
}

// DecideUseCase - принятие или отклонение неизменяемых условий strict-сессии.
type DecideUseCase struct {
	sessionRepo repository.SessionRepository
	notifier    repository.SessionNotifier
}

func NewDecideUseCase(sessionRepo repository.SessionRepository, notifier repository.SessionNotifier) *DecideUseCase {
	return &DecideUseCase{
		sessionRepo: sessionRepo,
		notifier:    notifier,
	}
}

func (uc *DecideUseCase) Execute(ctx context.Context, input DecideInput) (*entity.NegotiationSession, error) {
	decision, err := valueobject.NewDecision(input.Decision)
	if err != nil {
		return nil, err
	}
	s, err := access.LoadParticipantSession(ctx, uc.sessionRepo, input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}

	changed, err := s.Decide(input.UserID, decision)
	if err != nil || !changed {
		return s, err
	}

	if err := uc.sessionRepo.Close(ctx, s); err != nil {
		if !apperror.IsStateConflict(err) {
			return nil, err
		}
		// Решение успел записать параллельный запрос: повтор того же решения не ошибка.
		current, findErr := uc.sessionRepo.FindByID(ctx, s.ID)
		if findErr != nil {
			return nil, findErr
		}
		if _, decideErr := current.Decide(input.UserID, decision); decideErr != nil {
			return nil, decideErr
		}
		return current, nil
	}

	logger.ForSession(s.ID).WithFields(logrus.Fields{
		"decision": decision,
		"user_id":  input.UserID,
	}).Info("Strict session decided")
	events.Publish(uc.notifier, s.ID, repository.EventSessionDecided, map[string]any{
		"session_id": s.ID,
		"outcome":    *s.Outcome,
		"decided_by": input.UserID,
	})
	return s, nil
}
