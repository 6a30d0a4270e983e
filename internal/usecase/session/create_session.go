package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type CreateOrGetSessionInput struct {
	ActorID        uuid.UUID
	ContributionID uuid.UUID
	GiverUserID    uuid.UUID
	ReceiverUserID uuid.UUID
	Mode           string
}

type CreateOrGetSessionUseCase struct {
	sessionRepo      repository.SessionRepository
	contributionRepo repository.ContributionRepository
}

func NewCreateOrGetSessionUseCase(sessionRepo repository.SessionRepository, contributionRepo repository.ContributionRepository) *CreateOrGetSessionUseCase {
	return &CreateOrGetSessionUseCase{
		sessionRepo:      sessionRepo,
		contributionRepo: contributionRepo,
	}
}

// Execute возвращает сессию вклада, создавая её при первом обращении.
// Повторный вызов отдаёт уже существующую сессию без изменений, даже если
// передан другой режим. created == true, только если сессия создана сейчас.
func (uc *CreateOrGetSessionUseCase) Execute(ctx context.Context, input CreateOrGetSessionInput) (*entity.NegotiationSession, bool, error) {
	mode, err := valueobject.NewNegotiationMode(input.Mode)
	if err != nil {
		return nil, false, err
	}
	candidate, err := entity.NewNegotiationSession(input.ContributionID, input.GiverUserID, input.ReceiverUserID, mode)
	if err != nil {
		return nil, false, err
	}
	if !candidate.IsParticipant(input.ActorID) {
		return nil, false, apperror.New(apperror.ErrCodeForbidden, "начать переговоры может только их участник")
	}

	contribution, err := uc.contributionRepo.FindByID(ctx, input.ContributionID)
	if err != nil {
		return nil, false, err
	}
	if !contribution.IsPublished() {
		return nil, false, apperror.Validation("переговоры возможны только по опубликованному вкладу")
	}

	existing, err := uc.sessionRepo.FindByContributionID(ctx, input.ContributionID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return uc.reuse(existing[0], input.ActorID)
	}

	stored, err := uc.sessionRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, false, err
	}
	// Параллельный запрос мог успеть раньше: тогда вернётся его сессия.
	if stored.ID != candidate.ID {
		return uc.reuse(stored, input.ActorID)
	}

	logger.ForSession(stored.ID).WithFields(logrus.Fields{
		"contribution_id": stored.ContributionID,
		"mode":            stored.Mode,
	}).Info("Negotiation session created")
	return stored, true, nil
}

func (uc *CreateOrGetSessionUseCase) reuse(s *entity.NegotiationSession, actorID uuid.UUID) (*entity.NegotiationSession, bool, error) {
	if !s.IsParticipant(actorID) {
		return nil, false, apperror.ErrNotParticipant
	}
	return s, false, nil
}
