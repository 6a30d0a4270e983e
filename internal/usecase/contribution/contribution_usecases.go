package contribution

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
	"github.com/sirupsen/logrus"
)

type CreateContributionInput struct {
	OwnerID uuid.UUID
	Title   string
	Kind    string
}

type CreateContributionUseCase struct {
	contributionRepo repository.ContributionRepository
}

func NewCreateContributionUseCase(contributionRepo repository.ContributionRepository) *CreateContributionUseCase {
	return &CreateContributionUseCase{contributionRepo: contributionRepo}
}

// Execute создаёт черновик. Тип можно не указывать до отправки на сохранение.
func (uc *CreateContributionUseCase) Execute(ctx context.Context, input CreateContributionInput) (*entity.Contribution, error) {
	c, err := entity.NewContribution(input.OwnerID, input.Title, valueobject.ContributionKind(input.Kind))
	if err != nil {
		return nil, err
	}
	if err := uc.contributionRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ContributionView - вклад вместе с текущим набором условий.
type ContributionView struct {
	Contribution *entity.Contribution
	Terms        *entity.TermSet
}

type GetContributionUseCase struct {
	contributionRepo repository.ContributionRepository
	sessionRepo      repository.SessionRepository
}

func NewGetContributionUseCase(contributionRepo repository.ContributionRepository, sessionRepo repository.SessionRepository) *GetContributionUseCase {
	return &GetContributionUseCase{contributionRepo: contributionRepo, sessionRepo: sessionRepo}
}

func (uc *GetContributionUseCase) Execute(ctx context.Context, id, userID uuid.UUID) (*ContributionView, error) {
	c, err := uc.contributionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewContribution(ctx, uc.sessionRepo, c, userID); err != nil {
		return nil, err
	}
	terms, err := uc.contributionRepo.LoadTerms(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContributionView{Contribution: c, Terms: terms}, nil
}

type TransitionInput struct {
	ContributionID uuid.UUID
	OwnerID        uuid.UUID
	Event          string
}

// TransitionContributionUseCase проводит вклад по жизненному циклу
// draft → awaiting_save → configuring → published.
type TransitionContributionUseCase struct {
	contributionRepo repository.ContributionRepository
	sessionRepo      repository.SessionRepository
}

func NewTransitionContributionUseCase(contributionRepo repository.ContributionRepository, sessionRepo repository.SessionRepository) *TransitionContributionUseCase {
	return &TransitionContributionUseCase{contributionRepo: contributionRepo, sessionRepo: sessionRepo}
}

func (uc *TransitionContributionUseCase) Execute(ctx context.Context, input TransitionInput) (*entity.Contribution, error) {
	c, err := uc.contributionRepo.FindByID(ctx, input.ContributionID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(input.OwnerID) {
		return nil, apperror.ErrForbidden
	}

	event := valueobject.ContributionEvent(input.Event)
	guard := entity.TransitionGuard{}
	switch event {
	case valueobject.ContributionEventPublish:
		if guard.Terms, err = uc.contributionRepo.LoadTerms(ctx, c.ID); err != nil {
			return nil, err
		}
	case valueobject.ContributionEventReopen:
		if guard.HasOpenSession, err = uc.hasOpenSession(ctx, c.ID); err != nil {
			return nil, err
		}
	}

	from := c.State
	if err := c.Transition(event, guard); err != nil {
		return nil, err
	}
	if err := uc.contributionRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"contribution_id": c.ID,
		"from":            from,
		"to":              c.State,
	}).Info("Contribution state changed")
	return c, nil
}

func (uc *TransitionContributionUseCase) hasOpenSession(ctx context.Context, contributionID uuid.UUID) (bool, error) {
	sessions, err := uc.sessionRepo.FindByContributionID(ctx, contributionID)
	if err != nil {
		return false, err
	}
	for _, s := range sessions {
		if s.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

// ConfigureTermsUseCase заменяет набор условий целиком. Доступно владельцу
// только в состоянии configuring.
type ConfigureTermsUseCase struct {
	contributionRepo repository.ContributionRepository
}

func NewConfigureTermsUseCase(contributionRepo repository.ContributionRepository) *ConfigureTermsUseCase {
	return &ConfigureTermsUseCase{contributionRepo: contributionRepo}
}

func (uc *ConfigureTermsUseCase) Execute(ctx context.Context, ownerID uuid.UUID, terms *entity.TermSet) (*entity.TermSet, error) {
	c, err := uc.contributionRepo.FindByID(ctx, terms.ContributionID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(ownerID) {
		return nil, apperror.ErrForbidden
	}
	if !c.State.AllowsTermEditing() {
		return nil, apperror.StateConflict("условия можно менять только в состоянии configuring")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if err := uc.contributionRepo.ReplaceTerms(ctx, terms); err != nil {
		return nil, err
	}
	return terms, nil
}
