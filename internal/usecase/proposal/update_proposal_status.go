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

type UpdateProposalStatusInput struct {
	ProposalID      uuid.UUID
	SessionID       uuid.UUID
	ActorID         uuid.UUID
	ExpectedVersion int
}

// UpdateProposalStatusUseCase переводит предложение в терминальный статус.
// Принятие закрывает сессию и записывает согласованные условия во вклад.
type UpdateProposalStatusUseCase struct {
	sessionRepo      repository.SessionRepository
	proposalRepo     repository.ProposalRepository
	contributionRepo repository.ContributionRepository
	notifier         repository.SessionNotifier
}

func NewUpdateProposalStatusUseCase(
	sessionRepo repository.SessionRepository,
	proposalRepo repository.ProposalRepository,
	contributionRepo repository.ContributionRepository,
	notifier repository.SessionNotifier,
) *UpdateProposalStatusUseCase {
	return &UpdateProposalStatusUseCase{
		sessionRepo:      sessionRepo,
		proposalRepo:     proposalRepo,
		contributionRepo: contributionRepo,
		notifier:         notifier,
	}
}

func (uc *UpdateProposalStatusUseCase) Accept(ctx context.Context, input UpdateProposalStatusInput) (*entity.Proposal, error) {
	return uc.execute(ctx, input, valueobject.DecisionAccept)
}

func (uc *UpdateProposalStatusUseCase) Reject(ctx context.Context, input UpdateProposalStatusInput) (*entity.Proposal, error) {
	return uc.execute(ctx, input, valueobject.DecisionReject)
}

func (uc *UpdateProposalStatusUseCase) execute(ctx context.Context, input UpdateProposalStatusInput, decision valueobject.Decision) (*entity.Proposal, error) {
	session, err := access.LoadParticipantSession(ctx, uc.sessionRepo, input.SessionID, input.ActorID)
	if err != nil {
		return nil, err
	}
	proposal, err := uc.proposalRepo.FindByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.SessionID != session.ID {
		return nil, apperror.ErrProposalNotFound
	}
	if proposal.IsPending() && !session.IsOpen() {
		return nil, apperror.StateConflict("сессия переговоров уже закрыта")
	}

	from := proposal.Status
	changed, err := apply(proposal, decision, input.ActorID, input.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Повторное принятие дописывает условия, если прошлая запись не удалась.
		if decision == valueobject.DecisionAccept && session.AwaitsTermsFor(proposal.ID) {
			return uc.applyTerms(ctx, session, proposal)
		}
		return proposal, nil
	}

	var closing *entity.NegotiationSession
	if decision == valueobject.DecisionAccept {
		if err := session.CloseWithProposal(proposal.ID); err != nil {
			return nil, err
		}
		closing = session
	}

	event := entity.NewProposalEvent(proposal, &from, input.ActorID)
	superseded, err := uc.proposalRepo.Transition(ctx, proposal, input.ExpectedVersion, event, closing)
	if err != nil {
		if apperror.IsStaleVersion(err) {
			return uc.resolveLostRace(ctx, input, decision)
		}
		return nil, err
	}

	log := logger.ForSession(session.ID).WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"actor_id":    input.ActorID,
		"version":     proposal.Version,
	})

	if decision == valueobject.DecisionReject {
		log.Info("Proposal rejected")
		events.Publish(uc.notifier, session.ID, repository.EventProposalRejected, eventData(proposal))
		return proposal, nil
	}

	log.WithField("superseded", len(superseded)).Info("Proposal accepted")
	events.Publish(uc.notifier, session.ID, repository.EventProposalAccepted, eventData(proposal))
	for _, sibling := range superseded {
		events.Publish(uc.notifier, session.ID, repository.EventProposalRejected, eventData(sibling))
	}
	return uc.applyTerms(ctx, session, proposal)
}

// applyTerms записывает условия принятого предложения во вклад и отмечает
// это в сессии. Пока отметки нет, повторное принятие повторяет запись.
func (uc *UpdateProposalStatusUseCase) applyTerms(ctx context.Context, session *entity.NegotiationSession, proposal *entity.Proposal) (*entity.Proposal, error) {
	log := logger.ForSession(session.ID).WithField("proposal_id", proposal.ID)

	if err := uc.writeBack(ctx, session.ContributionID, proposal.Payload); err != nil {
		log.WithError(err).Error("Failed to write agreed terms back")
		return proposal, apperror.Unavailable(err, "предложение принято, но условия вклада не обновлены")
	}
	if err := uc.sessionRepo.MarkTermsApplied(ctx, session); err != nil {
		log.WithError(err).Error("Failed to mark agreed terms as applied")
		return proposal, apperror.Unavailable(err, "предложение принято, но отметка о записи условий не сохранена")
	}
	log.Debug("Agreed terms applied")
	return proposal, nil
}

func apply(p *entity.Proposal, decision valueobject.Decision, actorID uuid.UUID, expectedVersion int) (bool, error) {
	if decision == valueobject.DecisionAccept {
		return p.Accept(actorID, expectedVersion)
	}
	return p.Reject(actorID, expectedVersion)
}

// resolveLostRace вызывается, когда параллельный запрос успел изменить
// предложение раньше. Если он пришёл к тому же статусу, повтор не ошибка.
func (uc *UpdateProposalStatusUseCase) resolveLostRace(ctx context.Context, input UpdateProposalStatusInput, decision valueobject.Decision) (*entity.Proposal, error) {
	current, err := uc.proposalRepo.FindByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if current.Status == decision.Outcome() {
		return current, nil
	}
	if current.Status.IsTerminal() {
		return nil, apperror.StateConflict("предложение уже в статусе " + string(current.Status))
	}
	return nil, apperror.ErrStaleVersion
}

func (uc *UpdateProposalStatusUseCase) writeBack(ctx context.Context, contributionID uuid.UUID, payload valueobject.TermPayload) error {
	terms, err := uc.contributionRepo.LoadTerms(ctx, contributionID)
	if err != nil {
		return err
	}
	if err := terms.ApplyAgreed(payload); err != nil {
		return err
	}
	return uc.contributionRepo.ReplaceTerms(ctx, terms)
}
