package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal, event *entity.ProposalEvent) error
	// Transition атомарно сохраняет переход предложения. Запись проходит, только
	// если в хранилище всё ещё лежит версия expectedVersion в статусе pending,
	// иначе возвращается ErrStaleVersion. Если closing != nil, в той же
	// транзакции закрывается сессия (StateConflict, если она уже закрыта),
	// а остальные ожидающие предложения сессии отклоняются. Отклонённые
	// таким образом предложения возвращаются.
	Transition(ctx context.Context, proposal *entity.Proposal, expectedVersion int, event *entity.ProposalEvent, closing *entity.NegotiationSession) ([]*entity.Proposal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entity.Proposal, error)
	FindEvents(ctx context.Context, proposalID uuid.UUID) ([]*entity.ProposalEvent, error)
}
