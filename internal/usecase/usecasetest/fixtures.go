package usecasetest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
)

// SeedPublished сохраняет опубликованный вклад с одной оценкой на каждую сторону.
func SeedPublished(repo *ContributionRepository, ownerID uuid.UUID) *entity.Contribution {
	now := time.Now()
	c := &entity.Contribution{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     "Seed round",
		Kind:      valueobject.ContributionKindFinancial,
		State:     valueobject.ContributionStatePublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = repo.Create(context.Background(), c)
	_ = repo.ReplaceTerms(context.Background(), &entity.TermSet{
		ContributionID: c.ID,
		Valuations: []entity.Valuation{
			{ID: uuid.New(), Direction: valueobject.DirectionToGive, Type: valueobject.ValuationTypeFixed, Amount: 100, Currency: "USD"},
			{ID: uuid.New(), Direction: valueobject.DirectionToReceive, Type: valueobject.ValuationTypeFixed, Amount: 150, Currency: "USD"},
		},
	})
	return c
}

// SeedSession сохраняет открытую сессию по вкладу.
func SeedSession(repo *SessionRepository, contributionID, giverID, receiverID uuid.UUID, mode valueobject.NegotiationMode) *entity.NegotiationSession {
	s, err := entity.NewNegotiationSession(contributionID, giverID, receiverID, mode)
	if err != nil {
		panic(err)
	}
	stored, _ := repo.CreateIfAbsent(context.Background(), s)
	return stored
}
