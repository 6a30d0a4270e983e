package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/validation"
)

type Contribution struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Kind      valueobject.ContributionKind
	State     valueobject.ContributionState
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewContribution(ownerID uuid.UUID, title string, kind valueobject.ContributionKind) (*Contribution, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.Validation("владелец вклада обязателен")
	}
	if err := validation.ValidateTitle(title); err != nil {
		return nil, err
	}
	if kind != "" && !kind.IsValid() {
		return nil, apperror.Validation("некорректный тип вклада")
	}
	now := time.Now()
	return &Contribution{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		Kind:      kind,
		State:     valueobject.ContributionStateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TransitionGuard - данные, от которых зависят охранные условия переходов.
type TransitionGuard struct {
	Terms          *TermSet
	HasOpenSession bool
}

func (c *Contribution) Transition(event valueobject.ContributionEvent, guard TransitionGuard) error {
	next, err := c.State.Next(event)
	if err != nil {
		return err
	}

	switch event {
	case valueobject.ContributionEventSubmit:
		if c.Title == "" || !c.Kind.IsValid() {
			return apperror.Validation("перед сохранением укажите название и тип вклада")
		}
	case valueobject.ContributionEventPublish:
		if guard.Terms == nil || len(guard.Terms.Valuations) == 0 {
			return apperror.Validation("для публикации нужна хотя бы одна оценка")
		}
	case valueobject.ContributionEventReopen:
		if guard.HasOpenSession {
			return apperror.StateConflict("нельзя вернуть вклад в настройку во время переговоров")
		}
	}

	c.State = next
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Contribution) IsPublished() bool {
	return c.State == valueobject.ContributionStatePublished
}

func (c *Contribution) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}
