package valueobject

import (
	"fmt"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// ContributionState - состояние мастера настройки вклада.
type ContributionState string

const (
	ContributionStateDraft        ContributionState = "draft"
	ContributionStateAwaitingSave ContributionState = "awaiting_save"
	ContributionStateConfiguring  ContributionState = "configuring"
	ContributionStatePublished    ContributionState = "published"
)

func (s ContributionState) IsValid() bool {
	switch s {
	case ContributionStateDraft, ContributionStateAwaitingSave, ContributionStateConfiguring, ContributionStatePublished:
		return true
	}
	return false
}

func NewContributionState(state string) (ContributionState, error) {
	s := ContributionState(state)
	if !s.IsValid() {
		return "", apperror.Validation("некорректное состояние вклада")
	}
	return s, nil
}

type ContributionEvent string

const (
	ContributionEventSubmit  ContributionEvent = "submit"
	ContributionEventSave    ContributionEvent = "save"
	ContributionEventDiscard ContributionEvent = "discard"
	ContributionEventPublish ContributionEvent = "publish"
	ContributionEventReopen  ContributionEvent = "reopen"
)

var contributionTransitions = map[ContributionState]map[ContributionEvent]ContributionState{
	ContributionStateDraft: {
		ContributionEventSubmit: ContributionStateAwaitingSave,
	},
	ContributionStateAwaitingSave: {
		ContributionEventSave:    ContributionStateConfiguring,
		ContributionEventDiscard: ContributionStateDraft,
	},
	ContributionStateConfiguring: {
		ContributionEventPublish: ContributionStatePublished,
	},
	ContributionStatePublished: {
		ContributionEventReopen: ContributionStateConfiguring,
	},
}

// Next возвращает целевое состояние для события. Охранные условия,
// зависящие от данных вклада, проверяет entity.Contribution.
func (s ContributionState) Next(event ContributionEvent) (ContributionState, error) {
	next, ok := contributionTransitions[s][event]
	if !ok {
		return "", apperror.Validation(fmt.Sprintf("переход %q недопустим из состояния %q", event, s))
	}
	return next, nil
}

// AllowsTermEditing: условия меняются только на шаге настройки.
func (s ContributionState) AllowsTermEditing() bool {
	return s == ContributionStateConfiguring
}
