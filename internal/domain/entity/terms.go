package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/validation"
)

type Subtype struct {
	ID        uuid.UUID
	Direction valueobject.Direction
	Name      string
}

type Valuation struct {
	ID          uuid.UUID
	Direction   valueobject.Direction
	Type        valueobject.ValuationType
	Amount      float64
	Currency    string
	EffectiveAt *time.Time
}

type Insight struct {
	ID        uuid.UUID
	Direction valueobject.Direction
	Title     string
	Body      string
}

type FollowUp struct {
	ID        uuid.UUID
	Direction valueobject.Direction
	Title     string
	DueAt     *time.Time
}

type SmartRule struct {
	ID        uuid.UUID
	Direction valueobject.Direction
	Condition string
	Action    string
}

type TermFile struct {
	ID        uuid.UUID
	Direction valueobject.Direction
	Name      string
	URL       string
}

// TermSet - полный набор условий вклада. Подтипы и оценки всегда привязаны
// к направлению, остальные коллекции могут быть общими (Direction == "").
type TermSet struct {
	ContributionID uuid.UUID
	Subtypes       []Subtype
	Valuations     []Valuation
	Insights       []Insight
	FollowUps      []FollowUp
	SmartRules     []SmartRule
	Files          []TermFile
}

// Validate проверяет набор и проставляет недостающие ID.
func (ts *TermSet) Validate() error {
	for i := range ts.Subtypes {
		s := &ts.Subtypes[i]
		if !s.Direction.IsDirectional() {
			return apperror.Validation("у подтипа должно быть направление to_give или to_receive")
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return apperror.Validation("название подтипа не может быть пустым")
		}
		ensureID(&s.ID)
	}
	for i := range ts.Valuations {
		v := &ts.Valuations[i]
		if !v.Direction.IsDirectional() {
			return apperror.Validation("у оценки должно быть направление to_give или to_receive")
		}
		terms := valueobject.ValuationTerms{Type: v.Type, Amount: v.Amount, Currency: v.Currency}
		payload := valueobject.TermPayload{Kind: valueobject.TermKindValuation, Valuation: &terms}
		if err := payload.Normalize(); err != nil {
			return err
		}
		v.Type, v.Amount, v.Currency = terms.Type, terms.Amount, terms.Currency
		ensureID(&v.ID)
	}
	for i := range ts.Insights {
		if err := checkDirection(ts.Insights[i].Direction); err != nil {
			return err
		}
		if strings.TrimSpace(ts.Insights[i].Title) == "" {
			return apperror.Validation("у инсайта должен быть заголовок")
		}
		ensureID(&ts.Insights[i].ID)
	}
	for i := range ts.FollowUps {
		if err := checkDirection(ts.FollowUps[i].Direction); err != nil {
			return err
		}
		if strings.TrimSpace(ts.FollowUps[i].Title) == "" {
			return apperror.Validation("у follow-up должен быть заголовок")
		}
		ensureID(&ts.FollowUps[i].ID)
	}
	for i := range ts.SmartRules {
		if err := checkDirection(ts.SmartRules[i].Direction); err != nil {
			return err
		}
		if strings.TrimSpace(ts.SmartRules[i].Condition) == "" || strings.TrimSpace(ts.SmartRules[i].Action) == "" {
			return apperror.Validation("у правила должны быть условие и действие")
		}
		ensureID(&ts.SmartRules[i].ID)
	}
	for i := range ts.Files {
		if err := checkDirection(ts.Files[i].Direction); err != nil {
			return err
		}
		ts.Files[i].URL = strings.TrimSpace(ts.Files[i].URL)
		if err := validation.ValidateFileLink(ts.Files[i].URL); err != nil {
			return err
		}
		ensureID(&ts.Files[i].ID)
	}
	return nil
}

// PrimaryValuation - первая оценка в указанном направлении.
func (ts *TermSet) PrimaryValuation(direction valueobject.Direction) (Valuation, bool) {
	for _, v := range ts.Valuations {
		if v.Direction == direction {
			return v, true
		}
	}
	return Valuation{}, false
}

// ApplyAgreed записывает принятые условия обратно в набор.
// Оценка и подтипы заменяются для обеих сторон, произвольное условие
// добавляется общим инсайтом.
func (ts *TermSet) ApplyAgreed(payload valueobject.TermPayload) error {
	if err := payload.Normalize(); err != nil {
		return err
	}

	switch payload.Kind {
	case valueobject.TermKindValuation:
		agreed := payload.Valuation
		rest := make([]Valuation, 0, len(ts.Valuations)+2)
		// Основная оценка каждой стороны заменяется, дополнительные остаются.
		for _, dir := range []valueobject.Direction{valueobject.DirectionToGive, valueobject.DirectionToReceive} {
			rest = append(rest, Valuation{
				ID:          uuid.New(),
				Direction:   dir,
				Type:        agreed.Type,
				Amount:      agreed.Amount,
				Currency:    agreed.Currency,
				EffectiveAt: agreed.EffectiveAt,
			})
			rest = append(rest, secondaryValuations(ts.Valuations, dir)...)
		}
		ts.Valuations = rest
	case valueobject.TermKindSubtypeSet:
		subtypes := make([]Subtype, 0, 2*len(payload.SubtypeSet.Subtypes))
		for _, dir := range []valueobject.Direction{valueobject.DirectionToGive, valueobject.DirectionToReceive} {
			for _, name := range payload.SubtypeSet.Subtypes {
				subtypes = append(subtypes, Subtype{ID: uuid.New(), Direction: dir, Name: name})
			}
		}
		ts.Subtypes = subtypes
	case valueobject.TermKindCustom:
		// Повторная запись того же условия не дублирует инсайт.
		for _, existing := range ts.Insights {
			if existing.Direction == valueobject.DirectionShared && existing.Title == payload.Custom.Label && existing.Body == payload.Custom.Value {
				return nil
			}
		}
		ts.Insights = append(ts.Insights, Insight{
			ID:        uuid.New(),
			Direction: valueobject.DirectionShared,
			Title:     payload.Custom.Label,
			Body:      payload.Custom.Value,
		})
	}
	return nil
}

func secondaryValuations(all []Valuation, direction valueobject.Direction) []Valuation {
	var out []Valuation
	primarySkipped := false
	for _, v := range all {
		if v.Direction != direction {
			continue
		}
		if !primarySkipped {
			primarySkipped = true
			continue
		}
		out = append(out, v)
	}
	return out
}

func checkDirection(d valueobject.Direction) error {
	if !d.IsValid() {
		return apperror.Validation("некорректное направление условия")
	}
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
