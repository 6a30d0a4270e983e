package valueobject

import (
	"sort"
	"strings"
	"time"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// TermKind - дискриминатор полезной нагрузки предложения.
type TermKind string

const (
	TermKindValuation  TermKind = "valuation"
	TermKindSubtypeSet TermKind = "subtype_set"
	TermKindCustom     TermKind = "custom"
)

type ValuationTerms struct {
	Type        ValuationType `json:"type"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	EffectiveAt *time.Time    `json:"effective_at,omitempty"`
}

type SubtypeSetTerms struct {
	Subtypes []string `json:"subtypes"`
}

type CustomTerms struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TermPayload - размеченное объединение условий. Заполнено ровно одно поле,
// соответствующее Kind; Normalize это проверяет.
type TermPayload struct {
	Kind       TermKind         `json:"kind"`
	Valuation  *ValuationTerms  `json:"valuation,omitempty"`
	SubtypeSet *SubtypeSetTerms `json:"subtype_set,omitempty"`
	Custom     *CustomTerms     `json:"custom,omitempty"`
}

func NewValuationPayload(valuationType ValuationType, amount float64, currency string) (TermPayload, error) {
	p := TermPayload{
		Kind:      TermKindValuation,
		Valuation: &ValuationTerms{Type: valuationType, Amount: amount, Currency: currency},
	}
	return p, p.Normalize()
}

func NewSubtypeSetPayload(subtypes ...string) (TermPayload, error) {
	p := TermPayload{
		Kind:       TermKindSubtypeSet,
		SubtypeSet: &SubtypeSetTerms{Subtypes: subtypes},
	}
	return p, p.Normalize()
}

func NewCustomPayload(label, value string) (TermPayload, error) {
	p := TermPayload{
		Kind:   TermKindCustom,
		Custom: &CustomTerms{Label: label, Value: value},
	}
	return p, p.Normalize()
}

// Normalize проверяет согласованность объединения и приводит значения
// к каноническому виду (валюта в верхнем регистре, подтипы отсортированы).
func (p *TermPayload) Normalize() error {
	set := 0
	if p.Valuation != nil {
		set++
	}
	if p.SubtypeSet != nil {
		set++
	}
	if p.Custom != nil {
		set++
	}
	if set != 1 {
		return apperror.Validation("условия должны содержать ровно один вариант")
	}

	switch p.Kind {
	case TermKindValuation:
		if p.Valuation == nil {
			return apperror.Validation("для kind=valuation требуется поле valuation")
		}
		return p.Valuation.normalize()
	case TermKindSubtypeSet:
		if p.SubtypeSet == nil {
			return apperror.Validation("для kind=subtype_set требуется поле subtype_set")
		}
		return p.SubtypeSet.normalize()
	case TermKindCustom:
		if p.Custom == nil {
			return apperror.Validation("для kind=custom требуется поле custom")
		}
		return p.Custom.normalize()
	default:
		return apperror.Validation("неизвестный тип условий")
	}
}

func (v *ValuationTerms) normalize() error {
	if v.Type == "" {
		v.Type = ValuationTypeFixed
	}
	if !v.Type.IsValid() {
		return apperror.Validation("некорректный тип оценки")
	}
	money, err := NewMoney(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	if v.Type == ValuationTypePercentage && money.Amount > 100 {
		return apperror.Validation("процент не может превышать 100")
	}
	v.Amount = money.Amount
	v.Currency = money.Currency
	return nil
}

func (s *SubtypeSetTerms) normalize() error {
	if len(s.Subtypes) == 0 {
		return apperror.Validation("набор подтипов не может быть пустым")
	}
	seen := make(map[string]struct{}, len(s.Subtypes))
	out := make([]string, 0, len(s.Subtypes))
	for _, name := range s.Subtypes {
		name = strings.TrimSpace(name)
		if name == "" {
			return apperror.Validation("название подтипа не может быть пустым")
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	s.Subtypes = out
	return nil
}

func (c *CustomTerms) normalize() error {
	c.Label = strings.TrimSpace(c.Label)
	c.Value = strings.TrimSpace(c.Value)
	if c.Label == "" || c.Value == "" {
		return apperror.Validation("для произвольного условия нужны label и value")
	}
	return nil
}
