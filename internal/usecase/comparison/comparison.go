package comparison

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// NotSet - отображаемое значение для отсутствующего поля.
const NotSet = "Not set"

// PartitionPolicy определяет, как условия без направления делятся между сторонами.
type PartitionPolicy string

const (
	// PartitionShared кладёт инсайты, follow-up, правила и файлы в обе стороны целиком.
	PartitionShared PartitionPolicy = "shared"
	// PartitionDirectional фильтрует их по направлению; элементы без направления
	// попадают в обе стороны.
	PartitionDirectional PartitionPolicy = "directional"
)

func NewPartitionPolicy(policy string) (PartitionPolicy, error) {
	p := PartitionPolicy(policy)
	if p == "" {
		return PartitionShared, nil
	}
	if p != PartitionShared && p != PartitionDirectional {
		return "", apperror.Validation("политика разделения должна быть shared или directional")
	}
	return p, nil
}

// PartySnapshot - условия одной стороны.
type PartySnapshot struct {
	Direction  valueobject.Direction
	Subtypes   []entity.Subtype
	Valuations []entity.Valuation
	Insights   []entity.Insight
	FollowUps  []entity.FollowUp
	SmartRules []entity.SmartRule
	Files      []entity.TermFile
}

// Row - одна строка сравнения. Значения nil означают отсутствие поля.
type Row struct {
	Label         string
	GiverValue    any
	ReceiverValue any
	Matches       bool
}

func (r Row) GiverDisplay() string    { return display(r.GiverValue) }
func (r Row) ReceiverDisplay() string { return display(r.ReceiverValue) }

type Comparison struct {
	ContributionID uuid.UUID
	Partition      PartitionPolicy
	Giver          PartySnapshot
	Receiver       PartySnapshot
	Rows           []Row
	GeneratedAt    time.Time
}

// Build собирает сравнение из одного снимка условий. Функция чистая:
// результат зависит только от terms и policy.
func Build(terms *entity.TermSet, policy PartitionPolicy) *Comparison {
	giver := snapshot(terms, valueobject.DirectionToGive, policy)
	receiver := snapshot(terms, valueobject.DirectionToReceive, policy)

	return &Comparison{
		ContributionID: terms.ContributionID,
		Partition:      policy,
		Giver:          giver,
		Receiver:       receiver,
		Rows:           rows(giver, receiver),
		GeneratedAt:    time.Now(),
	}
}

func snapshot(terms *entity.TermSet, dir valueobject.Direction, policy PartitionPolicy) PartySnapshot {
	include := func(d valueobject.Direction) bool {
		return policy == PartitionShared || d == dir || d == valueobject.DirectionShared
	}

	s := PartySnapshot{Direction: dir}
	for _, v := range terms.Subtypes {
		if v.Direction == dir {
			s.Subtypes = append(s.Subtypes, v)
		}
	}
	for _, v := range terms.Valuations {
		if v.Direction == dir {
			s.Valuations = append(s.Valuations, v)
		}
	}
	for _, v := range terms.Insights {
		if include(v.Direction) {
			s.Insights = append(s.Insights, v)
		}
	}
	for _, v := range terms.FollowUps {
		if include(v.Direction) {
			s.FollowUps = append(s.FollowUps, v)
		}
	}
	for _, v := range terms.SmartRules {
		if include(v.Direction) {
			s.SmartRules = append(s.SmartRules, v)
		}
	}
	for _, v := range terms.Files {
		if include(v.Direction) {
			s.Files = append(s.Files, v)
		}
	}
	return s
}

// fields - плоское представление стороны для построчного сравнения.
type fields struct {
	valuationType     any
	valuationAmount   any
	valuationCurrency any
	subtypes          any
	insights          any
	followUps         any
	smartRules        any
	files             any
}

func flatten(s PartySnapshot) fields {
	var f fields
	if len(s.Valuations) > 0 {
		primary := s.Valuations[0]
		f.valuationType = string(primary.Type)
		f.valuationAmount = primary.Amount
		f.valuationCurrency = primary.Currency
	}

	var subtypes []string
	for _, v := range s.Subtypes {
		subtypes = append(subtypes, v.Name)
	}
	// Подтипы - множество, порядок ввода не важен.
	sort.Strings(subtypes)
	f.subtypes = list(subtypes)

	var insights, followUps, rules, files []string
	for _, v := range s.Insights {
		insights = append(insights, v.Title)
	}
	for _, v := range s.FollowUps {
		followUps = append(followUps, v.Title)
	}
	for _, v := range s.SmartRules {
		rules = append(rules, v.Condition+" -> "+v.Action)
	}
	for _, v := range s.Files {
		name := v.Name
		if name == "" {
			name = v.URL
		}
		files = append(files, name)
	}
	f.insights = list(insights)
	f.followUps = list(followUps)
	f.smartRules = list(rules)
	f.files = list(files)
	return f
}

// list превращает пустой срез в nil, чтобы пустая коллекция считалась отсутствующей.
func list(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

func rows(giver, receiver PartySnapshot) []Row {
	g, r := flatten(giver), flatten(receiver)
	pairs := []struct {
		label string
		g, r  any
	}{
		{"valuation.type", g.valuationType, r.valuationType},
		{"valuation.amount", g.valuationAmount, r.valuationAmount},
		{"valuation.currency", g.valuationCurrency, r.valuationCurrency},
		{"subtypes", g.subtypes, r.subtypes},
		{"insights", g.insights, r.insights},
		{"followups", g.followUps, r.followUps},
		{"smart_rules", g.smartRules, r.smartRules},
		{"files", g.files, r.files},
	}

	out := make([]Row, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Row{
			Label:         p.label,
			GiverValue:    p.g,
			ReceiverValue: p.r,
			Matches:       reflect.DeepEqual(p.g, p.r),
		})
	}
	return out
}

func display(v any) string {
	switch val := v.(type) {
	case nil:
		return NotSet
	case []string:
		return strings.Join(val, ", ")
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprint(val)
	}
}
