package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
)

type CreateContributionRequest struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

type TransitionRequest struct {
	Event string `json:"event" binding:"required"`
}

type ContributionResponse struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Title     string          `json:"title"`
	Kind      string          `json:"kind"`
	State     string          `json:"state"`
	Terms     *TermSetPayload `json:"terms,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func ToContributionResponse(c *entity.Contribution, terms *entity.TermSet) ContributionResponse {
	resp := ContributionResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Title:     c.Title,
		Kind:      string(c.Kind),
		State:     string(c.State),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if terms != nil {
		payload := ToTermSetPayload(terms)
		resp.Terms = &payload
	}
	return resp
}

type SubtypeItem struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Direction string    `json:"direction"`
	Name      string    `json:"name"`
}

type ValuationItem struct {
	ID          uuid.UUID  `json:"id,omitempty"`
	Direction   string     `json:"direction"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

type InsightItem struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
}

type FollowUpItem struct {
	ID        uuid.UUID  `json:"id,omitempty"`
	Direction string     `json:"direction,omitempty"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

type SmartRuleItem struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Condition string    `json:"condition"`
	Action    string    `json:"action"`
}

type FileItem struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
}

// TermSetPayload - набор условий вклада в JSON. Пустое направление означает общее условие.
type TermSetPayload struct {
	Subtypes   []SubtypeItem   `json:"subtypes"`
	Valuations []ValuationItem `json:"valuations"`
	Insights   []InsightItem   `json:"insights"`
	FollowUps  []FollowUpItem  `json:"followups"`
	SmartRules []SmartRuleItem `json:"smart_rules"`
	Files      []FileItem      `json:"files"`
}

func (p TermSetPayload) ToTermSet(contributionID uuid.UUID) *entity.TermSet {
	ts := &entity.TermSet{ContributionID: contributionID}
	for _, s := range p.Subtypes {
		ts.Subtypes = append(ts.Subtypes, entity.Subtype{ID: s.ID, Direction: valueobject.Direction(s.Direction), Name: s.Name})
	}
	for _, v := range p.Valuations {
		ts.Valuations = append(ts.Valuations, entity.Valuation{
			ID:          v.ID,
			Direction:   valueobject.Direction(v.Direction),
			Type:        valueobject.ValuationType(v.Type),
			Amount:      v.Amount,
			Currency:    v.Currency,
			EffectiveAt: v.EffectiveAt,
		})
	}
	for _, i := range p.Insights {
		ts.Insights = append(ts.Insights, entity.Insight{ID: i.ID, Direction: valueobject.Direction(i.Direction), Title: i.Title, Body: i.Body})
	}
	for _, f := range p.FollowUps {
		ts.FollowUps = append(ts.FollowUps, entity.FollowUp{ID: f.ID, Direction: valueobject.Direction(f.Direction), Title: f.Title, DueAt: f.DueAt})
	}
	for _, r := range p.SmartRules {
		ts.SmartRules = append(ts.SmartRules, entity.SmartRule{ID: r.ID, Direction: valueobject.Direction(r.Direction), Condition: r.Condition, Action: r.Action})
	}
	for _, f := range p.Files {
		ts.Files = append(ts.Files, entity.TermFile{ID: f.ID, Direction: valueobject.Direction(f.Direction), Name: f.Name, URL: f.URL})
	}
	return ts
}

func ToTermSetPayload(ts *entity.TermSet) TermSetPayload {
	p := TermSetPayload{
		Subtypes:   make([]SubtypeItem, 0, len(ts.Subtypes)),
		Valuations: make([]ValuationItem, 0, len(ts.Valuations)),
		Insights:   make([]InsightItem, 0, len(ts.Insights)),
		FollowUps:  make([]FollowUpItem, 0, len(ts.FollowUps)),
		SmartRules: make([]SmartRuleItem, 0, len(ts.SmartRules)),
		Files:      make([]FileItem, 0, len(ts.Files)),
	}
	for _, s := range ts.Subtypes {
		p.Subtypes = append(p.Subtypes, SubtypeItem{ID: s.ID, Direction: string(s.Direction), Name: s.Name})
	}
	for _, v := range ts.Valuations {
		p.Valuations = append(p.Valuations, ValuationItem{
			ID:          v.ID,
			Direction:   string(v.Direction),
			Type:        string(v.Type),
			Amount:      v.Amount,
			Currency:    v.Currency,
			EffectiveAt: v.EffectiveAt,
		})
	}
	for _, i := range ts.Insights {
		p.Insights = append(p.Insights, InsightItem{ID: i.ID, Direction: string(i.Direction), Title: i.Title, Body: i.Body})
	}
	for _, f := range ts.FollowUps {
		p.FollowUps = append(p.FollowUps, FollowUpItem{ID: f.ID, Direction: string(f.Direction), Title: f.Title, DueAt: f.DueAt})
	}
	for _, r := range ts.SmartRules {
		p.SmartRules = append(p.SmartRules, SmartRuleItem{ID: r.ID, Direction: string(r.Direction), Condition: r.Condition, Action: r.Action})
	}
	for _, f := range ts.Files {
		p.Files = append(p.Files, FileItem{ID: f.ID, Direction: string(f.Direction), Name: f.Name, URL: f.URL})
	}
	return p
}
