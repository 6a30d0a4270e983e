package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
)

type SubmitProposalRequest struct {
	Payload valueobject.TermPayload `json:"payload"`
	Message *string                 `json:"message"`
}

// ProposalDecisionRequest несёт версию, которую видел клиент.
type ProposalDecisionRequest struct {
	Version int `json:"version" binding:"required,gt=0"`
}

type ProposalResponse struct {
	ID         uuid.UUID               `json:"id"`
	SessionID  uuid.UUID               `json:"session_id"`
	ProposerID uuid.UUID               `json:"proposer_id"`
	Payload    valueobject.TermPayload `json:"payload"`
	Message    *string                 `json:"message"`
	Status     string                  `json:"status"`
	Version    int                     `json:"version"`
	DecidedBy  *uuid.UUID              `json:"decided_by"`
	DecidedAt  *time.Time              `json:"decided_at"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

func ToProposalResponse(p *entity.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:         p.ID,
		SessionID:  p.SessionID,
		ProposerID: p.ProposerID,
		Payload:    p.Payload,
		Message:    p.Message,
		Status:     string(p.Status),
		Version:    p.Version,
		DecidedBy:  p.DecidedBy,
		DecidedAt:  p.DecidedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToProposalResponses(proposals []*entity.Proposal) []ProposalResponse {
	responses := make([]ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		responses = append(responses, ToProposalResponse(p))
	}
	return responses
}

type ProposalEventResponse struct {
	ID         uuid.UUID `json:"id"`
	ProposalID uuid.UUID `json:"proposal_id"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToProposalEventResponses(events []*entity.ProposalEvent) []ProposalEventResponse {
	responses := make([]ProposalEventResponse, 0, len(events))
	for _, e := range events {
		resp := ProposalEventResponse{
			ID:         e.ID,
			ProposalID: e.ProposalID,
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			Version:    e.Version,
			CreatedAt:  e.CreatedAt,
		}
		if e.FromStatus != nil {
			from := string(*e.FromStatus)
			resp.FromStatus = &from
		}
		responses = append(responses, resp)
	}
	return responses
}
