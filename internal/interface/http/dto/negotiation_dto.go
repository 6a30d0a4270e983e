package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/comparison"
)

type CreateSessionRequest struct {
	GiverUserID    uuid.UUID `json:"giver_user_id"`
	ReceiverUserID uuid.UUID `json:"receiver_user_id"`
	Mode           string    `json:"mode" binding:"required"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

type SessionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ContributionID     uuid.UUID  `json:"contribution_id"`
	GiverUserID        uuid.UUID  `json:"giver_user_id"`
	ReceiverUserID     uuid.UUID  `json:"receiver_user_id"`
	Mode               string     `json:"mode"`
	Status             string     `json:"status"`
	Outcome            *string    `json:"outcome"`
	AcceptedProposalID *uuid.UUID `json:"accepted_proposal_id"`
	TermsAppliedAt     *time.Time `json:"terms_applied_at"`
	CreatedAt          time.Time  `json:"created_at"`
	ClosedAt           *time.Time `json:"closed_at"`
}

func ToSessionResponse(s *entity.NegotiationSession) SessionResponse {
	resp := SessionResponse{
		ID:                 s.ID,
		ContributionID:     s.ContributionID,
		GiverUserID:        s.GiverUserID,
		ReceiverUserID:     s.ReceiverUserID,
		Mode:               string(s.Mode),
		Status:             string(s.Status),
		AcceptedProposalID: s.AcceptedProposalID,
		TermsAppliedAt:     s.TermsAppliedAt,
		CreatedAt:          s.CreatedAt,
		ClosedAt:           s.ClosedAt,
	}
	if s.Outcome != nil {
		outcome := string(*s.Outcome)
		resp.Outcome = &outcome
	}
	return resp
}

func ToSessionResponses(sessions []*entity.NegotiationSession) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, ToSessionResponse(s))
	}
	return responses
}

type ComparisonRowResponse struct {
	Label           string `json:"label"`
	GiverValue      any    `json:"giver_value"`
	ReceiverValue   any    `json:"receiver_value"`
	GiverDisplay    string `json:"giver_display"`
	ReceiverDisplay string `json:"receiver_display"`
	Matches         bool   `json:"matches"`
}

type ComparisonResponse struct {
	ContributionID uuid.UUID               `json:"contribution_id"`
	Partition      string                  `json:"partition"`
	Giver          TermSetPayload          `json:"giver"`
	Receiver       TermSetPayload          `json:"receiver"`
	Rows           []ComparisonRowResponse `json:"rows"`
	GeneratedAt    time.Time               `json:"generated_at"`
}

func ToComparisonResponse(c *comparison.Comparison) ComparisonResponse {
	rows := make([]ComparisonRowResponse, 0, len(c.Rows))
	for _, r := range c.Rows {
		rows = append(rows, ComparisonRowResponse{
			Label:           r.Label,
			GiverValue:      r.GiverValue,
			ReceiverValue:   r.ReceiverValue,
			GiverDisplay:    r.GiverDisplay(),
			ReceiverDisplay: r.ReceiverDisplay(),
			Matches:         r.Matches,
		})
	}
	return ComparisonResponse{
		ContributionID: c.ContributionID,
		Partition:      string(c.Partition),
		Giver:          snapshotPayload(c.Giver),
		Receiver:       snapshotPayload(c.Receiver),
		Rows:           rows,
		GeneratedAt:    c.GeneratedAt,
	}
}

func snapshotPayload(s comparison.PartySnapshot) TermSetPayload {
	return ToTermSetPayload(&entity.TermSet{
		Subtypes:   s.Subtypes,
		Valuations: s.Valuations,
		Insights:   s.Insights,
		FollowUps:  s.FollowUps,
		SmartRules: s.SmartRules,
		Files:      s.Files,
	})
}
