package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/dto"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/proposal"
)

type ProposalHandler struct {
	submitUC  *proposal.SubmitProposalUseCase
	statusUC  *proposal.UpdateProposalStatusUseCase
	listUC    *proposal.ListProposalsUseCase
	historyUC *proposal.ProposalHistoryUseCase
}

func NewProposalHandler(
	submitUC *proposal.SubmitProposalUseCase,
	statusUC *proposal.UpdateProposalStatusUseCase,
	listUC *proposal.ListProposalsUseCase,
	historyUC *proposal.ProposalHistoryUseCase,
) *ProposalHandler {
	return &ProposalHandler{
		submitUC:  submitUC,
		statusUC:  statusUC,
		listUC:    listUC,
		historyUC: historyUC,
	}
}

func (h *ProposalHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.submitUC.Execute(c.Request.Context(), proposal.SubmitProposalInput{
		SessionID:  sessionID,
		ProposerID: userID,
		Payload:    req.Payload,
		Message:    req.Message,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToProposalResponse(created))
}

func (h *ProposalHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	proposals, err := h.listUC.Execute(c.Request.Context(), sessionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponses(proposals))
}

func (h *ProposalHandler) Accept(c *gin.Context) {
	h.decide(c, h.statusUC.Accept)
}

func (h *ProposalHandler) Reject(c *gin.Context) {
	h.decide(c, h.statusUC.Reject)
}

type decisionFunc func(ctx context.Context, input proposal.UpdateProposalStatusInput) (*entity.Proposal, error)

func (h *ProposalHandler) decide(c *gin.Context, apply decisionFunc) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "proposalId", "некорректный ID предложения")
	if !ok {
		return
	}

	var req dto.ProposalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле version обязательно")
		return
	}

	updated, err := apply(c.Request.Context(), proposal.UpdateProposalStatusInput{
		ProposalID:      proposalID,
		SessionID:       sessionID,
		ActorID:         userID,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		// Решение уже зафиксировано, но условия вклада не обновились.
		if updated != nil && apperror.IsUnavailable(err) {
			_ = c.Error(err)
			response.ErrorWithData(c, err, dto.ToProposalResponse(updated))
			return
		}
		fail(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(updated))
}

func (h *ProposalHandler) History(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "proposalId", "некорректный ID предложения")
	if !ok {
		return
	}

	events, err := h.historyUC.Execute(c.Request.Context(), proposalID, sessionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToProposalEventResponses(events))
}
