package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/dto"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/session"
)

// NegotiationHandler обслуживает сессии переговоров.
type NegotiationHandler struct {
	createUC *session.CreateOrGetSessionUseCase
	getUC    *session.GetSessionUseCase
	listUC   *session.ListSessionsUseCase
	decideUC *session.DecideUseCase
}

func NewNegotiationHandler(
	createUC *session.CreateOrGetSessionUseCase,
	getUC *session.GetSessionUseCase,
	listUC *session.ListSessionsUseCase,
	decideUC *session.DecideUseCase,
) *NegotiationHandler {
	return &NegotiationHandler{
		createUC: createUC,
		getUC:    getUC,
		listUC:   listUC,
		decideUC: decideUC,
	}
}

// CreateOrGet возвращает 201 для новой сессии и 200, если она уже была.
func (h *NegotiationHandler) CreateOrGet(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	s, created, err := h.createUC.Execute(c.Request.Context(), session.CreateOrGetSessionInput{
		ActorID:        userID,
		ContributionID: contributionID,
		GiverUserID:    req.GiverUserID,
		ReceiverUserID: req.ReceiverUserID,
		Mode:           req.Mode,
	})
	if err != nil {
		fail(c, err)
		return
	}

	if created {
		response.Created(c, dto.ToSessionResponse(s))
		return
	}
	response.Success(c, dto.ToSessionResponse(s))
}

func (h *NegotiationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	sessions, err := h.listUC.Execute(c.Request.Context(), contributionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToSessionResponses(sessions))
}

func (h *NegotiationHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	s, err := h.getUC.Execute(c.Request.Context(), sessionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToSessionResponse(s))
}

func (h *NegotiationHandler) Decide(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "decision должен быть accept или reject")
		return
	}

	s, err := h.decideUC.Execute(c.Request.Context(), session.DecideInput{
		SessionID: sessionID,
		UserID:    userID,
		Decision:  req.Decision,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToSessionResponse(s))
}
