package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/dto"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/comparison"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/contribution"
)

type ContributionHandler struct {
	createUC     *contribution.CreateContributionUseCase
	getUC        *contribution.GetContributionUseCase
	transitionUC *contribution.TransitionContributionUseCase
	termsUC      *contribution.ConfigureTermsUseCase
	compareUC    *comparison.CompareUseCase
}

func NewContributionHandler(
	createUC *contribution.CreateContributionUseCase,
	getUC *contribution.GetContributionUseCase,
	transitionUC *contribution.TransitionContributionUseCase,
	termsUC *contribution.ConfigureTermsUseCase,
	compareUC *comparison.CompareUseCase,
) *ContributionHandler {
	return &ContributionHandler{
		createUC:     createUC,
		getUC:        getUC,
		transitionUC: transitionUC,
		termsUC:      termsUC,
		compareUC:    compareUC,
	}
}

func (h *ContributionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), contribution.CreateContributionInput{
		OwnerID: userID,
		Title:   req.Title,
		Kind:    req.Kind,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToContributionResponse(created, nil))
}

func (h *ContributionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	view, err := h.getUC.Execute(c.Request.Context(), contributionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToContributionResponse(view.Contribution, view.Terms))
}

func (h *ContributionHandler) Transition(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле event обязательно")
		return
	}

	updated, err := h.transitionUC.Execute(c.Request.Context(), contribution.TransitionInput{
		ContributionID: contributionID,
		OwnerID:        userID,
		Event:          req.Event,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToContributionResponse(updated, nil))
}

func (h *ContributionHandler) ConfigureTerms(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	var req dto.TermSetPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	terms, err := h.termsUC.Execute(c.Request.Context(), userID, req.ToTermSet(contributionID))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToTermSetPayload(terms))
}

func (h *ContributionHandler) Compare(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	contributionID, ok := uuidParam(c, "id", "некорректный ID вклада")
	if !ok {
		return
	}

	result, err := h.compareUC.Execute(c.Request.Context(), contributionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, dto.ToComparisonResponse(result))
}
