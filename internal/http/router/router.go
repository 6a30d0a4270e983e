package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/negotiation-backend/internal/config"
	"github.com/ignatzorin/negotiation-backend/internal/http/middleware"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/handler"
	"github.com/ignatzorin/negotiation-backend/internal/service"
	"github.com/ignatzorin/negotiation-backend/internal/storage"
)

// Handlers собирает все хэндлеры, которые монтирует роутер.
type Handlers struct {
	Health       *handler.HealthHandler
	Contribution *handler.ContributionHandler
	Negotiation  *handler.NegotiationHandler
	Proposal     *handler.ProposalHandler
	Message      *handler.MessageHandler
	WS           *handler.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS(storage.URLPrefix, http.Dir(cfg.AttachmentStoragePath))

	api := r.Group("/api")

	// Браузерный WebSocket передаёт токен в query, поэтому маршрут вне auth группы.
	api.GET("/ws/negotiations/:sessionId", middleware.UUIDValidator("sessionId"), h.WS.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	writes := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	contributions := protected.Group("/contributions")
	{
		contributions.POST("", writes, h.Contribution.Create)

		byID := contributions.Group("/:id", middleware.UUIDValidator("id"))
		byID.GET("", h.Contribution.Get)
		byID.POST("/transitions", writes, h.Contribution.Transition)
		byID.PUT("/terms", writes, h.Contribution.ConfigureTerms)
		byID.GET("/comparison", h.Contribution.Compare)
		byID.POST("/negotiations", writes, h.Negotiation.CreateOrGet)
		byID.GET("/negotiations", h.Negotiation.List)
	}

	negotiations := protected.Group("/negotiations/:sessionId", middleware.UUIDValidator("sessionId"))
	{
		negotiations.GET("", h.Negotiation.Get)
		negotiations.POST("/decision", writes, h.Negotiation.Decide)

		negotiations.POST("/proposals", writes, h.Proposal.Submit)
		negotiations.GET("/proposals", h.Proposal.List)

		proposals := negotiations.Group("/proposals/:proposalId", middleware.UUIDValidator("proposalId"))
		proposals.POST("/accept", writes, h.Proposal.Accept)
		proposals.POST("/reject", writes, h.Proposal.Reject)
		proposals.GET("/history", h.Proposal.History)

		negotiations.POST("/messages", writes, h.Message.Send)
		negotiations.GET("/messages", h.Message.List)
		negotiations.POST("/attachments", writes, h.Message.UploadAttachment)
	}

	return r
}
