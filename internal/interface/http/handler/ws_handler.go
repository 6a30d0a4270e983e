package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/service"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/message"
	"github.com/ignatzorin/negotiation-backend/internal/ws"
)

// WSHandler подписывает участника на события сессии через WebSocket.
type WSHandler struct {
	subscribeUC  *message.SubscribeUseCase
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

// NewWSHandler создаёт хэндлер. Пустой allowedOrigins разрешает любой origin.
func NewWSHandler(subscribeUC *message.SubscribeUseCase, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		subscribeUC:  subscribeUC,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws/negotiations/:sessionId?token=...
// Браузер не умеет ставить заголовки на WebSocket, поэтому токен приходит в query.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен")
		return
	}

	userID, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil {
		response.Unauthorized(c, "невалидный access токен")
		return
	}

	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	sub, err := h.subscribeUC.Execute(c.Request.Context(), sessionID, userID)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sub.Close()
		logger.ForSession(sessionID).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	ws.NewClient(conn, sub, userID).Run(c.Request.Context())
}
