package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/dto"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/message"
)

type MessageHandler struct {
	sendUC   *message.SendMessageUseCase
	listUC   *message.ListMessagesUseCase
	uploadUC *message.UploadAttachmentUseCase
}

func NewMessageHandler(
	sendUC *message.SendMessageUseCase,
	listUC *message.ListMessagesUseCase,
	uploadUC *message.UploadAttachmentUseCase,
) *MessageHandler {
	return &MessageHandler{
		sendUC:   sendUC,
		listUC:   listUC,
		uploadUC: uploadUC,
	}
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	msg, err := h.sendUC.Execute(c.Request.Context(), message.SendMessageInput{
		SessionID: sessionID,
		SenderID:  userID,
		Type:      req.Type,
		Content:   req.Content,
		FileURL:   req.FileURL,
	})
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.ToMessageResponse(msg))
}

// List отдаёт сообщения после курсора ?after=, новые в конце.
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	limit := h.listUC.EffectiveLimit(parseIntQuery(c, "limit", 0))
	messages, err := h.listUC.Execute(c.Request.Context(), sessionID, userID, c.Query("after"), limit)
	if err != nil {
		fail(c, err)
		return
	}

	next := c.Query("after")
	if len(messages) > 0 {
		next = messages[len(messages)-1].Cursor
	}
	response.Page(c, dto.ToMessageResponses(messages), next, len(messages) == limit)
}

// UploadAttachment принимает multipart поле file и возвращает file_url
// для последующего сообщения типа file.
func (h *MessageHandler) UploadAttachment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "sessionId", "некорректный ID сессии")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "поле file обязательно")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return
	}
	defer src.Close()

	att, err := h.uploadUC.Execute(c.Request.Context(), sessionID, userID, file.Filename, src)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, dto.AttachmentResponse{FileURL: att.URL, Size: att.Size})
}
