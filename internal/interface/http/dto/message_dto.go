package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
)

type SendMessageRequest struct {
	Type    string  `json:"type"`
	Content string  `json:"content"`
	FileURL *string `json:"file_url"`
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	FileURL   *string   `json:"file_url"`
	Cursor    string    `json:"cursor"`
	CreatedAt time.Time `json:"created_at"`
}

func ToMessageResponse(m *entity.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		SenderID:  m.SenderID,
		Type:      string(m.Type),
		Content:   m.Content,
		FileURL:   m.FileURL,
		Cursor:    m.Cursor,
		CreatedAt: m.CreatedAt,
	}
}

func ToMessageResponses(messages []*entity.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, ToMessageResponse(m))
	}
	return responses
}

type AttachmentResponse struct {
	FileURL string `json:"file_url"`
	Size    int64  `json:"size"`
}
