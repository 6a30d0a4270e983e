package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	// FindBySessionID возвращает сообщения после курсора в порядке возрастания.
	FindBySessionID(ctx context.Context, sessionID uuid.UUID, afterCursor string, limit int) ([]*entity.Message, error)
}
