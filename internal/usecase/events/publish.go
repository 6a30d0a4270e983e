// Package events публикует события сессии подписчикам.
package events

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
)

// Publish отправляет событие подписчикам сессии. Ошибка доставки не отменяет
// уже сохранённое изменение, поэтому только логируется.
func Publish(n repository.SessionNotifier, sessionID uuid.UUID, event string, data any) {
	if n == nil {
		return
	}
	if err := n.PublishToSession(sessionID, event, data); err != nil {
		logger.ForSession(sessionID).WithError(err).WithField("event", event).Warn("Failed to publish session event")
	}
}
