package repository

import (
	"context"
	"io"

	"github.com/google/uuid"
)

const (
	EventMessageCreated    = "message.created"
	EventProposalSubmitted = "proposal.submitted"
	EventProposalAccepted  = "proposal.accepted"
	EventProposalRejected  = "proposal.rejected"
	EventSessionDecided    = "session.decided"
)

// SessionEvent - событие, адресованное подписчикам одной сессии.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Data      any       `json:"data"`
}

// SessionNotifier доставляет события подписчикам конкретной сессии.
type SessionNotifier interface {
	PublishToSession(sessionID uuid.UUID, event string, data any) error
}

// SessionSubscription - поток событий одной сессии в порядке публикации.
// Канал закрывается при Close или если подписчик не успевает читать.
type SessionSubscription interface {
	Events() <-chan SessionEvent
	Close()
}

type SessionBroker interface {
	SessionNotifier
	Subscribe(sessionID uuid.UUID) (SessionSubscription, error)
}

// AttachmentStore сохраняет вложения чата и возвращает публичную ссылку.
type AttachmentStore interface {
	Save(ctx context.Context, sessionID uuid.UUID, originalName string, r io.Reader) (url string, size int64, err error)
}
