package entity

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/validation"
)

const MaxMessageLength = 5000

// Message - запись чата переговоров. Сообщения не редактируются и не удаляются.
type Message struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	SenderID  uuid.UUID
	Type      valueobject.MessageType
	Content   string
	FileURL   *string
	// Cursor - монотонный ULID, задаёт порядок сообщений и служит курсором пагинации.
	Cursor    string
	CreatedAt time.Time
}

func NewMessage(sessionID, senderID uuid.UUID, messageType valueobject.MessageType, content string, fileURL *string) (*Message, error) {
	if !messageType.IsValid() {
		return nil, apperror.Validation("некорректный тип сообщения")
	}
	content = strings.TrimSpace(content)
	if err := validation.ValidateLength("сообщение", content, 0, MaxMessageLength); err != nil {
		return nil, err
	}
	if fileURL != nil {
		if trimmed := strings.TrimSpace(*fileURL); trimmed == "" {
			fileURL = nil
		} else if err := validation.ValidateFileLink(trimmed); err != nil {
			return nil, err
		} else {
			fileURL = &trimmed
		}
	}

	if messageType.RequiresFile() {
		if fileURL == nil {
			return nil, apperror.Validation("для файла или записи звонка нужна ссылка file_url")
		}
	} else if content == "" {
		return nil, apperror.Validation("сообщение не может быть пустым")
	}

	cursor, now := NewMessageCursor()
	return &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		SenderID:  senderID,
		Type:      messageType,
		Content:   content,
		FileURL:   fileURL,
		Cursor:    cursor,
		CreatedAt: now,
	}, nil
}

func (m *Message) IsOwnedBy(userID uuid.UUID) bool {
	return m.SenderID == userID
}

var (
	cursorMu      sync.Mutex
	cursorLastMS  uint64
	cursorEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageCursor выдаёт строго возрастающие в пределах процесса ULID
// вместе с моментом создания. Если часы сдвинулись назад, используется
// последняя выданная миллисекунда.
func NewMessageCursor() (string, time.Time) {
	cursorMu.Lock()
	defer cursorMu.Unlock()

	now := time.Now()
	ms := ulid.Timestamp(now)
	if ms < cursorLastMS {
		ms = cursorLastMS
	}
	cursorLastMS = ms
	return ulid.MustNew(ms, cursorEntropy).String(), now
}
