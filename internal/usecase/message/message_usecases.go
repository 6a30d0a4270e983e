package message

import (
	"context"
	"hash/fnv"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/access"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/events"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type SendMessageInput struct {
	SessionID uuid.UUID
	SenderID  uuid.UUID
	Type      string
	Content   string
	FileURL   *string
}

type SendMessageUseCase struct {
	sessionRepo repository.SessionRepository
	msgRepo     repository.MessageRepository
	notifier    repository.SessionNotifier

	// Запись и публикация внутри одной сессии идут под одной блокировкой,
	// чтобы подписчики получали сообщения в порядке курсоров. Блокировки
	// разбиты на фиксированное число полос по хешу сессии.
	locks [sendLockStripes]sync.Mutex
}

const sendLockStripes = 64

func NewSendMessageUseCase(sessionRepo repository.SessionRepository, msgRepo repository.MessageRepository, notifier repository.SessionNotifier) *SendMessageUseCase {
	return &SendMessageUseCase{
		sessionRepo: sessionRepo,
		msgRepo:     msgRepo,
		notifier:    notifier,
	}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	msgType, err := valueobject.NewMessageType(input.Type)
	if err != nil {
		return nil, err
	}
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, input.SessionID, input.SenderID); err != nil {
		return nil, err
	}

	mu := uc.sessionLock(input.SessionID)
	mu.Lock()
	defer mu.Unlock()

	msg, err := entity.NewMessage(input.SessionID, input.SenderID, msgType, input.Content, input.FileURL)
	if err != nil {
		return nil, err
	}
	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	events.Publish(uc.notifier, msg.SessionID, repository.EventMessageCreated, map[string]any{
		"id":         msg.ID,
		"session_id": msg.SessionID,
		"sender_id":  msg.SenderID,
		"type":       msg.Type,
		"content":    msg.Content,
		"file_url":   msg.FileURL,
		"cursor":     msg.Cursor,
		"created_at": msg.CreatedAt,
	})
	return msg, nil
}

func (uc *SendMessageUseCase) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	return &uc.locks[lockStripe(sessionID)]
}

func lockStripe(sessionID uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(sessionID[:])
	return int(h.Sum32() % sendLockStripes)
}

type ListMessagesUseCase struct {
	sessionRepo repository.SessionRepository
	msgRepo     repository.MessageRepository
	pageSize    int
}

func NewListMessagesUseCase(sessionRepo repository.SessionRepository, msgRepo repository.MessageRepository, pageSize int) *ListMessagesUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ListMessagesUseCase{sessionRepo: sessionRepo, msgRepo: msgRepo, pageSize: pageSize}
}

// Execute возвращает сообщения после курсора, новые в конце.
func (uc *ListMessagesUseCase) Execute(ctx context.Context, sessionID, userID uuid.UUID, afterCursor string, limit int) ([]*entity.Message, error) {
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID); err != nil {
		return nil, err
	}
	return uc.msgRepo.FindBySessionID(ctx, sessionID, afterCursor, uc.EffectiveLimit(limit))
}

// EffectiveLimit приводит запрошенный размер страницы к допустимому.
func (uc *ListMessagesUseCase) EffectiveLimit(limit int) int {
	if limit <= 0 {
		return uc.pageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

type SubscribeUseCase struct {
	sessionRepo repository.SessionRepository
	broker      repository.SessionBroker
}

func NewSubscribeUseCase(sessionRepo repository.SessionRepository, broker repository.SessionBroker) *SubscribeUseCase {
	return &SubscribeUseCase{sessionRepo: sessionRepo, broker: broker}
}

// Execute подписывает участника на события сессии. Подписку нужно закрыть.
func (uc *SubscribeUseCase) Execute(ctx context.Context, sessionID, userID uuid.UUID) (repository.SessionSubscription, error) {
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID); err != nil {
		return nil, err
	}
	return uc.broker.Subscribe(sessionID)
}

type UploadAttachmentUseCase struct {
	sessionRepo repository.SessionRepository
	store       repository.AttachmentStore
}

func NewUploadAttachmentUseCase(sessionRepo repository.SessionRepository, store repository.AttachmentStore) *UploadAttachmentUseCase {
	return &UploadAttachmentUseCase{sessionRepo: sessionRepo, store: store}
}

type Attachment struct {
	URL  string
	Size int64
}

func (uc *UploadAttachmentUseCase) Execute(ctx context.Context, sessionID, userID uuid.UUID, name string, r io.Reader) (*Attachment, error) {
	if _, err := access.LoadParticipantSession(ctx, uc.sessionRepo, sessionID, userID); err != nil {
		return nil, err
	}
	url, size, err := uc.store.Save(ctx, sessionID, name, r)
	if err != nil {
		return nil, err
	}
	return &Attachment{URL: url, Size: size}, nil
}
