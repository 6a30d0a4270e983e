package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/jmoiron/sqlx"
)

type MessageRepositoryAdapter struct {
	db *sqlx.DB
}

func NewMessageRepositoryAdapter(db *sqlx.DB) *MessageRepositoryAdapter {
	return &MessageRepositoryAdapter{db: db}
}

func (r *MessageRepositoryAdapter) Create(ctx context.Context, msg *entity.Message) error {
	query := r.db.Rebind(`
		INSERT INTO messages (id, session_id, sender_id, type, content, file_url, cursor_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.SessionID, msg.SenderID, string(msg.Type), msg.Content, msg.FileURL, msg.Cursor, msg.CreatedAt.UTC(),
	)
	return storeErr(err, nil, "не удалось сохранить сообщение")
}

// FindBySessionID отдаёт страницу сообщений строго после курсора, новые в конце.
func (r *MessageRepositoryAdapter) FindBySessionID(ctx context.Context, sessionID uuid.UUID, afterCursor string, limit int) ([]*entity.Message, error) {
	var rows []messageRow
	query := r.db.Rebind(`
		SELECT id, session_id, sender_id, type, content, file_url, cursor_key, created_at
		FROM messages WHERE session_id = ? AND cursor_key > ?
		ORDER BY cursor_key ASC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, sessionID, afterCursor, limit); err != nil {
		return nil, storeErr(err, nil, "не удалось получить сообщения")
	}

	result := make([]*entity.Message, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

type messageRow struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	SenderID  uuid.UUID `db:"sender_id"`
	Type      string    `db:"type"`
	Content   string    `db:"content"`
	FileURL   *string   `db:"file_url"`
	Cursor    string    `db:"cursor_key"`
	CreatedAt time.Time `db:"created_at"`
}

func (m *messageRow) toEntity() *entity.Message {
	return &entity.Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		SenderID:  m.SenderID,
		Type:      valueobject.MessageType(m.Type),
		Content:   m.Content,
		FileURL:   m.FileURL,
		Cursor:    m.Cursor,
		CreatedAt: m.CreatedAt,
	}
}
