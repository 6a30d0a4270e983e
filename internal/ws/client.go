package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/goroutine"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// CloseResync - код закрытия для отключённого медленного подписчика.
	CloseResync = 4000
)

// Client связывает WebSocket соединение с подпиской на сессию.
type Client struct {
	conn   *websocket.Conn
	sub    repository.SessionSubscription
	userID uuid.UUID
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, sub repository.SessionSubscription, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		sub:    sub,
		userID: userID,
	}
}

// Run запускает обработку входящих и исходящих сообщений и блокируется до разрыва.
func (c *Client) Run(ctx context.Context) {
	goroutine.SafeGo(c.writePump)
	c.readPump(ctx)
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.sub.Close()
	_ = c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Клиент только получает события, входящие сообщения игнорируются.
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Log.WithError(err).WithField("user_id", c.userID).Debug("WebSocket read failed")
				}
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				msg := websocket.FormatCloseMessage(CloseResync, "resync from last cursor")
				_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}

			raw, err := json.Marshal(event)
			if err != nil {
				logger.ForSession(event.SessionID).WithError(err).Error("Failed to encode session event")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
