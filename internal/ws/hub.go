package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
)

const defaultSubscriptionBuffer = 64

var ErrHubStopped = errors.New("ws: хаб остановлен")

// Hub раздаёт события подписчикам сессий. Все публикации проходят через один
// цикл Run, поэтому подписчики сессии видят события в порядке публикации.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]map[*Subscription]struct{}
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan repository.SessionEvent
	bufferSize int
	ctx        context.Context
}

// NewHub создаёт новый хаб. Хаб работает, пока жив ctx.
func NewHub(ctx context.Context) *Hub {
	return NewHubWithBuffer(ctx, defaultSubscriptionBuffer)
}

// NewHubWithBuffer задаёт размер очереди каждого подписчика.
func NewHubWithBuffer(ctx context.Context, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultSubscriptionBuffer
	}
	return &Hub{
		sessions:   make(map[uuid.UUID]map[*Subscription]struct{}),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan repository.SessionEvent, 256),
		bufferSize: bufferSize,
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба и возвращается после отмены контекста.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case sub := <-h.register:
			h.add(sub)
		case sub := <-h.unregister:
			h.remove(sub)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Subscribe подписывает на события одной сессии.
func (h *Hub) Subscribe(sessionID uuid.UUID) (repository.SessionSubscription, error) {
	sub := &Subscription{
		hub:       h,
		sessionID: sessionID,
		events:    make(chan repository.SessionEvent, h.bufferSize),
	}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.ctx.Done():
		return nil, ErrHubStopped
	}
}

// PublishToSession ставит событие в очередь рассылки подписчикам сессии.
func (h *Hub) PublishToSession(sessionID uuid.UUID, event string, data any) error {
	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	select {
	case h.broadcast <- repository.SessionEvent{Type: event, SessionID: sessionID, Data: data}:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

// SubscriberCount возвращает число активных подписчиков сессии.
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) add(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sub.sessionID]; !ok {
		h.sessions[sub.sessionID] = make(map[*Subscription]struct{})
	}
	h.sessions[sub.sessionID][sub] = struct{}{}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// removeLocked закрывает канал подписчика ровно один раз: только при удалении из карты.
func (h *Hub) removeLocked(sub *Subscription) {
	subs, ok := h.sessions[sub.sessionID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.events)
	if len(subs) == 0 {
		delete(h.sessions, sub.sessionID)
	}
}

func (h *Hub) deliver(event repository.SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.sessions[event.SessionID] {
		select {
		case sub.events <- event:
		default:
			// Медленный подписчик отключается и должен перечитать историю с курсора.
			logger.ForSession(event.SessionID).WithField("event", event.Type).Warn("Dropping slow session subscriber")
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.sessions {
		for sub := range subs {
			h.removeLocked(sub)
		}
	}
}

// Subscription - подписка на события одной сессии.
type Subscription struct {
	hub       *Hub
	sessionID uuid.UUID
	events    chan repository.SessionEvent
	closeOnce sync.Once
}

func (s *Subscription) Events() <-chan repository.SessionEvent {
	return s.events
}

func (s *Subscription) SessionID() uuid.UUID {
	return s.sessionID
}

// Close отписывает от сессии. Повторный вызов ничего не делает.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.ctx.Done():
		}
	})
}

var _ repository.SessionBroker = (*Hub)(nil)
