package message_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/negotiation-backend/internal/domain/entity"
	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/domain/valueobject"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/message"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/usecasetest"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) PublishToSession(sessionID uuid.UUID, event string, data any) error {
	return m.Called(sessionID, event, data).Error(0)
}

func (m *mockBroker) Subscribe(sessionID uuid.UUID) (repository.SessionSubscription, error) {
	args := m.Called(sessionID)
	sub, _ := args.Get(0).(repository.SessionSubscription)
	return sub, args.Error(1)
}

type mockAttachmentStore struct {
	mock.Mock
}

func (m *mockAttachmentStore) Save(ctx context.Context, sessionID uuid.UUID, name string, r io.Reader) (string, int64, error) {
	args := m.Called(ctx, sessionID, name, r)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

type stubSubscription struct {
	ch chan repository.SessionEvent
}

func (s *stubSubscription) Events() <-chan repository.SessionEvent { return s.ch }
func (s *stubSubscription) Close()                                  {}

type fixture struct {
	sessions *usecasetest.SessionRepository
	messages *usecasetest.MessageRepository
	notifier *usecasetest.Notifier
	giver    uuid.UUID
	receiver uuid.UUID
	session  *entity.NegotiationSession
}

func newFixture() *fixture {
	f := &fixture{
		sessions: usecasetest.NewSessionRepository(),
		messages: usecasetest.NewMessageRepository(),
		notifier: &usecasetest.Notifier{},
		giver:    uuid.New(),
		receiver: uuid.New(),
	}
	f.session = usecasetest.SeedSession(f.sessions, uuid.New(), f.giver, f.receiver, valueobject.NegotiationModeFlexible)
	return f
}

func (f *fixture) send(t *testing.T, uc *message.SendMessageUseCase, sender uuid.UUID, content string) *entity.Message {
	t.Helper()
	msg, err := uc.Execute(context.Background(), message.SendMessageInput{
		SessionID: f.session.ID,
		SenderID:  sender,
		Content:   content,
	})
	require.NoError(t, err)
	return msg
}

func TestSendMessage_PersistsAndPublishes(t *testing.T) {
	f := newFixture()
	uc := message.NewSendMessageUseCase(f.sessions, f.messages, f.notifier)

	msg := f.send(t, uc, f.giver, "  hello  ")
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, valueobject.MessageTypeText, msg.Type)

	published := f.notifier.Events()
	require.Len(t, published, 1)
	assert.Equal(t, repository.EventMessageCreated, published[0].Event)
	assert.Equal(t, f.session.ID, published[0].SessionID)
}

func TestSendMessage_Rules(t *testing.T) {
	f := newFixture()
	uc := message.NewSendMessageUseCase(f.sessions, f.messages, f.notifier)

	_, err := uc.Execute(context.Background(), message.SendMessageInput{SessionID: f.session.ID, SenderID: uuid.New(), Content: "hi"})
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), message.SendMessageInput{SessionID: f.session.ID, SenderID: f.giver, Content: " "})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(context.Background(), message.SendMessageInput{SessionID: f.session.ID, SenderID: f.giver, Type: "video"})
	assert.True(t, apperror.IsValidation(err))

	assert.Empty(t, f.notifier.Events())
}

func TestSendMessage_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.messages.Err = apperror.Unavailable(errors.New("broken pipe"), "хранилище сообщений недоступно")
	uc := message.NewSendMessageUseCase(f.sessions, f.messages, f.notifier)

	_, err := uc.Execute(context.Background(), message.SendMessageInput{SessionID: f.session.ID, SenderID: f.giver, Content: "hi"})
	assert.True(t, apperror.IsUnavailable(err))
	assert.Empty(t, f.notifier.Events())
}

func TestListMessages_NewestLastWithCursor(t *testing.T) {
	f := newFixture()
	send := message.NewSendMessageUseCase(f.sessions, f.messages, f.notifier)
	list := message.NewListMessagesUseCase(f.sessions, f.messages, 2)

	a := f.send(t, send, f.giver, "A")
	b := f.send(t, send, f.receiver, "B")
	c := f.send(t, send, f.giver, "C")

	page, err := list.Execute(context.Background(), f.session.ID, f.receiver, "", 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, a.ID, page[0].ID)
	assert.Equal(t, b.ID, page[1].ID)

	page, err = list.Execute(context.Background(), f.session.ID, f.receiver, page[1].Cursor, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, c.ID, page[0].ID)
}

func TestListMessages_EffectiveLimit(t *testing.T) {
	list := message.NewListMessagesUseCase(nil, nil, 0)

	assert.Equal(t, message.DefaultPageSize, list.EffectiveLimit(0))
	assert.Equal(t, 10, list.EffectiveLimit(10))
	assert.Equal(t, message.MaxPageSize, list.EffectiveLimit(10_000))
}

func TestListMessages_SessionIsolation(t *testing.T) {
	f := newFixture()
	other := usecasetest.SeedSession(f.sessions, uuid.New(), f.giver, f.receiver, valueobject.NegotiationModeFlexible)
	send := message.NewSendMessageUseCase(f.sessions, f.messages, f.notifier)

	f.send(t, send, f.giver, "only here")

	page, err := message.NewListMessagesUseCase(f.sessions, f.messages, 0).Execute(context.Background(), other.ID, f.giver, "", 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestSubscribe_ParticipantOnly(t *testing.T) {
	f := newFixture()
	broker := new(mockBroker)
	sub := &stubSubscription{ch: make(chan repository.SessionEvent)}
	broker.On("Subscribe", f.session.ID).Return(sub, nil).Once()
	uc := message.NewSubscribeUseCase(f.sessions, broker)

	got, err := uc.Execute(context.Background(), f.session.ID, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	_, err = uc.Execute(context.Background(), f.session.ID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
	broker.AssertExpectations(t)
}

func TestUploadAttachment(t *testing.T) {
	f := newFixture()
	store := new(mockAttachmentStore)
	body := strings.NewReader("%PDF-1.4")
	store.On("Save", mock.Anything, f.session.ID, "contract.pdf", body).Return("/attachments/ab/abc.pdf", int64(8), nil).Once()
	uc := message.NewUploadAttachmentUseCase(f.sessions, store)

	att, err := uc.Execute(context.Background(), f.session.ID, f.giver, "contract.pdf", body)
	require.NoError(t, err)
	assert.Equal(t, "/attachments/ab/abc.pdf", att.URL)
	assert.Equal(t, int64(8), att.Size)

	_, err = uc.Execute(context.Background(), f.session.ID, uuid.New(), "contract.pdf", body)
	assert.True(t, apperror.IsForbidden(err))
	store.AssertExpectations(t)
}
