package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/negotiation-backend/internal/config"
	"github.com/ignatzorin/negotiation-backend/internal/db"
	"github.com/ignatzorin/negotiation-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/handler"
	"github.com/ignatzorin/negotiation-backend/internal/service"
	"github.com/ignatzorin/negotiation-backend/internal/storage"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/comparison"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/contribution"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/message"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/proposal"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/session"
	"github.com/ignatzorin/negotiation-backend/internal/ws"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

type testApp struct {
	engine *gin.Engine
	tokens *service.TokenManager
}

func newTestApp(t *testing.T, rateLimit int64) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cfg := &config.Config{
		Env:                   config.EnvDevelopment,
		AllowedOrigins:        []string{"http://localhost:3000"},
		RateLimitLimit:        rateLimit,
		RateLimitPeriod:       time.Minute,
		AttachmentStoragePath: t.TempDir(),
		MaxUploadSizeMB:       1,
	}

	tokens := service.NewTokenManager("router-test-secret-router-test-secret", time.Hour)
	attachments, err := storage.NewAttachmentStorage(cfg.AttachmentStoragePath, cfg.MaxUploadSizeMB)
	require.NoError(t, err)

	hub := ws.NewHub(ctx)
	go hub.Run()

	contributions := persistence.NewContributionRepositoryAdapter(conn)
	sessions := persistence.NewSessionRepositoryAdapter(conn)
	proposals := persistence.NewProposalRepositoryAdapter(conn)
	messages := persistence.NewMessageRepositoryAdapter(conn)

	handlers := Handlers{
		Health: handler.NewHealthHandler(conn),
		Contribution: handler.NewContributionHandler(
			contribution.NewCreateContributionUseCase(contributions),
			contribution.NewGetContributionUseCase(contributions, sessions),
			contribution.NewTransitionContributionUseCase(contributions, sessions),
			contribution.NewConfigureTermsUseCase(contributions),
			comparison.NewCompareUseCase(contributions, sessions, comparison.PartitionShared),
		),
		Negotiation: handler.NewNegotiationHandler(
			session.NewCreateOrGetSessionUseCase(sessions, contributions),
			session.NewGetSessionUseCase(sessions),
			session.NewListSessionsUseCase(sessions, contributions),
			session.NewDecideUseCase(sessions, hub),
		),
		Proposal: handler.NewProposalHandler(
			proposal.NewSubmitProposalUseCase(sessions, proposals, hub),
			proposal.NewUpdateProposalStatusUseCase(sessions, proposals, contributions, hub),
			proposal.NewListProposalsUseCase(sessions, proposals),
			proposal.NewProposalHistoryUseCase(sessions, proposals),
		),
		Message: handler.NewMessageHandler(
			message.NewSendMessageUseCase(sessions, messages, hub),
			message.NewListMessagesUseCase(sessions, messages, 0),
			message.NewUploadAttachmentUseCase(sessions, attachments),
		),
		WS: handler.NewWSHandler(message.NewSubscribeUseCase(sessions, hub), tokens, cfg.AllowedOrigins),
	}

	return &testApp{engine: SetupRouter(cfg, handlers, tokens), tokens: tokens}
}

func (a *testApp) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := a.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path string, userID uuid.UUID, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, userID))
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type idView struct {
	ID      uuid.UUID `json:"id"`
	State   string    `json:"state"`
	Status  string    `json:"status"`
	Version int       `json:"version"`
	Cursor  string    `json:"cursor"`
}

// publishContribution проводит вклад через весь жизненный цикл до published.
func (a *testApp) publishContribution(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()

	code, env := a.do(t, http.MethodPost, "/api/contributions", owner, map[string]string{"title": "Seed round", "kind": "financial"})
	require.Equal(t, http.StatusCreated, code)
	id := decode[idView](t, env).ID
	base := "/api/contributions/" + id.String()

	for _, event := range []string{"submit", "save"} {
		code, _ = a.do(t, http.MethodPost, base+"/transitions", owner, map[string]string{"event": event})
		require.Equal(t, http.StatusOK, code, event)
	}

	code, _ = a.do(t, http.MethodPut, base+"/terms", owner, map[string]any{
		"valuations": []map[string]any{
			{"direction": "to_give", "type": "fixed", "amount": 100, "currency": "usd"},
			{"direction": "to_receive", "type": "fixed", "amount": 150, "currency": "usd"},
		},
		"insights": []map[string]any{{"title": "Runway", "body": "18 months"}},
	})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(t, http.MethodPost, base+"/transitions", owner, map[string]string{"event": "publish"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "published", decode[idView](t, env).State)
	return id
}

func (a *testApp) openSession(t *testing.T, contributionID, giver, receiver uuid.UUID, mode string) uuid.UUID {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/contributions/"+contributionID.String()+"/negotiations", giver, map[string]any{
		"giver_user_id":    giver,
		"receiver_user_id": receiver,
		"mode":             mode,
	})
	require.Equal(t, http.StatusCreated, code)
	return decode[idView](t, env).ID
}

func amountRow(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var cmp struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cmp))
	for _, row := range cmp.Rows {
		if row["label"] == "valuation.amount" {
			return row
		}
	}
	t.Fatal("valuation.amount row missing")
	return nil
}

func TestRouter_RequiresAuth(t *testing.T) {
	app := newTestApp(t, 100)

	code, env := app.do(t, http.MethodGet, "/api/negotiations/"+uuid.NewString(), uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestRouter_RejectsInvalidUUID(t *testing.T) {
	app := newTestApp(t, 100)

	code, env := app.do(t, http.MethodGet, "/api/negotiations/not-a-uuid", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestRouter_FlexibleNegotiationFlow(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "flexible")

	// Повторный запрос возвращает ту же сессию.
	code, env := app.do(t, http.MethodPost, "/api/contributions/"+contributionID.String()+"/negotiations", receiver, map[string]any{
		"giver_user_id": giver, "receiver_user_id": receiver, "mode": "flexible",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, sessionID, decode[idView](t, env).ID)

	comparisonPath := "/api/contributions/" + contributionID.String() + "/comparison"
	code, env = app.do(t, http.MethodGet, comparisonPath, receiver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, amountRow(t, env)["matches"])

	base := "/api/negotiations/" + sessionID.String()
	code, env = app.do(t, http.MethodPost, base+"/proposals", receiver, map[string]any{
		"payload": map[string]any{"kind": "valuation", "valuation": map[string]any{"type": "fixed", "amount": 125, "currency": "usd"}},
		"message": "meet in the middle",
	})
	require.Equal(t, http.StatusCreated, code)
	submitted := decode[idView](t, env)
	assert.Equal(t, "pending", submitted.Status)
	assert.Equal(t, 1, submitted.Version)

	proposalPath := base + "/proposals/" + submitted.ID.String()
	code, env = app.do(t, http.MethodPost, proposalPath+"/accept", giver, map[string]int{"version": 1})
	require.Equal(t, http.StatusOK, code)
	accepted := decode[idView](t, env)
	assert.Equal(t, "accepted", accepted.Status)
	assert.Equal(t, 2, accepted.Version)

	// Повторное принятие с той же версией ничего не меняет.
	code, env = app.do(t, http.MethodPost, proposalPath+"/accept", giver, map[string]int{"version": 1})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, decode[idView](t, env).Version)

	code, env = app.do(t, http.MethodPost, proposalPath+"/reject", giver, map[string]int{"version": 2})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STATE_CONFLICT", env.Error.Code)

	code, env = app.do(t, http.MethodGet, base, receiver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "closed", decode[idView](t, env).Status)

	code, env = app.do(t, http.MethodGet, comparisonPath, giver, nil)
	require.Equal(t, http.StatusOK, code)
	row := amountRow(t, env)
	assert.Equal(t, true, row["matches"])
	assert.Equal(t, "125.00", row["giver_display"])

	code, env = app.do(t, http.MethodPost, base+"/proposals", receiver, map[string]any{
		"payload": map[string]any{"kind": "custom", "custom": map[string]any{"label": "exclusivity", "value": "12 months"}},
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = app.do(t, http.MethodGet, proposalPath+"/history", receiver, nil)
	require.Equal(t, http.StatusOK, code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "pending", history[0]["to_status"])
	assert.Equal(t, "accepted", history[1]["to_status"])
}

func TestRouter_StrictDecision(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "strict")
	base := "/api/negotiations/" + sessionID.String()

	code, _ := app.do(t, http.MethodPost, base+"/proposals", receiver, map[string]any{
		"payload": map[string]any{"kind": "valuation", "valuation": map[string]any{"amount": 120}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.do(t, http.MethodPost, base+"/decision", giver, map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := app.do(t, http.MethodPost, base+"/decision", receiver, map[string]string{"decision": "accept"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "closed", decode[idView](t, env).Status)

	code, _ = app.do(t, http.MethodPost, base+"/decision", receiver, map[string]string{"decision": "reject"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestRouter_OutsiderIsForbidden(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "flexible")

	code, env := app.do(t, http.MethodGet, "/api/negotiations/"+sessionID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, _ = app.do(t, http.MethodGet, "/api/contributions/"+contributionID.String()+"/comparison", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRouter_MessagesPageByCursor(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	base := "/api/negotiations/" + app.openSession(t, contributionID, giver, receiver, "flexible").String()

	for i, sender := range []uuid.UUID{giver, receiver} {
		code, _ := app.do(t, http.MethodPost, base+"/messages", sender, map[string]string{"content": []string{"hello", "hi"}[i]})
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := app.do(t, http.MethodGet, base+"/messages?limit=1", receiver, nil)
	require.Equal(t, http.StatusOK, code)
	first := decode[[]idView](t, env)
	require.Len(t, first, 1)
	assert.True(t, env.HasMore)
	assert.Equal(t, first[0].Cursor, env.NextCursor)

	code, env = app.do(t, http.MethodGet, base+"/messages?limit=1&after="+env.NextCursor, receiver, nil)
	require.Equal(t, http.StatusOK, code)
	second := decode[[]idView](t, env)
	require.Len(t, second, 1)
	assert.Greater(t, second[0].Cursor, first[0].Cursor)

	code, env = app.do(t, http.MethodGet, base+"/messages?after="+second[0].Cursor, receiver, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]idView](t, env))
	assert.False(t, env.HasMore)
}

func TestRouter_UploadAttachmentThenFileMessage(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	base := "/api/negotiations/" + app.openSession(t, contributionID, giver, receiver, "flexible").String()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "term-sheet.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n%term sheet\n"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, base+"/attachments", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+app.token(t, giver))
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	attachment := decode[map[string]any](t, env)
	fileURL, _ := attachment["file_url"].(string)
	require.True(t, strings.HasPrefix(fileURL, storage.URLPrefix))

	code, _ := app.do(t, http.MethodPost, base+"/messages", giver, map[string]any{"type": "file", "file_url": fileURL})
	assert.Equal(t, http.StatusCreated, code)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fileURL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WebSocketReceivesSessionEvents(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "flexible")

	server := httptest.NewServer(app.engine)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/negotiations/" + sessionID.String() + "?token=" + app.token(t, receiver)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Подписка регистрируется до апгрейда, поэтому событие не теряется.
	code, _ := app.do(t, http.MethodPost, "/api/negotiations/"+sessionID.String()+"/messages", giver, map[string]string{"content": "ping"})
	require.Equal(t, http.StatusCreated, code)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type      string         `json:"type"`
		SessionID uuid.UUID      `json:"session_id"`
		Data      map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "message.created", event.Type)
	assert.Equal(t, sessionID, event.SessionID)
	assert.Equal(t, "ping", event.Data["content"])
}

func TestRouter_WebSocketRejectsOutsider(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()

	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "flexible")

	path := "/api/ws/negotiations/" + sessionID.String()
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path+"?token="+app.token(t, uuid.New()), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RateLimitsWrites(t *testing.T) {
	app := newTestApp(t, 1)
	owner := uuid.New()

	code, _ := app.do(t, http.MethodPost, "/api/contributions", owner, map[string]string{"title": "one"})
	require.Equal(t, http.StatusCreated, code)

	code, env := app.do(t, http.MethodPost, "/api/contributions", owner, map[string]string{"title": "two"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestRouter_CORSPreflightAndHealth(t *testing.T) {
	app := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/contributions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)
}

func TestRouter_AcceptClosesOutPendingSiblings(t *testing.T) {
	app := newTestApp(t, 100)
	giver, receiver := uuid.New(), uuid.New()
	contributionID := app.publishContribution(t, giver)
	sessionID := app.openSession(t, contributionID, giver, receiver, "flexible")
	base := "/api/negotiations/" + sessionID.String()

	valuation := func(amount any) map[string]any {
		return map[string]any{"payload": map[string]any{
			"kind": "valuation", "valuation": map[string]any{"type": "fixed", "amount": amount, "currency": "usd"},
		}}
	}

	code, env := app.do(t, http.MethodPost, base+"/proposals", receiver, valuation(125.12345))
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = app.do(t, http.MethodPost, base+"/proposals", receiver, valuation(125.5))
	require.Equal(t, http.StatusCreated, code)
	first := decode[idView](t, env)
	code, env = app.do(t, http.MethodPost, base+"/proposals", giver, valuation(140))
	require.Equal(t, http.StatusCreated, code)
	sibling := decode[idView](t, env)

	code, _ = app.do(t, http.MethodPost, base+"/proposals/"+first.ID.String()+"/accept", giver, map[string]int{"version": first.Version})
	require.Equal(t, http.StatusOK, code)

	code, env = app.do(t, http.MethodGet, base+"/proposals", receiver, nil)
	require.Equal(t, http.StatusOK, code)
	statuses := make(map[uuid.UUID]string)
	for _, p := range decode[[]idView](t, env) {
		statuses[p.ID] = p.Status
	}
	assert.Equal(t, "accepted", statuses[first.ID])
	assert.Equal(t, "rejected", statuses[sibling.ID])

	code, env = app.do(t, http.MethodGet, base, giver, nil)
	require.Equal(t, http.StatusOK, code)
	var session struct {
		TermsAppliedAt *time.Time `json:"terms_applied_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.NotNil(t, session.TermsAppliedAt)
}
