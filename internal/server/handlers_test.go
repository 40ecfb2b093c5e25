package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MYC-A/MoveUp/internal/app"
	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/envelope"
	"github.com/MYC-A/MoveUp/internal/platform/config"
	"github.com/MYC-A/MoveUp/internal/registry"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	getUserFn             func(ctx context.Context, userID domain.UserID) (*domain.User, error)
	overviewFn            func(ctx context.Context, userID domain.UserID) (*app.Overview, error)
	unreadSummaryFn       func(ctx context.Context, userID domain.UserID) (domain.UnreadSummary, error)
	sendPersonalMessageFn func(ctx context.Context, senderID, recipientID domain.UserID, content string) (*domain.Message, error)
	messagesFn            func(ctx context.Context, userID, peerID domain.UserID) ([]domain.Message, error)
	markPersonalReadFn    func(ctx context.Context, userID, peerID domain.UserID) (int64, error)
	createGroupChatFn     func(ctx context.Context, creatorID domain.UserID, name string, participants []domain.UserID) (domain.GroupChatID, error)
	addParticipantFn      func(ctx context.Context, chatID domain.GroupChatID, actorID, userID domain.UserID) ([]domain.UserID, error)
	sendGroupMessageFn    func(ctx context.Context, chatID domain.GroupChatID, senderID domain.UserID, content string) (envelope.Group, error)
	groupMessagesFn       func(ctx context.Context, chatID domain.GroupChatID, viewerID domain.UserID) ([]domain.GroupMessage, error)
	markGroupReadFn       func(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (int64, error)
	toggleLikeFn          func(ctx context.Context, postID domain.PostID, userID domain.UserID) (*domain.LikeResult, error)
	addCommentFn          func(ctx context.Context, postID domain.PostID, userID domain.UserID, content string) (*domain.Comment, error)
}

func (m *mockAppService) GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return &domain.User{ID: userID, FullName: "User " + userID.String()}, nil
}

func (m *mockAppService) Overview(ctx context.Context, userID domain.UserID) (*app.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, userID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) UnreadSummary(ctx context.Context, userID domain.UserID) (domain.UnreadSummary, error) {
	if m.unreadSummaryFn != nil {
		return m.unreadSummaryFn(ctx, userID)
	}
	return domain.UnreadSummary{Personal: map[domain.UserID]int64{}, Group: map[domain.GroupChatID]int64{}}, nil
}

func (m *mockAppService) SendPersonalMessage(ctx context.Context, senderID, recipientID domain.UserID, content string) (*domain.Message, error) {
	if m.sendPersonalMessageFn != nil {
		return m.sendPersonalMessageFn(ctx, senderID, recipientID, content)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) Messages(ctx context.Context, userID, peerID domain.UserID) ([]domain.Message, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, userID, peerID)
	}
	return []domain.Message{}, nil
}

func (m *mockAppService) MarkPersonalRead(ctx context.Context, userID, peerID domain.UserID) (int64, error) {
	if m.markPersonalReadFn != nil {
		return m.markPersonalReadFn(ctx, userID, peerID)
	}
	return 0, nil
}

func (m *mockAppService) CreateGroupChat(ctx context.Context, creatorID domain.UserID, name string, participants []domain.UserID) (domain.GroupChatID, error) {
	if m.createGroupChatFn != nil {
		return m.createGroupChatFn(ctx, creatorID, name, participants)
	}
	return 0, fmt.Errorf("not implemented")
}

func (m *mockAppService) AddParticipant(ctx context.Context, chatID domain.GroupChatID, actorID, userID domain.UserID) ([]domain.UserID, error) {
	if m.addParticipantFn != nil {
		return m.addParticipantFn(ctx, chatID, actorID, userID)
	}
	return nil, nil
}

func (m *mockAppService) SendGroupMessage(ctx context.Context, chatID domain.GroupChatID, senderID domain.UserID, content string) (envelope.Group, error) {
	if m.sendGroupMessageFn != nil {
		return m.sendGroupMessageFn(ctx, chatID, senderID, content)
	}
	return envelope.Group{}, fmt.Errorf("not implemented")
}

func (m *mockAppService) GroupMessages(ctx context.Context, chatID domain.GroupChatID, viewerID domain.UserID) ([]domain.GroupMessage, error) {
	if m.groupMessagesFn != nil {
		return m.groupMessagesFn(ctx, chatID, viewerID)
	}
	return []domain.GroupMessage{}, nil
}

func (m *mockAppService) MarkGroupRead(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (int64, error) {
	if m.markGroupReadFn != nil {
		return m.markGroupReadFn(ctx, chatID, userID)
	}
	return 0, nil
}

func (m *mockAppService) ToggleLike(ctx context.Context, postID domain.PostID, userID domain.UserID) (*domain.LikeResult, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, postID, userID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) AddComment(ctx context.Context, postID domain.PostID, userID domain.UserID, content string) (*domain.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, postID, userID, content)
	}
	return nil, fmt.Errorf("not implemented")
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "test",
		Port:                    "0",
		AppURL:                  "http://moveup.test",
		SessionSecret:           "test-secret-key-32-bytes-long!!!",
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     10,
		ConnectionRatePerSecond: 100,
		ConnectionBurst:         100,
		MessageRatePerSecond:    100,
		MessageBurst:            100,
		SessionMaxAge:           time.Hour,
		ShutdownTimeout:         time.Second,
	}
}

func newTestServer(t *testing.T, svc appService, opts ...func(*config.Config)) (*Server, *registry.Registry) {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	reg := registry.New(clockwork.NewRealClock(), 0)
	t.Cleanup(reg.Stop)

	srv := NewServer(cfg, svc, reg, clockwork.NewRealClock(), nil)
	return srv, reg
}

// sessionCookie issues the cookie the account service would set for userID.
func sessionCookie(t *testing.T, srv *Server, userID any) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := srv.sessionStore.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func doRequest(t *testing.T, srv *Server, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
