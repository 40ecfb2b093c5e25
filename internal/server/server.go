package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MYC-A/MoveUp/internal/app"
	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/envelope"
	"github.com/MYC-A/MoveUp/internal/platform/config"
	"github.com/MYC-A/MoveUp/internal/registry"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

type appService interface {
	GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error)
	Overview(ctx context.Context, userID domain.UserID) (*app.Overview, error)
	UnreadSummary(ctx context.Context, userID domain.UserID) (domain.UnreadSummary, error)

	SendPersonalMessage(ctx context.Context, senderID, recipientID domain.UserID, content string) (*domain.Message, error)
	Messages(ctx context.Context, userID, peerID domain.UserID) ([]domain.Message, error)
	MarkPersonalRead(ctx context.Context, userID, peerID domain.UserID) (int64, error)

	CreateGroupChat(ctx context.Context, creatorID domain.UserID, name string, participants []domain.UserID) (domain.GroupChatID, error)
	AddParticipant(ctx context.Context, chatID domain.GroupChatID, actorID, userID domain.UserID) ([]domain.UserID, error)
	SendGroupMessage(ctx context.Context, chatID domain.GroupChatID, senderID domain.UserID, content string) (envelope.Group, error)
	GroupMessages(ctx context.Context, chatID domain.GroupChatID, viewerID domain.UserID) ([]domain.GroupMessage, error)
	MarkGroupRead(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (int64, error)

	ToggleLike(ctx context.Context, postID domain.PostID, userID domain.UserID) (*domain.LikeResult, error)
	AddComment(ctx context.Context, postID domain.PostID, userID domain.UserID, content string) (*domain.Comment, error)
}

// connRegistry is the part of *registry.Registry the websocket handlers use.
type connRegistry interface {
	Register(key registry.Key, conn registry.Conn) error
	Unregister(key registry.Key, conn registry.Conn)
}

// HealthCheck is a named readiness probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	app      appService
	registry connRegistry
	limits   *ConnectionLimits
	upgrader websocket.Upgrader

	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, reg connRegistry, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:     e,
		config:   cfg,
		clock:    clock,
		app:      app,
		registry: reg,
		limits: NewConnectionLimits(
			int64(cfg.MaxWebSocketConnections),
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionRatePerSecond,
			cfg.ConnectionBurst,
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.AppURL, cfg.AppEnv != "production"),
		},
		sessionStore: setupSessionStore(cfg),
		healthChecks: healthChecks,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets tests and embedding code drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Session keys. The cookie is issued by the account service; this server
// only reads it.
const (
	sessionName      = "moveup-session"
	sessionKeyUserID = "user_id"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
