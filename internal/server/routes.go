package server

import (
	"log/slog"

	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	writeLimiter := newRateLimiter(s.config.MessageRatePerSecond, s.config.MessageBurst)

	chat := s.echo.Group("/chat")
	chat.GET("/ws/:user_id", s.handleUserWebSocket, s.requireAuth)
	chat.GET("/overview", s.handleOverview, s.requireAuth)
	chat.POST("/messages", s.handleSendMessage, s.requireAuth, writeLimiter)
	chat.GET("/messages/:user_id", s.handleGetMessages, s.requireAuth)
	chat.POST("/mark_as_read", s.handleMarkAsRead, s.requireAuth)
	chat.GET("/unread_messages_count", s.handleUnreadCount, s.requireAuth)

	chat.POST("/group_chats", s.handleCreateGroupChat, s.requireAuth, writeLimiter)
	chat.POST("/group_chats/messages", s.handleSendGroupMessage, s.requireAuth, writeLimiter)
	chat.POST("/group_chats/:id/add_participant", s.handleAddParticipant, s.requireAuth)
	chat.GET("/group_chats/:id/get_messages", s.handleGetGroupMessages, s.requireAuth)
	chat.POST("/group_chats/:id/mark_as_read", s.handleMarkGroupAsRead, s.requireAuth)

	post := s.echo.Group("/post")
	post.GET("/ws/feed", s.handleFeedWebSocket)
	post.GET("/ws/post/:post_id", s.handlePostWebSocket)
	post.POST("/posts/:post_id/like", s.handleToggleLike, s.requireAuth, writeLimiter)
	post.POST("/posts/:post_id/create_comment", s.handleCreateComment, s.requireAuth, writeLimiter)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
