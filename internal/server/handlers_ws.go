package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MYC-A/MoveUp/internal/metrics"
	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
	"github.com/MYC-A/MoveUp/internal/registry"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var errMalformedFrame = errors.New("malformed frame")

var pongFrame = []byte(`{"type":"pong"}`)

type inboundFrame struct {
	Type string `json:"type"`
}

// handleUserWebSocket opens the personal channel of the session user.
func (s *Server) handleUserWebSocket(c echo.Context) error {
	pathUser, err := userIDParam(c, "user_id")
	if err != nil {
		return err
	}
	if pathUser != currentUser(c) {
		return apperrors.ForbiddenError("cannot subscribe to another user's channel")
	}
	return s.serveChannel(c, registry.UserKey(pathUser), true)
}

func (s *Server) handleFeedWebSocket(c echo.Context) error {
	return s.serveChannel(c, registry.FeedKey, false)
}

func (s *Server) handlePostWebSocket(c echo.Context) error {
	postID, err := postIDParam(c, "post_id")
	if err != nil {
		return err
	}
	return s.serveChannel(c, registry.PostKey(postID), false)
}

// serveChannel upgrades the request, registers the socket under key and reads
// until the peer leaves. strict channels close on non-JSON input; the others
// only answer heartbeats.
func (s *Server) serveChannel(c echo.Context, key registry.Key, strict bool) error {
	ip := c.RealIP()
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		slog.Warn("WebSocket connection rejected", "reason", reason, "ip", ip, "channel", key.Kind())
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "too many connections"})
	}
	defer s.limits.Release(ip)

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.Debug("WebSocket upgrade failed", "error", err, "channel", key.Kind())
		return nil
	}

	conn := registry.NewWSConn(ws, s.clock)
	if err := s.registry.Register(key, conn); err != nil {
		slog.Warn("WebSocket registration refused", "error", err, "key", key.String())
		conn.CloseGraceful("channel unavailable")
		return nil
	}
	defer s.registry.Unregister(key, conn)
	metrics.WebSocketConnectionsTotal.WithLabelValues(key.Kind()).Inc()

	err = conn.ReadMessages(func(data []byte) error {
		return handleInbound(conn, data, strict)
	})

	switch {
	case errors.Is(err, errMalformedFrame):
		metrics.WebSocketProtocolErrors.WithLabelValues(key.Kind()).Inc()
		slog.Info("Closing WebSocket after malformed frame", "key", key.String())
		conn.CloseGraceful("malformed frame")
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		slog.Debug("WebSocket closed unexpectedly", "error", err, "key", key.String())
		conn.Close()
	default:
		conn.Close()
	}
	return nil
}

func handleInbound(conn *registry.WSConn, data []byte, strict bool) error {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		if strict {
			return errMalformedFrame
		}
		return nil
	}
	if frame.Type == "ping" {
		if err := conn.Send(pongFrame); err != nil {
			return err
		}
	}
	return nil
}
