package server

import (
	"fmt"
	"net/http"

	"github.com/MYC-A/MoveUp/internal/domain"
	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type sendMessageRequest struct {
	RecipientID domain.UserID `json:"recipient_id"`
	Content     string        `json:"content"`
}

type markAsReadRequest struct {
	RecipientID domain.UserID `json:"recipient_id"`
}

type createGroupChatRequest struct {
	Name         string          `json:"name"`
	Participants []domain.UserID `json:"participants"`
}

type addParticipantRequest struct {
	UserID domain.UserID `json:"user_id"`
}

type sendGroupMessageRequest struct {
	GroupChatID domain.GroupChatID `json:"group_chat_id"`
	Content     string             `json:"content"`
}

func (s *Server) handleOverview(c echo.Context) error {
	userID := currentUser(c)

	overview, err := s.app.Overview(c.Request().Context(), userID)
	if err != nil {
		return domainError(err, "load chat overview")
	}
	return respondJSON(c, http.StatusOK, overview)
}

func (s *Server) handleSendMessage(c echo.Context) error {
	userID := currentUser(c)

	var req sendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.RecipientID <= 0 {
		return apperrors.ValidationError("recipient_id is required")
	}

	msg, err := s.app.SendPersonalMessage(c.Request().Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		return domainError(err, "send message")
	}
	return respondJSON(c, http.StatusOK, msg)
}

func (s *Server) handleGetMessages(c echo.Context) error {
	userID := currentUser(c)
	peerID, err := userIDParam(c, "user_id")
	if err != nil {
		return err
	}

	msgs, err := s.app.Messages(c.Request().Context(), userID, peerID)
	if err != nil {
		return domainError(err, "load messages")
	}
	return respondJSON(c, http.StatusOK, msgs)
}

func (s *Server) handleMarkAsRead(c echo.Context) error {
	userID := currentUser(c)

	var req markAsReadRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.RecipientID <= 0 {
		return apperrors.ValidationError("recipient_id is required")
	}

	marked, err := s.app.MarkPersonalRead(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		return domainError(err, "mark messages as read")
	}
	return respondJSON(c, http.StatusOK, map[string]any{
		"status":       "ok",
		"msg":          "Messages marked as read",
		"marked_count": marked,
	})
}

func (s *Server) handleUnreadCount(c echo.Context) error {
	summary, err := s.app.UnreadSummary(c.Request().Context(), currentUser(c))
	if err != nil {
		return domainError(err, "count unread messages")
	}
	return respondJSON(c, http.StatusOK, summary)
}

func (s *Server) handleCreateGroupChat(c echo.Context) error {
	userID := currentUser(c)

	var req createGroupChatRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	id, err := s.app.CreateGroupChat(c.Request().Context(), userID, req.Name, req.Participants)
	if err != nil {
		return domainError(err, "create group chat")
	}
	return respondJSON(c, http.StatusCreated, map[string]any{"group_chat_id": id})
}

func (s *Server) handleAddParticipant(c echo.Context) error {
	userID := currentUser(c)
	chatID, err := groupChatIDParam(c, "id")
	if err != nil {
		return err
	}

	var req addParticipantRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.UserID <= 0 {
		return apperrors.ValidationError("user_id is required")
	}

	members, err := s.app.AddParticipant(c.Request().Context(), chatID, userID, req.UserID)
	if err != nil {
		return domainError(err, "add participant")
	}
	return respondJSON(c, http.StatusOK, map[string]any{"status": "ok", "participants": members})
}

func (s *Server) handleSendGroupMessage(c echo.Context) error {
	userID := currentUser(c)

	var req sendGroupMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.GroupChatID <= 0 {
		return apperrors.ValidationError("group_chat_id is required")
	}

	env, err := s.app.SendGroupMessage(c.Request().Context(), req.GroupChatID, userID, req.Content)
	if err != nil {
		return domainError(err, "send group message")
	}
	return respondJSON(c, http.StatusOK, env)
}

func (s *Server) handleGetGroupMessages(c echo.Context) error {
	chatID, err := groupChatIDParam(c, "id")
	if err != nil {
		return err
	}

	msgs, err := s.app.GroupMessages(c.Request().Context(), chatID, currentUser(c))
	if err != nil {
		return domainError(err, "load group messages")
	}
	return respondJSON(c, http.StatusOK, msgs)
}

func (s *Server) handleMarkGroupAsRead(c echo.Context) error {
	chatID, err := groupChatIDParam(c, "id")
	if err != nil {
		return err
	}

	marked, err := s.app.MarkGroupRead(c.Request().Context(), chatID, currentUser(c))
	if err != nil {
		return domainError(err, "mark group messages as read")
	}
	return respondJSON(c, http.StatusOK, map[string]any{"status": "ok", "marked": marked})
}

func respondJSON(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
