package server

import (
	"net/http"
	"time"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/labstack/echo/v4"
)

type createCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        int64         `json:"id"`
	PostID    domain.PostID `json:"post_id"`
	UserID    domain.UserID `json:"user_id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	User      struct {
		Username string `json:"username"`
	} `json:"user"`
}

func (s *Server) handleToggleLike(c echo.Context) error {
	postID, err := postIDParam(c, "post_id")
	if err != nil {
		return err
	}

	res, err := s.app.ToggleLike(c.Request().Context(), postID, currentUser(c))
	if err != nil {
		return domainError(err, "toggle like")
	}
	return respondJSON(c, http.StatusOK, map[string]any{
		"likes_count": res.LikesCount,
		"liked":       res.Liked,
	})
}

func (s *Server) handleCreateComment(c echo.Context) error {
	postID, err := postIDParam(c, "post_id")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	comment, err := s.app.AddComment(c.Request().Context(), postID, currentUser(c), req.Content)
	if err != nil {
		return domainError(err, "create comment")
	}

	resp := commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	resp.User.Username = comment.UserDisplayName
	return respondJSON(c, http.StatusCreated, resp)
}
