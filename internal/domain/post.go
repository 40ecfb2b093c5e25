package domain

import (
	"context"
	"strconv"
	"time"
)

type PostID int64

func (id PostID) String() string { return strconv.FormatInt(int64(id), 10) }

// LikeResult is the committed state after a like toggle.
type LikeResult struct {
	PostID     PostID
	UserID     UserID
	Liked      bool
	LikesCount int64
}

type Comment struct {
	ID              int64
	PostID          PostID
	UserID          UserID
	Content         string
	CreatedAt       time.Time
	UserDisplayName string
}

type PostRepository interface {
	// ToggleLike flips the user's like and adjusts the post counter atomically.
	ToggleLike(ctx context.Context, postID PostID, userID UserID) (*LikeResult, error)
	// InsertComment stores the comment and increments the post counter atomically.
	InsertComment(ctx context.Context, postID PostID, userID UserID, content string) (*Comment, error)
}
