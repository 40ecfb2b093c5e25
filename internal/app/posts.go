package app

import (
	"context"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/envelope"
)

// ToggleLike flips the user's like on a post and broadcasts the committed
// counter to the feed and to viewers of the post.
func (s *Service) ToggleLike(ctx context.Context, postID domain.PostID, userID domain.UserID) (*domain.LikeResult, error) {
	res, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	dctx, cancel := deliveryContext(ctx)
	defer cancel()
	s.delivery.DeliverLike(dctx, envelope.NewLike(res))

	return res, nil
}

// AddComment stores a comment and broadcasts it to the feed and the post.
func (s *Service) AddComment(ctx context.Context, postID domain.PostID, userID domain.UserID, content string) (*domain.Comment, error) {
	content, err := validateText("content", content, maxCommentLength)
	if err != nil {
		return nil, err
	}

	comment, err := s.posts.InsertComment(ctx, postID, userID, content)
	if err != nil {
		return nil, err
	}

	dctx, cancel := deliveryContext(ctx)
	defer cancel()
	s.delivery.DeliverComment(dctx, envelope.NewComment(comment))

	return comment, nil
}
