package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MYC-A/MoveUp/internal/delivery"
	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/unread"
	"golang.org/x/sync/singleflight"
)

const (
	maxMessageLength   = 4096
	maxCommentLength   = 2000
	maxGroupNameLength = 100
	deliveryTimeout    = 5 * time.Second
)

// Service is the application layer: every use case commits its durable write
// first and only then hands the result to the delivery engine.
type Service struct {
	users    domain.UserRepository
	messages domain.MessageRepository
	groups   domain.GroupChatRepository
	posts    domain.PostRepository
	reads    *unread.Reconciler
	delivery *delivery.Engine

	userLookups singleflight.Group
}

func NewService(
	users domain.UserRepository,
	messages domain.MessageRepository,
	groups domain.GroupChatRepository,
	posts domain.PostRepository,
	reads *unread.Reconciler,
	engine *delivery.Engine,
) *Service {
	return &Service{
		users:    users,
		messages: messages,
		groups:   groups,
		posts:    posts,
		reads:    reads,
		delivery: engine,
	}
}

// Overview is the chat landing data for one user.
type Overview struct {
	User              *domain.User       `json:"user"`
	UsersWithMessages []domain.User      `json:"users_with_messages"`
	GroupChats        []domain.GroupChat `json:"group_chats"`
}

// GetUser loads a user. Concurrent lookups for the same id share one query;
// every authenticated request resolves its session user through here.
func (s *Service) GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	v, err, _ := s.userLookups.Do(userID.String(), func() (any, error) {
		return s.users.GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.User), nil
}

// Overview lists the user's conversation partners and group chats.
func (s *Service) Overview(ctx context.Context, userID domain.UserID) (*Overview, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	peers, err := s.messages.Peers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation partners: %w", err)
	}
	filtered := make([]domain.User, 0, len(peers))
	for _, p := range peers {
		if p.ID != userID {
			filtered = append(filtered, p)
		}
	}

	chats, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group chats: %w", err)
	}
	if chats == nil {
		chats = []domain.GroupChat{}
	}

	return &Overview{User: user, UsersWithMessages: filtered, GroupChats: chats}, nil
}

func (s *Service) UnreadSummary(ctx context.Context, userID domain.UserID) (domain.UnreadSummary, error) {
	return s.reads.Summary(ctx, userID)
}

// deliveryContext detaches fan-out from the request so a client hanging up
// right after its write commits does not cancel delivery to everyone else.
func deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
}

func validateText(field, value string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("%w: %s exceeds %d characters", domain.ErrInvalidInput, field, maxLen)
	}
	return trimmed, nil
}
