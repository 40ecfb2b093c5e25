package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/envelope"
)

// SendPersonalMessage stores a message and pushes it to the recipient if they
// are connected. An offline recipient finds it through the unread count.
func (s *Service) SendPersonalMessage(ctx context.Context, senderID, recipientID domain.UserID, content string) (*domain.Message, error) {
	content, err := validateText("content", content, maxMessageLength)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Insert(ctx, senderID, recipientID, content)
	if err != nil {
		return nil, err
	}

	dctx, cancel := deliveryContext(ctx)
	defer cancel()
	s.delivery.DeliverPersonal(dctx, envelope.NewPersonal(msg))

	return msg, nil
}

// Messages returns the conversation between userID and peerID, oldest first.
func (s *Service) Messages(ctx context.Context, userID, peerID domain.UserID) ([]domain.Message, error) {
	msgs, err := s.messages.Between(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func (s *Service) MarkPersonalRead(ctx context.Context, userID, peerID domain.UserID) (int64, error) {
	return s.reads.MarkPersonalRead(ctx, userID, peerID)
}

// CreateGroupChat creates a chat owned by creatorID. The creator is always a
// participant; duplicate participant ids are ignored.
func (s *Service) CreateGroupChat(ctx context.Context, creatorID domain.UserID, name string, participants []domain.UserID) (domain.GroupChatID, error) {
	name, err := validateText("name", name, maxGroupNameLength)
	if err != nil {
		return 0, err
	}

	members := []domain.UserID{creatorID}
	seen := map[domain.UserID]struct{}{creatorID: {}}
	for _, p := range participants {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		members = append(members, p)
	}

	id, err := s.groups.Create(ctx, name, creatorID, members)
	if err != nil {
		return 0, err
	}

	slog.Info("Group chat created", "group_chat_id", id.String(), "creator_id", creatorID.String(), "participants", len(members))
	return id, nil
}

// AddParticipant adds userID to the chat and returns the resulting member
// list. Only existing participants may add others; adding someone twice is a
// no-op.
func (s *Service) AddParticipant(ctx context.Context, chatID domain.GroupChatID, actorID, userID domain.UserID) ([]domain.UserID, error) {
	if err := s.requireParticipant(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	if err := s.groups.AddParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	members, err := s.groups.Participants(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", chatID, err)
	}
	return members, nil
}

// SendGroupMessage stores a group message with per-participant read state and
// pushes a copy to every participant. The sender's copy is returned.
func (s *Service) SendGroupMessage(ctx context.Context, chatID domain.GroupChatID, senderID domain.UserID, content string) (envelope.Group, error) {
	content, err := validateText("content", content, maxMessageLength)
	if err != nil {
		return envelope.Group{}, err
	}

	msg, participants, err := s.groups.InsertMessage(ctx, chatID, senderID, content)
	if err != nil {
		return envelope.Group{}, err
	}

	dctx, cancel := deliveryContext(ctx)
	defer cancel()
	s.delivery.DeliverGroup(dctx, msg, participants)

	return envelope.NewGroup(msg, senderID), nil
}

// GroupMessages returns the chat history with read flags relative to viewerID.
func (s *Service) GroupMessages(ctx context.Context, chatID domain.GroupChatID, viewerID domain.UserID) ([]domain.GroupMessage, error) {
	if err := s.requireParticipant(ctx, chatID, viewerID); err != nil {
		return nil, err
	}

	msgs, err := s.groups.Messages(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.GroupMessage{}
	}
	return msgs, nil
}

func (s *Service) MarkGroupRead(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (int64, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return 0, err
	}
	return s.reads.MarkGroupRead(ctx, chatID, userID)
}

func (s *Service) requireParticipant(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) error {
	ok, err := s.groups.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %s, chat %s", domain.ErrNotParticipant, userID, chatID)
	}
	return nil
}
