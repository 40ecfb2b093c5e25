package domain

import (
	"context"
	"strconv"
	"time"
)

type GroupChatID int64

func (id GroupChatID) String() string { return strconv.FormatInt(int64(id), 10) }

// Message is a personal (one-to-one) chat message.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    UserID    `json:"sender_id"`
	RecipientID UserID    `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupChat struct {
	ID        GroupChatID `json:"id"`
	Name      string      `json:"name"`
	CreatorID UserID      `json:"creator_id"`
}

// GroupMessage is a message posted to a group chat. IsRead is relative to the
// user the message was loaded for.
type GroupMessage struct {
	ID          int64       `json:"id"`
	GroupChatID GroupChatID `json:"group_chat_id"`
	SenderID    UserID      `json:"sender_id"`
	SenderName  string      `json:"sender_name"`
	Content     string      `json:"content"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"`
}

type MessageRepository interface {
	Insert(ctx context.Context, senderID, recipientID UserID, content string) (*Message, error)
	Between(ctx context.Context, a, b UserID) ([]Message, error)
	Peers(ctx context.Context, userID UserID) ([]User, error)
}

type GroupChatRepository interface {
	Create(ctx context.Context, name string, creatorID UserID, participants []UserID) (GroupChatID, error)
	AddParticipant(ctx context.Context, chatID GroupChatID, userID UserID) error
	Participants(ctx context.Context, chatID GroupChatID) ([]UserID, error)
	IsParticipant(ctx context.Context, chatID GroupChatID, userID UserID) (bool, error)
	ListForUser(ctx context.Context, userID UserID) ([]GroupChat, error)

	// InsertMessage stores the message and one read-status row per distinct
	// participant in a single transaction. The sender's row is stored as read.
	// The returned participants are the distinct participant set at commit time.
	InsertMessage(ctx context.Context, chatID GroupChatID, senderID UserID, content string) (*GroupMessage, []UserID, error)
	Messages(ctx context.Context, chatID GroupChatID, viewerID UserID) ([]GroupMessage, error)
}
