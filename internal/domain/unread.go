package domain

import (
	"context"
	"time"
)

// UnreadSummary is derived from durable read-state on every request.
type UnreadSummary struct {
	Personal map[UserID]int64      `json:"personal"`
	Group    map[GroupChatID]int64 `json:"group"`
}

type ReadStateRepository interface {
	MarkPersonalRead(ctx context.Context, userID, peerID UserID) (int64, error)
	MarkGroupRead(ctx context.Context, chatID GroupChatID, userID UserID, readAt time.Time) (int64, error)
	UnreadPersonal(ctx context.Context, userID UserID) (map[UserID]int64, error)
	UnreadGroup(ctx context.Context, userID UserID) (map[GroupChatID]int64, error)
}
