// Package unread reconciles read state for personal and group chats.
//
// Counts are always derived from storage on request. Nothing is cached, so a
// summary equals the number of unread rows at the moment it was computed.
package unread

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

type Reconciler struct {
	store domain.ReadStateRepository
	clock clockwork.Clock
}

func NewReconciler(store domain.ReadStateRepository, clock clockwork.Clock) *Reconciler {
	return &Reconciler{store: store, clock: clock}
}

// MarkPersonalRead marks every unread message from peerID to userID as read
// and returns how many changed. Repeating the call returns 0.
func (r *Reconciler) MarkPersonalRead(ctx context.Context, userID, peerID domain.UserID) (int64, error) {
	n, err := r.store.MarkPersonalRead(ctx, userID, peerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark personal messages read: %w", err)
	}

	metrics.ReadMarkedTotal.WithLabelValues("personal").Add(float64(n))
	slog.Debug("Personal messages marked read", "user_id", userID.String(), "peer_id", peerID.String(), "count", n)
	return n, nil
}

// MarkGroupRead marks userID's unread rows in the chat as read, stamped with
// the current time.
func (r *Reconciler) MarkGroupRead(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (int64, error) {
	n, err := r.store.MarkGroupRead(ctx, chatID, userID, r.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark group messages read: %w", err)
	}

	metrics.ReadMarkedTotal.WithLabelValues("group").Add(float64(n))
	slog.Debug("Group messages marked read", "user_id", userID.String(), "group_chat_id", chatID.String(), "count", n)
	return n, nil
}

// Summary returns unread counts per peer and per group chat. Entries with no
// unread messages are absent; the maps themselves are never nil.
func (r *Reconciler) Summary(ctx context.Context, userID domain.UserID) (domain.UnreadSummary, error) {
	var (
		personal map[domain.UserID]int64
		group    map[domain.GroupChatID]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if personal, err = r.store.UnreadPersonal(gctx, userID); err != nil {
			return fmt.Errorf("failed to count unread personal messages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if group, err = r.store.UnreadGroup(gctx, userID); err != nil {
			return fmt.Errorf("failed to count unread group messages: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.UnreadSummary{}, err
	}

	if personal == nil {
		personal = make(map[domain.UserID]int64)
	}
	if group == nil {
		group = make(map[domain.GroupChatID]int64)
	}
	return domain.UnreadSummary{Personal: personal, Group: group}, nil
}
