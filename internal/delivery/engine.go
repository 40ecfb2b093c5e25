// Package delivery fans committed mutations out to live connections.
//
// The Engine builds envelopes and hands them to a Publisher keyed by
// subscriber. It never writes durable state and never fails the caller:
// every problem past the durable write is logged and counted.
package delivery

import (
	"context"
	"log/slog"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/envelope"
	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/MYC-A/MoveUp/internal/registry"
)

// Publisher delivers encoded envelopes to the connections under a key and
// reports how many were reached. Implemented by registry.Registry (single
// instance) and redis.Relay (cross-instance).
type Publisher interface {
	Broadcast(ctx context.Context, key registry.Key, data []byte) (int, error)
}

// Report summarizes one delivered mutation.
type Report struct {
	Targets []registry.Key
	Reached int
	Failed  int
}

// Engine turns committed mutations into envelopes and pushes them to every
// key that should see them.
type Engine struct {
	publisher Publisher
}

// NewEngine returns an engine publishing through publisher.
func NewEngine(publisher Publisher) *Engine {
	return &Engine{publisher: publisher}
}

// DeliverPersonal pushes a personal message to the recipient's connections.
// An offline recipient is not an error; the message stays unread in storage.
func (e *Engine) DeliverPersonal(ctx context.Context, env envelope.Personal) Report {
	var report Report
	e.publish(ctx, &report, registry.UserKey(env.RecipientID), env)
	e.observe(env.Kind(), report)
	return report
}

// DeliverGroup pushes one copy of msg to each distinct participant. The
// sender's own copy is marked read.
func (e *Engine) DeliverGroup(ctx context.Context, msg *domain.GroupMessage, participants []domain.UserID) Report {
	var report Report
	for _, p := range dedupe(participants) {
		e.publish(ctx, &report, registry.UserKey(p), envelope.NewGroup(msg, p))
	}
	e.observe(envelope.TypeGroup, report)
	return report
}

// DeliverLike pushes the post-commit like state to the feed and to the post.
func (e *Engine) DeliverLike(ctx context.Context, env envelope.Like) Report {
	var report Report
	e.publish(ctx, &report, registry.FeedKey, env)
	e.publish(ctx, &report, registry.PostKey(env.PostID), env)
	e.observe(env.Kind(), report)
	return report
}

// DeliverComment pushes a new comment to the feed and to the post.
func (e *Engine) DeliverComment(ctx context.Context, env envelope.Comment) Report {
	var report Report
	e.publish(ctx, &report, registry.FeedKey, env)
	e.publish(ctx, &report, registry.PostKey(env.PostID), env)
	e.observe(env.Kind(), report)
	return report
}

func (e *Engine) publish(ctx context.Context, report *Report, key registry.Key, env envelope.Envelope) {
	report.Targets = append(report.Targets, key)

	data, err := envelope.Encode(env)
	if err != nil {
		slog.Error("Failed to encode envelope", "type", string(env.Kind()), "key", key.String(), "error", err)
		metrics.DeliveryErrorsTotal.WithLabelValues(string(env.Kind())).Inc()
		report.Failed++
		return
	}

	reached, err := e.publisher.Broadcast(ctx, key, data)
	if err != nil {
		slog.Warn("Failed to publish envelope", "type", string(env.Kind()), "key", key.String(), "error", err)
		metrics.DeliveryErrorsTotal.WithLabelValues(string(env.Kind())).Inc()
		report.Failed++
		return
	}

	metrics.EnvelopesPublishedTotal.WithLabelValues(string(env.Kind())).Inc()
	report.Reached += reached
}

func (e *Engine) observe(kind envelope.Type, report Report) {
	metrics.DeliveryFanout.WithLabelValues(string(kind)).Observe(float64(report.Reached))
	slog.Debug("Envelope delivered",
		"type", string(kind),
		"targets", len(report.Targets),
		"reached", report.Reached,
		"failed", report.Failed,
	)
}

// dedupe keeps the first occurrence of each participant, preserving order.
func dedupe(ids []domain.UserID) []domain.UserID {
	seen := make(map[domain.UserID]struct{}, len(ids))
	out := make([]domain.UserID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
