// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package services

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/logging"
)

// UnlockHandler processes one decoded unlock event.
type UnlockHandler func(ctx context.Context, ev badges.UnlockEvent) error

// UnlockSubscriber consumes badge unlock events from the in-process bus.
//
// Messages whose payload cannot be decoded are acked and dropped; a handler
// error nacks the message so the bus redelivers it.
type UnlockSubscriber struct {
	sub     message.Subscriber
	topic   string
	handler UnlockHandler
}

// NewUnlockSubscriber subscribes to badges.UnlockTopic. A nil handler logs
// each unlock.
func NewUnlockSubscriber(sub message.Subscriber, handler UnlockHandler) *UnlockSubscriber {
	if handler == nil {
		handler = LogUnlock
	}
	return &UnlockSubscriber{sub: sub, topic: badges.UnlockTopic, handler: handler}
}

// LogUnlock writes an info line for ev.
func LogUnlock(ctx context.Context, ev badges.UnlockEvent) error {
	logging.Ctx(ctx).Info().
		Str("user_id", ev.UserID).
		Str("badge", ev.BadgeID).
		Str("name", ev.Name).
		Time("unlocked_at", ev.UnlockedAt).
		Msg("Badge unlocked")
	return nil
}

// Serve implements suture.Service.
func (s *UnlockSubscriber) Serve(ctx context.Context) error {
	messages, err := s.sub.Subscribe(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Bus closed underneath us; let the supervisor resubscribe.
				return fmt.Errorf("subscription to %s closed", s.topic)
			}
			s.process(ctx, msg)
		}
	}
}

func (s *UnlockSubscriber) process(ctx context.Context, msg *message.Message) {
	ev, err := badges.DecodeUnlock(msg)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed unlock event")
		msg.Ack()
		return
	}

	if err := s.handler(ctx, ev); err != nil {
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Str("badge", ev.BadgeID).Msg("Unlock handler failed")
		msg.Nack()
		return
	}
	msg.Ack()
}

func (s *UnlockSubscriber) String() string {
	return "badge-unlock-subscriber"
}
