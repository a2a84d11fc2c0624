// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package badges

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// UnlockTopic is the topic unlock events are published on.
const UnlockTopic = "badges.unlocked"

// WatermillPublisher publishes unlock events as JSON Watermill messages.
type WatermillPublisher struct {
	pub   message.Publisher
	topic string
}

// NewWatermillPublisher wraps pub. Events go to UnlockTopic.
func NewWatermillPublisher(pub message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{pub: pub, topic: UnlockTopic}
}

// PublishUnlock publishes ev.
func (p *WatermillPublisher) PublishUnlock(ctx context.Context, ev UnlockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal unlock event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("badge_id", ev.BadgeID)
	msg.Metadata.Set("user_id", ev.UserID)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish unlock event: %w", err)
	}
	return nil
}

// DecodeUnlock parses an unlock event message payload.
func DecodeUnlock(msg *message.Message) (UnlockEvent, error) {
	var ev UnlockEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return UnlockEvent{}, fmt.Errorf("decode unlock event: %w", err)
	}
	return ev, nil
}
