// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package session resolves who is calling and keeps one in-memory context
// per signed-in user: stored preferences, resolved archetype, the badge
// engine and the daily recommendation manager.
package session

import (
	"context"
	"errors"
)

// Identity is the signed-in user.
type Identity struct {
	UID string `json:"uid"`
}

// Provider reports the current session. A nil Identity means nobody is
// signed in.
type Provider interface {
	Session(ctx context.Context) *Identity
}

// Session errors.
var (
	ErrNoCredentials = errors.New("no credentials provided")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
)

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	if id == nil || id.UID == "" {
		return nil
	}
	return id
}

// ContextProvider reads the identity placed in the request context by the
// authentication middleware.
type ContextProvider struct{}

// Session implements Provider.
func (ContextProvider) Session(ctx context.Context) *Identity {
	return FromContext(ctx)
}

// Static always reports the same user. An empty UID means no session.
type Static struct {
	UID string
}

// Session implements Provider.
func (s Static) Session(context.Context) *Identity {
	if s.UID == "" {
		return nil
	}
	return &Identity{UID: s.UID}
}
