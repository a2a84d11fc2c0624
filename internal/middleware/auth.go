// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package middleware

import (
	"errors"
	"net/http"

	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/session"
)

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*session.Identity, error)
}

// Authenticate places the caller's identity in the request context. With
// required set, requests without a valid identity are rejected through
// onFail; otherwise they continue anonymously.
func Authenticate(auth Authenticator, required bool, onFail func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := auth.Authenticate(r)
			if err != nil {
				if required || !errors.Is(err, session.ErrNoCredentials) {
					logging.Ctx(r.Context()).Debug().Err(err).Msg("Authentication failed")
					onFail(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.WithIdentity(r.Context(), id)
			ctx = logging.ContextWithUserID(ctx, id.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HeaderAuthenticator trusts an upstream header for the user ID. It is used
// when authentication is disabled; a missing header means no session.
type HeaderAuthenticator struct {
	Header string
}

// Authenticate implements Authenticator.
func (h HeaderAuthenticator) Authenticate(r *http.Request) (*session.Identity, error) {
	uid := r.Header.Get(h.Header)
	if uid == "" {
		return nil, session.ErrNoCredentials
	}
	return &session.Identity{UID: uid}, nil
}
