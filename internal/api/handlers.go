// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/daily"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/metrics"
	"github.com/tomtom215/tastemirror/internal/mirror"
	"github.com/tomtom215/tastemirror/internal/session"
	"github.com/tomtom215/tastemirror/internal/upstream"
	"github.com/tomtom215/tastemirror/internal/validation"
)

// UserIDHeader names the caller when authentication is disabled.
const UserIDHeader = "X-User-ID"

const maxBodySize = 64 * 1024

// Recommender is the recommendation service as seen by the handlers.
type Recommender interface {
	daily.Fetcher
	DetailsOrFallback(ctx context.Context, name, category string) upstream.Details
}

// Handler holds the API's collaborators.
type Handler struct {
	sessions   *session.Registry
	archetypes *archetype.Registry
	affinity   archetype.Affinity
	mirror     *mirror.Engine
	upstream   Recommender
	started    time.Time
}

// NewHandler creates a Handler.
func NewHandler(sessions *session.Registry, archetypes *archetype.Registry, affinity archetype.Affinity, mirrorEngine *mirror.Engine, rec Recommender) *Handler {
	return &Handler{
		sessions:   sessions,
		archetypes: archetypes,
		affinity:   affinity,
		mirror:     mirrorEngine,
		upstream:   rec,
		started:    time.Now(),
	}
}

// sessionFor returns the caller's session context, writing a 401 when the
// request carries no identity.
func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	id := session.FromContext(r.Context())
	if id == nil {
		NewResponseWriter(w, r).Unauthorized("Sign in to continue")
		return nil, false
	}
	return h.sessions.Get(r.Context(), id.UID), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"sessions":       h.sessions.Len(),
	})
}

// Archetypes lists the archetypes and quiz categories.
func (h *Handler) Archetypes(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"archetypes": h.archetypes.All(),
		"categories": archetype.Categories(),
	})
}

// QuizRequest is the body of POST /quiz.
type QuizRequest struct {
	Preferences archetype.Preferences `json:"preferences" validate:"required,min=1,dive,keys,quiz_category,endkeys,min=1,dive,required,max=64"`
}

// QuizResponse is the result of a quiz submission.
type QuizResponse struct {
	Archetype archetype.Archetype        `json:"archetype"`
	Ranking   []archetype.ArchetypeScore `json:"ranking"`
	Mirror    mirror.Result              `json:"mirror"`
}

// Quiz stores the caller's answers, resolves their archetype and returns
// the mirror for it.
func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req QuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("Invalid request body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	best, ranking, ok := archetype.Best(req.Preferences, h.archetypes, h.affinity)
	if !ok {
		rw.Unprocessable("No selected option matches any archetype")
		return
	}
	sc.SetProfile(req.Preferences, best.Name)

	result := h.mirror.Reflect(req.Preferences, best, h.affinity)
	metrics.RecordMirror(result.Clarity)

	logging.Ctx(r.Context()).Info().
		Str("archetype", best.Name).
		Int("selections", req.Preferences.Count()).
		Int("clarity", result.Clarity).
		Msg("Quiz resolved")

	rw.Success(QuizResponse{Archetype: best, Ranking: ranking, Mirror: result})
}

// Mirror returns the mirror for the stored answers. ?archetype= reflects
// them against another archetype instead of the resolved one.
func (h *Handler) Mirror(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	prefs, name, ok := sc.Profile()
	if !ok {
		rw.NotFound("Take the quiz first")
		return
	}
	if override := r.URL.Query().Get("archetype"); override != "" {
		name = override
	}
	arch, found := h.archetypes.Lookup(name)
	if !found {
		rw.NotFound("Unknown archetype: " + name)
		return
	}

	result := h.mirror.Reflect(prefs, arch, h.affinity)
	metrics.RecordMirror(result.Clarity)
	rw.Success(result)
}

// RecommendationsResponse is today's recommendations for one mood.
type RecommendationsResponse struct {
	Mood            string                `json:"mood"`
	Recommendations daily.Recommendations `json:"recommendations"`
}

// Recommendations returns today's recommendations for ?mood=, fetching them
// on the first request of the day. Picking a mood counts as a mood vote and
// becomes today's selection.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mood := r.URL.Query().Get("mood")
	if verr := validation.ValidateVar("mood", mood, "required,mood"); verr != nil {
		rw.ValidationError(verr)
		return
	}

	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	prefs, _, _ := sc.Profile()

	recs, err := sc.Daily.GetOrFetch(ctx, mood, prefs, h.upstream)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("mood", mood).Msg("Recommendations unavailable")
		rw.ServiceUnavailable("No recommendations available right now")
		return
	}

	if err := sc.Badges.MoodVote(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Mood vote not recorded")
	}
	if err := sc.Daily.SaveSelection(ctx, mood, recs); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Daily selection not saved")
	}

	rw.Success(RecommendationsResponse{Mood: mood, Recommendations: recs})
}

// Today returns the selection saved earlier today, if any.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}

	sel, found, err := sc.Daily.RestoreSelection(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Daily selection unreadable")
	}
	if !found {
		rw.NotFound("No mood picked today")
		return
	}
	rw.Success(sel)
}

// Details returns details for one recommended item. Failures produce the
// unavailable payload, not an error status.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()
	name, category := q.Get("name"), q.Get("category")
	if verr := validation.ValidateVar("name", name, "required,max=256"); verr != nil {
		rw.ValidationError(verr)
		return
	}
	if verr := validation.ValidateVar("category", category, "required,max=64"); verr != nil {
		rw.ValidationError(verr)
		return
	}

	rw.Success(h.upstream.DetailsOrFallback(r.Context(), name, category))
}

// BadgesResponse lists the caller's badges.
type BadgesResponse struct {
	Badges   []badges.Badge `json:"badges"`
	Unlocked int            `json:"unlocked"`
	Total    int            `json:"total"`
}

func badgesResponse(e *badges.Engine) BadgesResponse {
	list := e.Badges()
	return BadgesResponse{Badges: list, Unlocked: e.UnlockedCount(), Total: len(list)}
}

// Badges lists the caller's badges.
func (h *Handler) Badges(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(badgesResponse(sc.Badges))
}

// BadgeEventRequest is the body of POST /badges/events.
type BadgeEventRequest struct {
	Type       string   `json:"type" validate:"required,badge_trigger"`
	Categories []string `json:"categories,omitempty" validate:"required_if=Type view,dive,required,max=64"`
}

// BadgeEvent applies one badge trigger and returns the updated badges.
func (h *Handler) BadgeEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BadgeEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("Invalid request body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	sc, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	engine := sc.Badges

	var err error
	switch req.Type {
	case "play":
		err = engine.Play(ctx)
	case "like":
		err = engine.Like(ctx)
	case "share":
		err = engine.Share(ctx)
	case "vote":
		err = engine.MoodVote(ctx)
	case "view":
		err = engine.ViewCategories(ctx, req.Categories...)
	case "engage":
		err = engine.RecordEngagement(ctx)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("type", req.Type).Msg("Badge event failed")
	}

	rw.Success(badgesResponse(engine))
}

// EndSession drops the caller's session context.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := session.FromContext(r.Context())
	if id == nil {
		rw.Unauthorized("Sign in to continue")
		return
	}
	h.sessions.End(id.UID)
	rw.NoContent()
}
