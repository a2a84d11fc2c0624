// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tastemirror/internal/badges"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*GCService)(nil)
	_ suture.Service = (*UnlockSubscriber)(nil)
)

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stopped     chan struct{}
	shutdowns   atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{started: make(chan struct{}, 1), stopped: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stopped)
	return f.shutdownErr
}

func TestHTTPServerService_DefaultTimeout(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{0, -time.Second} {
		if svc := NewHTTPServerService(newFakeHTTPServer(), d); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: got %v, want 10s", d, svc.shutdownTimeout)
		}
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("graceful shutdown", func(t *testing.T) {
		t.Parallel()
		srv := newFakeHTTPServer()
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		<-srv.started
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("expected one Shutdown call, got %d", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()
		bind := errors.New("bind: address already in use")
		srv := newFakeHTTPServer()
		srv.listenErr = bind

		err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
		if !errors.Is(err, bind) {
			t.Errorf("expected wrapped bind error, got %v", err)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		t.Parallel()
		srv := newFakeHTTPServer()
		srv.shutdownErr = errors.New("deadline exceeded")
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		<-srv.started
		cancel()

		if err := <-errCh; !errors.Is(err, srv.shutdownErr) {
			t.Errorf("expected shutdown error, got %v", err)
		}
	})
}

type countingGC struct {
	runs atomic.Int32
	err  error
}

func (c *countingGC) RunGC() error {
	c.runs.Add(1)
	return c.err
}

func TestGCService_RunsOnInterval(t *testing.T) {
	t.Parallel()

	gc := &countingGC{err: errors.New("value log busy")}
	svc := NewGCService(gc, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for gc.runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 GC runs, got %d", gc.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("GC errors must not stop the service; got %v", err)
	}
	if NewGCService(gc, 0).interval != 10*time.Minute {
		t.Error("expected 10 minute default interval")
	}
}

func TestUnlockSubscriber(t *testing.T) {
	t.Parallel()

	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8, Persistent: true}, watermill.NopLogger{})
	defer bus.Close()

	var attempts atomic.Int32
	got := make(chan badges.UnlockEvent, 4)
	handler := func(_ context.Context, ev badges.UnlockEvent) error {
		// Fail the first delivery to exercise nack and redelivery.
		if attempts.Add(1) == 1 {
			return errors.New("downstream unavailable")
		}
		got <- ev
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := NewUnlockSubscriber(bus, handler)
	errCh := make(chan error, 1)
	go func() { errCh <- sub.Serve(ctx) }()

	if err := bus.Publish(badges.UnlockTopic, message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Fatal(err)
	}
	want := badges.UnlockEvent{UserID: "u1", BadgeID: badges.Explorer, Name: "Explorer"}
	if err := badges.NewWatermillPublisher(bus).PublishUnlock(ctx, want); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-got:
		if ev.BadgeID != want.BadgeID || ev.UserID != want.UserID {
			t.Errorf("got %+v, want %+v", ev, want)
		}
	case <-ctx.Done():
		t.Fatal("unlock event never handled")
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("expected handler to run twice (nack then ack), ran %d times", n)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("unexpected Serve result %v", err)
	}
}
