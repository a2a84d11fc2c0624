// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

package supervisor

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/tastemirror/internal/logging"
)

// stubService runs until canceled, failing the first failFirst starts.
type stubService struct {
	name      string
	failFirst int32
	starts    atomic.Int32
	running   chan struct{}
}

func newStubService(name string, failFirst int32) *stubService {
	return &stubService{name: name, failFirst: failFirst, running: make(chan struct{}, 8)}
}

func (s *stubService) Serve(ctx context.Context) error {
	if n := s.starts.Add(1); n <= s.failFirst {
		return errors.New("simulated failure")
	}
	s.running <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func testTree(t *testing.T) *SupervisorTree {
	t.Helper()
	var buf bytes.Buffer
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	return NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
}

func waitRunning(t *testing.T, s *stubService) {
	t.Helper()
	select {
	case <-s.running:
	case <-time.After(3 * time.Second):
		t.Fatalf("%s never reached running state (starts=%d)", s.name, s.starts.Load())
	}
}

func TestTreeConfigDefaults(t *testing.T) {
	cfg := TreeConfig{FailureThreshold: 2}.withDefaults()
	if cfg.FailureThreshold != 2 {
		t.Errorf("explicit threshold overwritten: %v", cfg.FailureThreshold)
	}
	def := DefaultTreeConfig()
	if cfg.FailureDecay != def.FailureDecay || cfg.FailureBackoff != def.FailureBackoff || cfg.ShutdownTimeout != def.ShutdownTimeout {
		t.Errorf("zero fields not defaulted: %+v", cfg)
	}
}

func TestSupervisorTree_RunsEveryLayer(t *testing.T) {
	tree := testTree(t)

	gc := newStubService("storage-gc", 0)
	sweeper := newStubService("session-sweeper", 0)
	httpSvc := newStubService("http-server", 0)
	tree.AddDataService(gc)
	tree.AddMessagingService(sweeper)
	tree.AddAPIService(httpSvc)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	for _, s := range []*stubService{gc, sweeper, httpSvc} {
		waitRunning(t, s)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 0 {
		t.Errorf("expected clean shutdown, unstopped: %v", report)
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	tree := testTree(t)

	flaky := newStubService("badge-unlock-subscriber", 2)
	steady := newStubService("http-server", 0)
	tree.AddMessagingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := tree.ServeBackground(ctx)

	waitRunning(t, flaky)
	waitRunning(t, steady)

	if n := flaky.starts.Load(); n != 3 {
		t.Errorf("expected 2 failures then a running start, got %d starts", n)
	}
	if n := steady.starts.Load(); n != 1 {
		t.Errorf("failures in the messaging layer restarted the API layer: %d starts", n)
	}

	cancel()
	<-done
}

func TestSupervisorTree_RemoveAndWait(t *testing.T) {
	tree := testTree(t)

	svc := newStubService("detail-cache-janitor", 0)
	token := tree.AddDataService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := tree.ServeBackground(ctx)
	waitRunning(t, svc)

	if err := tree.RemoveAndWait(token, time.Second); err != nil {
		t.Fatalf("RemoveAndWait: %v", err)
	}

	cancel()
	<-done
}

func TestSupervisorTree_RemoveUnknownToken(t *testing.T) {
	tree := testTree(t)
	other := testTree(t)

	token := other.AddAPIService(newStubService("http-server", 0))
	if err := tree.RemoveAndWait(token, time.Second); !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}
