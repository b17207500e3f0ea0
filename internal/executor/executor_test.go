package executor_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jmylchreest/swfplayer/internal/executor"
	"github.com/jmylchreest/swfplayer/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_RunsSpawnedFutures(t *testing.T) {
	e := executor.New(slog.New(slog.DiscardHandler), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Serve(ctx)

	ran := make(chan struct{})
	e.Spawn(func(context.Context) error {
		close(ran)
		return nil
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("future never ran")
	}
}

func TestExecutor_SwallowsCancelledLoads(t *testing.T) {
	e := executor.New(slog.New(slog.DiscardHandler), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Serve(ctx)

	done := make(chan struct{})
	e.Spawn(func(context.Context) error {
		defer close(done)
		return loader.ErrCancelled
	})
	e.Spawn(func(context.Context) error {
		return errors.New("real failure")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("future never ran")
	}
}

func TestExecutor_ServeStopsOnCancel(t *testing.T) {
	e := executor.New(slog.New(slog.DiscardHandler), 4)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- e.Serve(ctx) }()

	// In-flight work completes before Serve returns.
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	e.Spawn(func(context.Context) error {
		close(started)
		<-release
		close(finished)
		return nil
	})
	<-started

	cancel()
	close(release)

	select {
	case err := <-stopped:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}

	select {
	case <-finished:
	default:
		t.Fatal("Serve returned before in-flight future finished")
	}

	assert.NotNil(t, e)
}
