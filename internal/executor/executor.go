// Package executor drives load futures to completion. It is the async
// context of the player: futures run on worker goroutines here and only
// touch player state through update sections of their own making.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jmylchreest/swfplayer/internal/loader"
)

// DefaultQueueSize bounds how many futures can be pending before Spawn
// blocks.
const DefaultQueueSize = 64

// Executor runs spawned futures. It implements suture.Service so a
// supervisor can own its lifecycle.
type Executor struct {
	queue chan loader.Future
	wg    sync.WaitGroup
	log   *slog.Logger
}

// New creates an executor with the given queue capacity.
func New(log *slog.Logger, queueSize int) *Executor {
	if log == nil {
		log = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Executor{
		queue: make(chan loader.Future, queueSize),
		log:   log.With(slog.String("component", "executor")),
	}
}

// Spawn schedules a future. It blocks only when the queue is full.
func (e *Executor) Spawn(fut loader.Future) {
	e.queue <- fut
}

// Serve implements suture.Service: it dispatches queued futures onto worker
// goroutines until the context is cancelled, then waits for in-flight work.
func (e *Executor) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			return ctx.Err()
		case fut := <-e.queue:
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.run(ctx, fut)
			}()
		}
	}
}

// run executes one future. A cancelled load is a no-op by contract and logs
// at debug; real failures log at error. Neither stops the executor.
func (e *Executor) run(ctx context.Context, fut loader.Future) {
	err := fut(ctx)
	switch {
	case err == nil:
	case errors.Is(err, loader.ErrCancelled):
		e.log.Debug("load cancelled before completion")
	default:
		e.log.Error("load failed", slog.String("error", err.Error()))
	}
}
