// Package scheduler runs polling tasks on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Task is one iteration of a loop.
type Task func(ctx context.Context) error

// Loop runs Task, waits Interval and repeats until its context is done.
// Failures and panics are logged and never stop the loop. There is no
// backoff.
type Loop struct {
	Name     string
	Interval time.Duration
	Task     Task

	clock  clockwork.Clock
	logger logging.Logger
}

type Opt func(*Loop)

func WithClock(clock clockwork.Clock) Opt {
	return func(l *Loop) {
		l.clock = clock
	}
}

func NewLoop(name string, interval time.Duration, task Task, logger logging.Logger, opts ...Opt) *Loop {
	l := &Loop{
		Name:     name,
		Interval: interval,
		Task:     task,
		clock:    clockwork.NewRealClock(),
		logger:   logger.With("loop", name),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info(ctx, "loop started", "interval", l.Interval.String())
	for {
		l.runOnce(ctx)

		select {
		case <-ctx.Done():
			l.logger.Info(ctx, "loop stopped")
			return nil
		case <-l.clock.After(l.Interval):
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// entries logged with ctx during this run carry its id
	ctx = logging.ContextWith(ctx, "run_id", uuid.NewString())
	start := l.clock.Now()
	result := "ok"

	defer func() {
		if p := recover(); p != nil {
			result = "panic"
			l.logger.Error(ctx, "loop iteration panicked", "panic", fmt.Sprint(p))
		}
		metrics.LoopIteration(l.Name, result, l.clock.Since(start))
	}()

	if err := l.Task(ctx); err != nil {
		result = "error"
		l.logger.Error(ctx, "loop iteration failed", "error", err)
		return
	}
	l.logger.Debug(ctx, "loop iteration done", "took", l.clock.Since(start).String())
}

// RunGroup runs every loop until ctx is done.
func RunGroup(ctx context.Context, loops ...*Loop) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		g.Go(func() error {
			return l.Run(ctx)
		})
	}
	return g.Wait()
}
