// Package scheduler runs cooperative tasks on one logical core.
//
// Every task is a goroutine, but only the holder of the core token runs.
// A task gives up the core only inside Proc.Sleep, so between two sleeps it
// has the shared state it touches to itself. Edge interrupts are not tasks
// and are never blocked by the token.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is one cooperative activity. It should return when ctx is done.
type Task func(ctx context.Context, p *Proc) error

type task struct {
	name string
	fn   Task
}

// Loop is a set of tasks sharing one core.
type Loop struct {
	core  *semaphore.Weighted
	tasks []task
}

func New() *Loop {
	return &Loop{core: semaphore.NewWeighted(1)}
}

// Go adds a task. Tasks added after Run has started are not run.
func (l *Loop) Go(name string, fn Task) {
	l.tasks = append(l.tasks, task{name: name, fn: fn})
}

// Run runs all tasks until ctx is done or one of them fails. A task that
// returns the context error counts as a clean exit.
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range l.tasks {
		t := t
		g.Go(func() error {
			p := &Proc{name: t.name, core: l.core}
			if err := p.acquire(ctx); err != nil {
				return nil
			}
			defer p.release()

			err := t.fn(ctx, p)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("task %s: %w", t.name, err)
		})
	}
	return g.Wait()
}

// Proc is a task's handle on the core.
type Proc struct {
	name string
	core *semaphore.Weighted
	held bool
}

// Name returns the task name.
func (p *Proc) Name() string { return p.name }

func (p *Proc) acquire(ctx context.Context) error {
	if err := p.core.Acquire(ctx, 1); err != nil {
		return err
	}
	p.held = true
	return nil
}

func (p *Proc) release() {
	if p.held {
		p.held = false
		p.core.Release(1)
	}
}

// Sleep hands the core to the other tasks for d and takes it back. If ctx is
// done first Sleep returns its error without the core; the task must return.
func (p *Proc) Sleep(ctx context.Context, d time.Duration) error {
	p.release()

	if d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return p.acquire(ctx)
}

// Yield lets every waiting task run before continuing.
func (p *Proc) Yield(ctx context.Context) error {
	return p.Sleep(ctx, 0)
}
