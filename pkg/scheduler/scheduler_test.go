package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTasksNeverRunInParallel(t *testing.T) {
	var running, maxRunning, steps atomic.Int32

	l := New()
	for _, name := range []string{"a", "b", "c"} {
		l.Go(name, func(ctx context.Context, p *Proc) error {
			for i := 0; i < 50; i++ {
				n := running.Add(1)
				if n > maxRunning.Load() {
					maxRunning.Store(n)
				}
				// hold the core for a moment without yielding
				time.Sleep(50 * time.Microsecond)
				steps.Add(1)
				running.Add(-1)
				if err := p.Yield(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxRunning.Load() != 1 {
		t.Fatalf("%d tasks ran at once", maxRunning.Load())
	}
	if steps.Load() != 150 {
		t.Fatalf("steps = %d, want 150", steps.Load())
	}
}

func TestYieldInterleaves(t *testing.T) {
	var order []string

	l := New()
	for _, name := range []string{"a", "b"} {
		name := name
		l.Go(name, func(ctx context.Context, p *Proc) error {
			for i := 0; i < 20; i++ {
				order = append(order, name)
				if err := p.Sleep(ctx, time.Millisecond); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 40 {
		t.Fatalf("%d steps, want 40", len(order))
	}
	// b must get the core before a finishes
	for i, name := range order[:20] {
		if name == "b" {
			return
		} else if i == 19 {
			t.Fatalf("a ran to completion before b started: %v", order)
		}
	}
}

func TestCancelStopsSleepers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var loops atomic.Int32
	l := New()
	for _, name := range []string{"refresh", "poll"} {
		l.Go(name, func(ctx context.Context, p *Proc) error {
			for {
				loops.Add(1)
				if err := p.Sleep(ctx, time.Millisecond); err != nil {
					return err
				}
			}
		})
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if loops.Load() < 2 {
		t.Fatalf("tasks did not run")
	}
}

func TestTaskErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")

	l := New()
	l.Go("fails", func(ctx context.Context, p *Proc) error {
		if err := p.Sleep(ctx, 5*time.Millisecond); err != nil {
			return err
		}
		return boom
	})
	l.Go("forever", func(ctx context.Context, p *Proc) error {
		for {
			if err := p.Sleep(ctx, time.Millisecond); err != nil {
				return err
			}
		}
	})

	err := l.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run: err = %v, want boom", err)
	}
}

func TestCoreReleasedOnExit(t *testing.T) {
	l := New()
	l.Go("quick", func(ctx context.Context, p *Proc) error { return nil })
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !l.core.TryAcquire(1) {
		t.Fatalf("core token leaked")
	}
}
