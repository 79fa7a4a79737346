package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task represents a unit of background work executed by the pool.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of goroutines.
type Pool interface {
	Submit(Task)
	// TrySubmit queues t unless every worker is busy and the queue is full.
	TrySubmit(Task) bool
	Stop()
}

// NewPool creates a pool with n workers. n<=0 defaults to 1. Tasks receive a
// context that is cancelled by Stop.
func NewPool(n int) Pool {
	if n <= 0 {
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &pool{jobs: make(chan Task, n), ctx: ctx, cancel: cancel}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}
	return p
}

type pool struct {
	jobs   chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (p *pool) run(job Task) {
	if job == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker task panicked", "panic", r)
		}
	}()
	job(p.ctx)
}

func (p *pool) Submit(t Task) {
	p.jobs <- t
}

func (p *pool) TrySubmit(t Task) bool {
	select {
	case p.jobs <- t:
		return true
	default:
		return false
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *pool) Stop() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		p.cancel()
	})
}

// Every submits t to p immediately and then on every tick until ctx is done.
// A tick is skipped when the pool is saturated.
func Every(ctx context.Context, p Pool, interval time.Duration, t Task) {
	if interval <= 0 {
		return
	}
	p.TrySubmit(t)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.TrySubmit(t) {
				slog.Warn("worker pool busy, skipping scheduled task")
			}
		}
	}
}
