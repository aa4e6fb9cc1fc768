package utils

import (
	"sync"
	"time"
)

// Pool runs jobs with bounded concurrency and a minimum gap between job
// starts. It paces outbound calls (Telegram allows roughly one message per
// second per chat).
type Pool struct {
	gap       time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu        sync.Mutex
	lastStart time.Time
}

// NewPool creates a Pool with the given concurrency and start gap.
func NewPool(workers int, gap time.Duration) *Pool {
	return &Pool{
		gap:       gap,
		semaphore: make(chan struct{}, workers),
	}
}

// Submit enqueues a job for execution.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.semaphore <- struct{}{}

	go func() {
		defer p.wg.Done()
		defer func() { <-p.semaphore }()

		p.throttle()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) throttle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elapsed := time.Since(p.lastStart); elapsed < p.gap {
		time.Sleep(p.gap - elapsed)
	}
	p.lastStart = time.Now()
}
