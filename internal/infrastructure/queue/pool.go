package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

const channelBuffer = 256

// ErrPoolClosed is returned by Do once Close has been called.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	fn   func()
	done chan struct{}
}

// Pool runs CPU-bound jobs on a fixed set of workers so request goroutines
// wait on a result instead of all burning CPU at once.
type Pool struct {
	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup
	log  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool with numWorkers workers and starts them.
// If numWorkers <= 0, runtime.NumCPU() is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	p := &Pool{
		jobs: make(chan job, channelBuffer),
		quit: make(chan struct{}),
		log:  log,
	}
	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(i)
	}
	log.Debug().Int("workers", numWorkers).Msg("worker pool started")
	return p
}

// Do schedules fn and blocks until it has run or ctx is done. When ctx ends
// first, fn may still run later; its result must be discarded by the caller.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}

	// Close waits for in-flight sends, so an accepted job is always drained.
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers after the jobs already queued have run.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			p.run(id, j)
		case <-p.quit:
			// drain what was accepted before Close
			for {
				select {
				case j := <-p.jobs:
					p.run(id, j)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("worker job panicked")
		}
	}()
	j.fn()
}
