// Package queue runs background work handed off by request handlers.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aljonleynes11/media-coding-exam-backend/logging"
)

var (
	ErrQueueFull = errors.New("queue: full")
	ErrClosed    = errors.New("queue: closed")
)

// Task is a unit of background work. The context it receives is not tied
// to the submitter's request.
type Task func(ctx context.Context)

// Executor accepts tasks without blocking the caller.
type Executor interface {
	Submit(task Task) error
}

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// Pool is a fixed set of workers reading a buffered channel.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan Task
	wg     sync.WaitGroup
	log    logging.Logger
}

// NewPool starts workers goroutines sharing a queue of size tasks.
func NewPool(workers, size int, log logging.Logger) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if size < 1 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = logging.Discard()
	}
	p := &Pool{
		tasks: make(chan Task, size),
		log:   log.With("component", "queue"),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i + 1)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	ctx := context.Background()
	p.log.Debug(ctx, "worker started", "worker", id)

	for task := range p.tasks {
		p.run(ctx, id, task)
	}
	p.log.Debug(ctx, "worker stopped", "worker", id)
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(ctx, "task panicked", "worker", id, "panic", fmt.Sprint(r))
		}
	}()
	task(ctx)
}

// Submit enqueues task. It never blocks: a full queue returns ErrQueueFull
// and the task is dropped.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		p.log.Warn(context.Background(), "queue is full, dropping task", "capacity", cap(p.tasks))
		return ErrQueueFull
	}
}

// Close stops accepting tasks, lets the workers drain what is queued and
// waits for them. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Inline runs each task synchronously on the caller's goroutine.
type Inline struct{}

func (Inline) Submit(task Task) error {
	task(context.Background())
	return nil
}
