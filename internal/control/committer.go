package control

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrClosed is returned when work is submitted after Close
var ErrClosed = errors.New("committer closed")

// Job is a unit of hardware or storage work
type Job func(ctx context.Context) error

type job struct {
	name string
	fn   Job
	done func(error)
}

// Committer runs jobs one at a time in submission order. Every write to the
// fan channel and the preset store goes through a single Committer so no two
// commits ever overlap.
type Committer struct {
	jobs chan job

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCommitter starts the worker. buffer is the number of jobs that can be
// queued before Submit blocks.
func NewCommitter(buffer int) *Committer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Committer{
		jobs:   make(chan job, buffer),
		ctx:    ctx,
		cancel: cancel,
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Committer) run() {
	defer c.wg.Done()
	for j := range c.jobs {
		err := j.fn(c.ctx)
		if err != nil {
			log.Printf("Commit %s failed: %v", j.name, err)
		}
		if j.done != nil {
			j.done(err)
		}
	}
}

// Submit queues fn. done, when not nil, is called from the worker with the
// job result.
func (c *Committer) Submit(name string, fn Job, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.jobs <- job{name: name, fn: fn, done: done}
	return nil
}

// Do queues fn and waits for it to finish or for ctx to be done. A job whose
// caller gave up still runs to completion.
func (c *Committer) Do(ctx context.Context, name string, fn Job) error {
	result := make(chan error, 1)
	if err := c.Submit(name, fn, func(err error) { result <- err }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued jobs and stops the worker
func (c *Committer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.jobs)
	c.mu.Unlock()

	c.wg.Wait()
	c.cancel()
}
