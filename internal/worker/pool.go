// Package worker runs independent jobs on a bounded set of goroutines and
// throttles outbound requests per data provider.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) Result

func (f JobFunc) Execute(ctx context.Context) Result { return f(ctx) }

type queued struct {
	seq int
	job Job
}

type completed struct {
	seq    int
	result Result
}

// Pool executes submitted jobs on a fixed number of workers. Results are
// returned in submission order.
type Pool struct {
	workers    int
	jobQueue   chan queued
	results    chan completed
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	submitted  int

	collected []completed
	collectWG sync.WaitGroup
}

// NewPool creates a pool bound to parent; cancelling parent stops the workers
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queued, workers*2),
		results:    make(chan completed, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	p.collectWG.Add(1)
	go func() {
		defer p.collectWG.Done()
		for c := range p.results {
			p.collected = append(p.collected, c)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			select {
			case p.results <- completed{seq: q.seq, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Once the pool's context is done the job is dropped and
// its result slot stays nil. Submit must not be called concurrently with
// itself or after Wait.
func (p *Pool) Submit(job Job) {
	seq := p.submitted
	p.submitted++

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- queued{seq: seq, job: job}:
	}
}

// Wait closes the queue, waits for the workers and returns one entry per
// submitted job in submission order. A job that never ran because the pool
// was cancelled leaves a nil entry.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.results)
	p.collectWG.Wait()
	p.cancelFunc()

	results := make([]Result, p.submitted)
	for _, c := range p.collected {
		results[c.seq] = c.result
	}
	return results
}

// Run is the common case: execute jobs with the given worker count and
// return a result slot per job, nil where ctx ended before the job ran.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPool(ctx, workers)
	pool.Start()
	for _, job := range jobs {
		pool.Submit(job)
	}
	return pool.Wait()
}
