// Package worker runs submissions through a bounded pool and paces outbound
// requests per host.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one Job
type Result interface {
	GetError() error
}

type slotResult struct {
	index  int
	result Result
}

// Pool executes jobs on a fixed number of workers. Results are drained as
// they arrive, so Submit never blocks on an unread result, and Wait returns
// them in submission order regardless of completion order.
type Pool struct {
	workers    int
	jobQueue   chan slotJob
	results    chan slotResult
	submitted  int
	collected  map[int]Result
	collectorD chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

type slotJob struct {
	index int
	job   Job
}

// NewPool creates a pool bound to parent. Cancelling parent stops the workers.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan slotJob, workers*2),
		results:    make(chan slotResult, workers*2),
		collected:  make(map[int]Result),
		collectorD: make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case sj, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- slotResult{index: sj.index, result: sj.job.Execute(p.ctx)}
		}
	}
}

func (p *Pool) collect() {
	defer close(p.collectorD)
	for sr := range p.results {
		p.collected[sr.index] = sr.result
	}
}

// Submit queues a job. It must not be called concurrently with itself or
// after Wait. Submitting to a stopped pool drops the job.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- slotJob{index: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait closes the queue, waits for the workers and returns one slot per
// submitted job in submission order. Slots of jobs that never ran because
// the pool was cancelled are nil.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collectorD
	p.cancelFunc()

	ordered := make([]Result, p.submitted)
	for i, res := range p.collected {
		ordered[i] = res
	}
	return ordered
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
