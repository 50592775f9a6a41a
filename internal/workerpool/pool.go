package workerpool

import (
	"sync"
)

// Pool runs submitted jobs concurrently. A pool with a positive size keeps
// at most size jobs running and Submit blocks until a worker is free; a pool
// with size <= 0 starts one goroutine per job.
type Pool struct {
	size      int
	jobs      chan func()
	workers   sync.WaitGroup
	pending   sync.WaitGroup
	closeOnce sync.Once
}

// New creates a pool and starts its workers.
func New(size int) *Pool {
	p := &Pool{size: size}
	if size <= 0 {
		return p
	}

	p.jobs = make(chan func())
	for i := 0; i < size; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

// worker runs jobs until the pool is closed
func (p *Pool) worker() {
	defer p.workers.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	defer p.pending.Done()
	job()
}

// Submit hands job to the pool. It must not be called after Wait.
func (p *Pool) Submit(job func()) {
	p.pending.Add(1)
	if p.jobs == nil {
		go p.run(job)
		return
	}
	p.jobs <- job
}

// Wait blocks until every submitted job has returned, then releases the
// workers. The pool cannot be reused afterwards.
func (p *Pool) Wait() {
	p.pending.Wait()
	p.closeOnce.Do(func() {
		if p.jobs != nil {
			close(p.jobs)
		}
	})
	p.workers.Wait()
}

// Size returns the concurrency cap, 0 when unbounded.
func (p *Pool) Size() int {
	if p.size < 0 {
		return 0
	}
	return p.size
}
