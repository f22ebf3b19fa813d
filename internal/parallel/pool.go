// Package parallel provides the worker pool that backs the CPU kernel
// dispatch. A frame is an embarrassingly parallel grid of pixel tasks with
// disjoint write sets, so the pool needs no per-task synchronization
// beyond the final join.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool distributes independent work items across worker goroutines.
//
// Each worker owns a queue and steals from other workers when its own
// queue runs dry, which balances load when some scanlines are slower than
// others (rays that hit spheres cost more than rays that miss).
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers and starts
// them. If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return p.workers }

// worker is the main loop for one worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(myQueue)
			return
		case work := <-myQueue:
			if work != nil {
				work()
			}
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing anywhere: block on the own queue.
			select {
			case <-p.done:
				p.drain(myQueue)
				return
			case work := <-myQueue:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drain executes all remaining work in a queue.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// For runs fn for every index in [0, n) across the pool and blocks until
// all invocations have completed. The return is the caller's barrier: when
// For returns, every write performed by fn is visible to the caller.
//
// If the pool is closed, For is a no-op.
func (p *WorkerPool) For(n int, fn func(i int)) {
	if n <= 0 || !p.running.Load() {
		return
	}

	var join sync.WaitGroup
	join.Add(n)

	for i := 0; i < n; i++ {
		idx := i
		task := func() {
			defer join.Done()
			fn(idx)
		}
		select {
		case p.workQueues[i%p.workers] <- task:
		case <-p.done:
			join.Done()
		}
	}

	join.Wait()
}

// Close stops the pool and waits for the workers to exit. Queued work is
// drained before workers return. The pool cannot be restarted.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
