package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs tile computations on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the others once its own queue is
// empty. Tiles over dense DEM areas take far longer than tiles over the sea,
// and stealing keeps the workers busy until the last tile is done.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds one buffered queue per worker.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// Workers start immediately and wait for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			p.run(work)
		default:
			if stolen := p.steal(id); stolen != nil {
				p.run(stolen)
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				p.run(work)
			}
		}
	}
}

func (p *WorkerPool) run(work func()) {
	if work == nil {
		return
	}
	work()
}

// drain executes the work left in queue.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			p.run(work)
		default:
			return
		}
	}
}

// steal takes one work item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case work := <-p.queues[(id+i)%p.workers]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin across workers and waits for all
// of it to complete. Items that cannot be queued because the pool is
// closing are run on the calling goroutine. If the pool is already closed,
// this is a no-op.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))

	for i, fn := range work {
		fn := fn
		wrapped := func() {
			defer wg.Done()
			if fn != nil {
				fn()
			}
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Map calls fn(i) for every i in [0, n) on the pool and waits for all calls
// to return.
func (p *WorkerPool) Map(n int, fn func(i int)) {
	if n <= 0 || fn == nil {
		return
	}
	work := make([]func(), n)
	for i := range work {
		i := i
		work[i] = func() { fn(i) }
	}
	p.ExecuteAll(work)
}

// Close stops accepting work, waits for queued work to complete and stops
// the workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}
