package parallel

import (
	"sync"
)

// A loop is one submitted For/For2D call. Loops waiting for free workers are
// kept in a singly linked list with the most recently submitted loop at the
// head, so nested calls are served before the outer loop hands out more work.
type loop struct {
	fn1D   func(i int)
	fn2D   func(x, y int)
	count  int
	countX int
	chunk  int

	// The first index that has not been handed out yet.
	next int

	// The number of chunks currently executing.
	active int

	link *loop
}

func (l *loop) finished() bool {
	return l.next == l.count && l.active == 0
}

func (l *loop) run(beg, end int) {
	if l.fn1D != nil {
		for i := beg; i < end; i++ {
			l.fn1D(i)
		}
		return
	}
	for i := beg; i < end; i++ {
		l.fn2D(i%l.countX, i/l.countX)
	}
}

// Pool is a fixed set of worker goroutines that execute index-range loops.
// The goroutine that submits a loop also executes its chunks and only blocks
// once every chunk has been handed out, which keeps nested For calls from
// deadlocking a pool of fixed size.
//
// A nil *Pool, or a pool with no workers, runs every loop inline.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	// Pending loops with unclaimed chunks.
	head *loop

	shutdown bool
	workers  int
	wg       sync.WaitGroup
}

// Create a pool and start the requested number of workers.
func NewPool(workers int) *Pool {
	if workers < 0 {
		workers = 0
	}

	p := &Pool{workers: workers}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Number of worker goroutines, not counting callers.
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

// Signal all workers to exit and wait for them. Close must not be called
// while loops are still executing.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// For invokes fn(i) for every i in [0, count). The range is split into chunks
// of chunkSize consecutive indices; indices inside a chunk are visited in
// order but chunks may run in any order and concurrently. For returns once
// fn has returned for every index.
func (p *Pool) For(count, chunkSize int, fn func(i int)) {
	if count <= 0 {
		return
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	if p.Workers() == 0 || count < chunkSize {
		for i := 0; i < count; i++ {
			fn(i)
		}
		return
	}

	p.execute(&loop{
		fn1D:  fn,
		count: count,
		chunk: chunkSize,
	})
}

// For2D invokes fn(x, y) for every cell of a width x height grid. Each cell
// is a separate work item.
func (p *Pool) For2D(width, height int, fn func(x, y int)) {
	count := width * height
	if width <= 0 || height <= 0 {
		return
	}

	if p.Workers() == 0 || count == 1 {
		for i := 0; i < count; i++ {
			fn(i%width, i/width)
		}
		return
	}

	p.execute(&loop{
		fn2D:   fn,
		count:  count,
		countX: width,
		chunk:  1,
	})
}

// Publish l and help execute it until it completes.
func (p *Pool) execute(l *loop) {
	p.mu.Lock()
	l.link = p.head
	p.head = l
	p.cond.Broadcast()

	for !l.finished() {
		if l.next == l.count {
			// Remaining chunks are running on other goroutines.
			p.cond.Wait()
			continue
		}

		beg, end := p.claim(l)
		p.mu.Unlock()
		l.run(beg, end)
		p.mu.Lock()
		p.release(l)
	}
	p.mu.Unlock()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	p.mu.Lock()
	for !p.shutdown {
		if p.head == nil {
			p.cond.Wait()
			continue
		}

		l := p.head
		beg, end := p.claim(l)
		p.mu.Unlock()
		l.run(beg, end)
		p.mu.Lock()
		p.release(l)
	}
	p.mu.Unlock()
}

// Reserve the next chunk of l. Must be called with p.mu held.
func (p *Pool) claim(l *loop) (beg, end int) {
	beg = l.next
	end = beg + l.chunk
	if end > l.count {
		end = l.count
	}
	l.next = end
	l.active++

	if l.next == l.count {
		p.unlink(l)
	}
	return beg, end
}

// Must be called with p.mu held.
func (p *Pool) release(l *loop) {
	l.active--
	if l.finished() {
		p.cond.Broadcast()
	}
}

// Remove a fully claimed loop from the pending list.
func (p *Pool) unlink(l *loop) {
	for cur := &p.head; *cur != nil; cur = &(*cur).link {
		if *cur == l {
			*cur = l.link
			l.link = nil
			return
		}
	}
}
