package dispatch

import "sync"

const queueDepth = 64

// Dispatcher serializes work per user: everything submitted for one user id
// runs in order on that user's queue goroutine, while different users proceed
// concurrently. Timer firings and inbound events share the same queues, which
// closes the revoke-versus-expire race.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[string]chan func()
	wg     sync.WaitGroup
	closed bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{queues: make(map[string]chan func())}
}

// Submit enqueues fn on the user's queue, creating it on first use. Work
// submitted after Close is dropped. The enqueue happens under the lock so a
// concurrent Close can never close a queue mid-send.
func (d *Dispatcher) Submit(userID string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	q, ok := d.queues[userID]
	if !ok {
		q = make(chan func(), queueDepth)
		d.queues[userID] = q
		d.wg.Add(1)
		go d.drain(q)
	}
	q <- fn
}

func (d *Dispatcher) drain(q chan func()) {
	defer d.wg.Done()
	for fn := range q {
		fn()
	}
}

// Close stops accepting work and waits for in-flight work to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
