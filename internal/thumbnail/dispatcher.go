package thumbnail

import "sync"

// Dispatcher runs posted functions one at a time on a single dedicated
// goroutine. It is the completion context for thumbnail callbacks: success
// and failure handlers are only ever invoked here, never on the worker that
// generated the image and never inline in the enqueuing call, so no two
// callbacks for the same request can race each other.
type Dispatcher struct {
	ch        chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher starts the delivery goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		ch:   make(chan func(), 64),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for fn := range d.ch {
		fn()
	}
	close(d.done)
}

// Post schedules fn for delivery. Posting after Close is a no-op.
func (d *Dispatcher) Post(fn func()) {
	defer func() {
		// ch may be closed concurrently with a late post
		_ = recover()
	}()
	d.ch <- fn
}

// Close stops delivery after draining already-posted functions and waits
// for the delivery goroutine to exit.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.ch) })
	<-d.done
}
