// Package asyncpool tracks outstanding non-blocking sends used to
// exchange amortization payloads during replay. A send's payload buffer
// must outlive the handler that posted it, since the matching receive is
// executed by a peer location's goroutine; this pool is what keeps that
// buffer alive until delivery completes, and reclaims it afterward.
//
// The accounting style (one entry per outstanding request, released on
// completion, cancelled on teardown) mirrors the teacher lineage's
// dispatcher/lifecycle pairing: dispatcher tracked in-flight work with a
// WaitGroup that Close drained; here each entry is itself a completion
// signal that Poll drains, and Close cancels whatever remains.
package asyncpool

import (
	"fmt"
	"sync"
)

// Request is one outstanding non-blocking send. Done is closed once the
// send has completed, i.e. the transport has accepted the payload for the
// peer.
type Request struct {
	Done    <-chan struct{}
	Payload any
}

// Pool holds outstanding Requests and their payload buffers.
type Pool struct {
	mu      sync.Mutex
	pending []Request
}

// New returns an empty async message pool.
func New() *Pool { return &Pool{} }

// Post appends a newly issued request to the pool.
func (p *Pool) Post(r Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, r)
}

// Poll performs a non-blocking progress check: any request whose Done
// channel has fired is removed and its buffer released. This mirrors
// MPI_Testsome semantics without requiring an actual MPI runtime.
func (p *Pool) Poll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.pending[:0]
	for _, r := range p.pending {
		select {
		case <-r.Done:
			// completed: drop, releasing the payload reference.
		default:
			kept = append(kept, r)
		}
	}
	p.pending = kept
}

// Outstanding returns the number of requests not yet known to be
// complete.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close cancels any remaining outstanding requests and frees the pool.
// It returns an error describing how many stragglers were cancelled, or
// nil if the pool was already empty, per spec.md §4.11/§7's "encountered
// N unreceived send operations" warning.
func (p *Pool) Close() error {
	p.mu.Lock()
	n := len(p.pending)
	p.pending = nil
	p.mu.Unlock()

	if n == 0 {
		return nil
	}
	return fmt.Errorf("clc: encountered %d unreceived send operations", n)
}
