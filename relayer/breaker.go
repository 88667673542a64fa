package relayer

import "sync"

// BreakerKind distinguishes a transient signal (an operator should look
// into it, but tasks may resume after a cooldown) from a fatal one (the
// supervisor should not attempt to restart the affected task).
type BreakerKind int

const (
	BreakerTransient BreakerKind = iota
	BreakerFatal
)

func (k BreakerKind) String() string {
	if k == BreakerFatal {
		return "fatal"
	}
	return "transient"
}

// CircuitBreakerEvent is the payload carried on the breaker bus.
type CircuitBreakerEvent struct {
	Kind   BreakerKind
	Source string
	Reason string
}

// Breaker is the circuit-breaker bus: a one-producer, many-subscriber
// typed fan-out every watcher and handler task selects against on each
// iteration of its main loop, so a halt signal raised anywhere stops
// the whole pipeline instead of one task quietly flipping a flag.
type Breaker struct {
	mu   sync.Mutex
	subs map[chan CircuitBreakerEvent]struct{}
}

// NewBreaker returns an empty breaker bus.
func NewBreaker() *Breaker {
	return &Breaker{subs: make(map[chan CircuitBreakerEvent]struct{})}
}

// Subscribe registers a new listener and returns its receive-only
// channel. Callers must Unsubscribe when done to avoid leaking the
// channel; Publish never blocks on a subscriber that stopped reading.
func (b *Breaker) Subscribe() <-chan CircuitBreakerEvent {
	ch := make(chan CircuitBreakerEvent, 4)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a listener's channel.
func (b *Breaker) Unsubscribe(ch <-chan CircuitBreakerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.subs {
		if c == ch {
			delete(b.subs, c)
			close(c)
			return
		}
	}
}

// Publish fans ev out to every current subscriber. A slow subscriber
// never blocks the publisher or its peers: the send is best-effort per
// channel, since a breaker signal that's missed by one iteration will
// still be observed on the next select.
func (b *Breaker) Publish(ev CircuitBreakerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.subs {
		select {
		case c <- ev:
		default:
		}
	}
}
