package copilot

import "sync"

const subscriberBuffer = 64

type subscriber struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// registry fans session events out to subscribers. Deltas are dropped for a
// slow subscriber; terminal events wait until delivered or cancelled.
type registry struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newRegistry() *registry {
	return &registry{subs: make(map[*subscriber]struct{})}
}

func (r *registry) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() { close(sub.done) })

		r.mu.Lock()
		delete(r.subs, sub)
		r.mu.Unlock()

		for {
			select {
			case <-sub.ch:
			default:
				return
			}
		}
	}
	return sub.ch, cancel
}

func (r *registry) Notify(e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sub := range r.subs {
		if !e.Terminal() {
			select {
			case sub.ch <- e:
			case <-sub.done:
			default:
			}
			continue
		}
		select {
		case sub.ch <- e:
		case <-sub.done:
		}
	}
}
