package notify

import (
	"log"
	"sync"
)

// Observer is invoked whenever appointment data changes.
type Observer func()

// Broadcaster is a process-wide fan-out point for "something changed"
// signals. It is constructed once at startup and injected into the stores;
// open views (or, server-side, anything that caches appointment data)
// subscribe to it.
type Broadcaster struct {
	mu        sync.Mutex
	observers []Observer
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers an observer. There is no way to unsubscribe; the
// registry lives for the life of the process.
func (b *Broadcaster) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Notify invokes every observer synchronously, in registration order.
// Concurrent Notify calls are serialized so observers need not be
// reentrancy-safe, and a panicking observer does not prevent delivery to
// the observers registered after it.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.observers {
		deliver(o)
	}
}

func deliver(o Observer) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: observer panicked: %v", r)
		}
	}()
	o()
}
