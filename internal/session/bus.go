package session

import (
	"sync"
)

// Signal is published when server rejected request as unauthenticated
type Signal struct {
	Status  int
	Message string
}

// Bus delivers signals to all subscribers. Publisher never blocks:
// subscriber that did not read the previous signal misses the next one
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Signal
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Signal)}
}

// Subscribe returns channel with signals and function to unsubscribe
func (b *Bus) Subscribe() (<-chan Signal, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Signal, 1)
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}

	return ch, unsubscribe
}

// Publish returns number of subscribers the signal was delivered to
func (b *Bus) Publish(sig Signal) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sent := 0
	for _, ch := range b.subs {
		select {
		case ch <- sig:
			sent++
		default:
		}
	}
	return sent
}
