// broadcast/broadcast.go
package broadcast

import (
	"fmt"
	"sync"
	"time"
)

// Kind classifies an update for the presentation layer.
type Kind string

const (
	KindView         Kind = "view"    // view state changed, re-render
	KindInfo         Kind = "info"    // transient notice
	KindWarning      Kind = "warning" // rejected local action
	KindError        Kind = "error"   // server error message
	KindTurn         Kind = "turn"
	KindLog          Kind = "log"
	KindMatchEnded   Kind = "match_ended"
	KindDefense      Kind = "defense" // defense prompt armed or cleared
	KindAuthRequired Kind = "auth_required"
	KindConnection   Kind = "connection"
)

type Update struct {
	Kind    Kind
	Message string
	Time    time.Time
}

// 广播接口
type Broadcaster interface {
	Publish(u Update)
}

// Hub fans updates out to subscribers. Publish never blocks: a subscriber whose buffer is
// full misses the update.
type Hub struct {
	subscribers map[int]chan Update
	nextID      int
	dropped     int64
	closed      bool
	mutex       sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int]chan Update),
	}
}

// Subscribe returns a channel of updates and a function that unsubscribes and closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Update, func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	ch := make(chan Update, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mutex.Lock()
			defer h.mutex.Unlock()
			if sub, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(sub)
			}
		})
	}
}

func (h *Hub) Publish(u Update) {
	if u.Time.IsZero() {
		u.Time = time.Now()
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- u:
		default:
			h.dropped++
		}
	}
}

// Notify publishes a formatted update.
func (h *Hub) Notify(kind Kind, format string, args ...interface{}) {
	h.Publish(Update{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Dropped counts updates lost to full subscriber buffers.
func (h *Hub) Dropped() int64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.dropped
}

// Close closes every subscriber channel; later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
