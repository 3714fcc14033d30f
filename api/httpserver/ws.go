package httpserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voltex/domain/auction"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans every domain event out to connected websocket subscribers.
// It satisfies engine.Sink, so it can be wired straight into the
// engine's fan-out alongside kafka and the outbox.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan []byte)}
}

// Publish encodes the event once and hands it to every subscriber. A
// subscriber whose buffer is full misses the event rather than slowing
// the engine down.
func (h *Hub) Publish(ev auction.Event) {
	payload, err := auction.Encode(ev)
	if err != nil {
		log.Printf("[ws] encode %s failed: %v", ev.EventType(), err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *Hub) subscribe() (string, chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	id, events := h.subscribe()
	defer h.unsubscribe(id)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case payload := <-events:
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			case <-done:
				return
			}
		}
	}()

	// The feed is one-way; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(done)
}
