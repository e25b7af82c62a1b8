package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bthost-project/bthost-go/pkg/engine"
)

// writeTimeout bounds how long a slow websocket client may stall a
// broadcast before it is dropped.
const writeTimeout = 100 * time.Millisecond

// TransitionMessage is the JSON payload pushed to websocket clients for
// every committed state transition.
type TransitionMessage struct {
	Type      string `json:"type"`
	Device    string `json:"device"`
	Profile   string `json:"profile"`
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
}

// Hub pushes transitions to connected websocket clients. OnTransition
// only enqueues; a pump goroutine performs the actual writes, so engine
// actors are never blocked by slow clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	queue chan TransitionMessage
	done  chan struct{}
	once  sync.Once

	upgrader websocket.Upgrader
}

var _ engine.Notifier = (*Hub)(nil)

// NewHub creates a hub and starts its broadcast pump.
func NewHub() *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan TransitionMessage, 64),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	go h.pump()
	return h
}

// OnTransition implements engine.Notifier. Transitions are dropped when
// the queue is full rather than blocking the caller.
func (h *Hub) OnTransition(t engine.Transition) {
	msg := TransitionMessage{
		Type:      "connection_state",
		Device:    t.Device.String(),
		Profile:   t.Profile.String(),
		From:      t.From.String(),
		To:        t.To.String(),
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case h.queue <- msg:
	default:
	}
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.AddClient(conn)
}

// AddClient registers an established websocket connection.
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

// RemoveClient unregisters and closes a client connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the pump and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

func (h *Hub) pump() {
	for {
		select {
		case msg := <-h.queue:
			h.broadcast(msg)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) broadcast(msg TransitionMessage) {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	var (
		wg       sync.WaitGroup
		failedMu sync.Mutex
		failed   []*websocket.Conn
	)
	for _, conn := range clients {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			c.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WriteJSON(msg); err != nil {
				failedMu.Lock()
				failed = append(failed, c)
				failedMu.Unlock()
			}
		}(conn)
	}
	wg.Wait()

	for _, conn := range failed {
		h.RemoveClient(conn)
	}
}
