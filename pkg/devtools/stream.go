package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vstore/pkg/store"
)

// FrameType identifies a stream frame.
type FrameType string

const (
	FrameTransition FrameType = "transition"
	FrameDestroy    FrameType = "destroy"
)

// Frame is sent to stream clients as one JSON text message.
type Frame struct {
	Type  FrameType `json:"type"`
	Store string    `json:"store"`
	Next  string    `json:"next"`
	Prev  string    `json:"prev"`
	At    time.Time `json:"at"`
}

const writeWait = 5 * time.Second

// client is one WebSocket connection. Frames are written by a single writer
// goroutine draining send.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

// writeLoop writes queued frames until send is closed, then closes the
// connection.
func (c *client) writeLoop() {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// hub fans one store's transitions out to its stream clients. It holds a
// store subscription only while at least one client is connected.
type hub struct {
	entry  *entry
	buffer int
	now    func() time.Time
	logger *slog.Logger

	mu          sync.Mutex
	clients     map[*client]struct{}
	unsubscribe store.Unsubscribe
	closed      bool
}

func newHub(e *entry, buffer int, now func() time.Time, logger *slog.Logger) *hub {
	return &hub{
		entry:   e,
		buffer:  buffer,
		now:     now,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serve upgrades the request and streams frames until the client goes away.
func (h *hub) serve(w http.ResponseWriter, req *http.Request) error {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, h.buffer)}
	if !h.add(c) {
		c.stop()
		c.writeLoop()
		return nil
	}
	go c.writeLoop()

	// Reads only detect the close; clients have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	return nil
}

// add registers c, subscribing to the store for the first client.
func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.unsubscribe == nil {
		h.unsubscribe = h.entry.listen(h.transition)
	}
	h.logger.Debug("devtools stream opened", "store", h.entry.name, "clients", len(h.clients))
	return true
}

// remove drops c, unsubscribing after the last client.
func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	var unsubscribe store.Unsubscribe
	if len(h.clients) == 0 {
		unsubscribe, h.unsubscribe = h.unsubscribe, nil
	}
	h.mu.Unlock()

	c.stop()
	if unsubscribe != nil {
		unsubscribe()
	}
	if ok {
		h.logger.Debug("devtools stream closed", "store", h.entry.name)
	}
}

// transition is the store listener.
func (h *hub) transition(next, prev string) {
	h.broadcast(Frame{
		Type:  FrameTransition,
		Store: h.entry.name,
		Next:  next,
		Prev:  prev,
		At:    h.now(),
	})
}

// broadcast queues f for every client. Clients whose queue is full are
// dropped.
func (h *hub) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("devtools stream client too slow, dropping", "store", h.entry.name)
		h.remove(c)
	}
}

// destroyed tells clients the store was destroyed and disconnects them.
// Destroy has already removed the hub's subscription.
func (h *hub) destroyed() {
	h.broadcast(Frame{Type: FrameDestroy, Store: h.entry.name, At: h.now()})
	h.disconnect()
}

// close disconnects every client and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.disconnect()
}

func (h *hub) disconnect() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	for c := range clients {
		c.stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

// ClientCount returns the number of connected stream clients for a store.
func (r *Registry) ClientCount(name string) int {
	e := r.lookup(name)
	if e == nil {
		return 0
	}
	e.hub.mu.Lock()
	defer e.hub.mu.Unlock()
	return len(e.hub.clients)
}
