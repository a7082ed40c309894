package host

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"broadcast-orchestrator/internal/broadcast"
	"broadcast-orchestrator/internal/platform/metrics"

	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 64
	writeWait        = 5 * time.Second
)

// Message is the wire format of the event stream.
type Message struct {
	Type  string          `json:"type"`
	Event broadcast.Event `json:"event"`
	At    time.Time       `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// Hub fans controller events out to websocket clients. Slow clients are
// disconnected rather than blocking the controller.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewHub returns a Hub with no clients. Metrics may be nil.
func NewHub(log *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log,
		metrics: m,
	}
}

// Register installs the hub as the handler of every event kind on sink.
func (h *Hub) Register(sink *broadcast.EventSink) {
	for _, kind := range broadcast.EventKinds {
		sink.On(kind, h.Publish)
	}
}

// Publish sends e to every connected client.
func (h *Hub) Publish(e broadcast.Event) {
	data, err := json.Marshal(Message{Type: "event", Event: e, At: time.Now().UTC()})
	if err != nil {
		h.log.Error("event marshal failed", slog.String("kind", string(e.Kind)), slog.String("error", err.Error()))
		return
	}

	// Sends happen under the read lock so remove cannot close a channel mid-send.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("event client too slow, disconnecting")
		h.remove(c)
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(conn)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.setClientGauge(n)
	h.log.Info("event client connected", slog.String("remote", r.RemoteAddr))

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.log.Info("event client disconnected", slog.String("remote", r.RemoteAddr))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.setClientGauge(0)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.setClientGauge(n)
	}
}

func (h *Hub) setClientGauge(n int) {
	if h.metrics != nil {
		h.metrics.SetEventClients(n)
	}
}
