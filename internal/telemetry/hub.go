// Package telemetry implements component H: a best-effort websocket
// fan-out of completed LayerMetrics, for a live dashboard or logging
// tap to observe. It is explicitly NOT a GUI — it is a data-plane
// broadcaster, the same role the teacher's broadcast.Server played for
// order-book snapshots, repurposed here to stream adhesion metrics
// instead. Adapted from that Hub/Client pattern: one hub goroutine owns
// the client set, each client has its own buffered outbound queue, and
// a slow client is disconnected rather than allowed to stall the hub.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"adhesion-metrics/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	clientSendBuffer = 32
	writeTimeout     = 5 * time.Second
)

// client wraps one websocket connection with its own outbound queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out encoded LayerMetrics frames to every connected client.
// Broadcast never blocks on a slow client: a client whose queue is full
// is disconnected.
type Hub struct {
	log *logrus.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

// NewHub constructs a Hub and starts its run loop.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		log:        log,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
	}
	go h.run()
	return h
}

// Publish encodes m and fans it out to every connected client.
func (h *Hub) Publish(m model.LayerMetrics) {
	h.broadcast <- encodeMetrics(m)
}

// ServeHTTP upgrades the connection and registers it as a client until
// it disconnects or is dropped for being slow.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("telemetry: websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case frame := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					go func(c *client) { h.unregister <- c }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			h.unregister <- c
			return
		}
	}
}

// readPump drains and discards inbound messages purely to detect
// disconnects promptly (clients never send us anything meaningful).
func (h *Hub) readPump(c *client) {
	defer func() { h.unregister <- c }()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
