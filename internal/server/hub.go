package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cleared-dev/finboard/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Callers authenticate with a bearer token, not cookies, so a foreign
	// origin gains nothing.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message is what WebSocket clients receive.
type Message struct {
	Type    string       `json:"type"`
	Payload events.Event `json:"payload"`
}

// Hub streams each user's change events to their open WebSocket
// connections.
type Hub struct {
	bus    *events.Bus
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	hub         *Hub
	conn        *websocket.Conn
	user        string
	send        chan []byte
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

// NewHub returns a Hub fed by bus.
func NewHub(bus *events.Bus, logger *log.Logger) *Hub {
	return &Hub{bus: bus, logger: logger, clients: make(map[*client]struct{})}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()
	for _, cl := range clients {
		cl.close()
	}
}

// Serve upgrades the request and streams the session user's events until
// the connection drops.
func (h *Hub) Serve(c *gin.Context) {
	user := userOf(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user", user, "error", err)
		return
	}
	cl := &client{
		hub:  h,
		conn: conn,
		user: user,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	cl.unsubscribe = h.bus.Subscribe(user, cl.deliver)
	h.logger.Debug("websocket client connected", "user", user)

	go cl.writePump()
	go cl.readPump()
}

// deliver runs on the publishing goroutine, so it never blocks: a client
// whose buffer is full is disconnected.
func (cl *client) deliver(e events.Event) {
	msg, err := json.Marshal(Message{Type: "change", Payload: e})
	if err != nil {
		cl.hub.logger.Error("encoding event", "collection", e.Collection, "error", err)
		return
	}
	select {
	case <-cl.done:
	case cl.send <- msg:
	default:
		cl.hub.logger.Warn("websocket client too slow, disconnecting", "user", cl.user)
		cl.close()
	}
}

// close stops delivery; writePump sends the close frame and releases the
// connection.
func (cl *client) close() {
	cl.once.Do(func() {
		close(cl.done)
		if cl.unsubscribe != nil {
			cl.unsubscribe()
		}
		cl.hub.mu.Lock()
		delete(cl.hub.clients, cl)
		cl.hub.mu.Unlock()
		cl.hub.logger.Debug("websocket client disconnected", "user", cl.user)
	})
}

// readPump only watches for pongs and the close frame; the feed is one-way.
func (cl *client) readPump() {
	defer cl.close()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				cl.hub.logger.Warn("unexpected websocket close", "user", cl.user, "error", err)
			}
			return
		}
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.close()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case <-cl.done:
			_ = cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cl.hub.logger.Warn("websocket write failed", "user", cl.user, "error", err)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
