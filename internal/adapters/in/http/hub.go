package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"partner/internal/core/ports"
	"partner/internal/pkg/eventbus"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Topics the hub emits on its own, besides the forwarded bus events.
const (
	TopicMarker       = "marker"
	TopicMarkerAttach = "marker-attach"
)

// Messages surfaces send back over the socket.
const (
	msgMarkerAttached = "marker-attached"
	msgMarkerDetached = "marker-detached"
)

const (
	clientBuffer = 32
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxInbound   = 1024
)

var ErrMarkerDetached = errors.New("marker is not attached to any surface")

type inbound struct {
	Type string `json:"type"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast events out to every connected websocket and hosts the
// partner's map marker. A surface reports marker-detached when it re-creates its
// map; the marker then stays detached until Attach.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu       sync.RWMutex
	clients  map[*client]struct{}
	attached bool
	marker   *ports.Marker
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws_hub"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now:      time.Now,
		clients:  make(map[*client]struct{}),
		attached: true,
	}
}

// Run forwards bus events to every client until ctx is done or events closes.
func (h *Hub) Run(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) IsAttached() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.attached
}

// Attach re-creates the marker and asks every surface to draw it.
func (h *Hub) Attach() error {
	h.mu.Lock()
	h.attached = true
	h.mu.Unlock()
	h.broadcast(eventbus.Event{Topic: TopicMarkerAttach, At: h.now()})
	return nil
}

// Update redraws the marker on every surface.
func (h *Hub) Update(m ports.Marker) error {
	h.mu.Lock()
	if !h.attached {
		h.mu.Unlock()
		return ErrMarkerDetached
	}
	h.marker = &m
	h.mu.Unlock()
	h.broadcast(eventbus.Event{Topic: TopicMarker, Payload: m, At: h.now()})
	return nil
}

// Clients is the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Handle upgrades GET /ws. A new client first receives the current marker, then
// every event broadcast after it connected.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	cl := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if h.marker != nil && h.attached {
		if b, err := json.Marshal(eventbus.Event{Topic: TopicMarker, Payload: *h.marker, At: h.now()}); err == nil {
			cl.send <- b
		}
	}
	h.mu.Unlock()
	h.logger.Info("surface connected", "remote", c.RealIP())

	go h.writePump(cl)
	h.readPump(cl)

	h.remove(cl)
	h.logger.Info("surface disconnected", "remote", c.RealIP())
	return nil
}

func (h *Hub) readPump(cl *client) {
	defer cl.conn.Close()

	cl.conn.SetReadLimit(maxInbound)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		switch msg.Type {
		case msgMarkerDetached:
			h.mu.Lock()
			h.attached = false
			h.mu.Unlock()
			h.logger.Info("surface dropped the marker")
		case msgMarkerAttached:
			h.logger.Debug("surface drew the marker")
		default:
			h.logger.Debug("ignoring websocket message", "type", msg.Type)
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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

// broadcast drops clients whose buffer is full; they reconnect and start over.
func (h *Hub) broadcast(ev eventbus.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("encoding event failed", "topic", ev.Topic, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- b:
		default:
			h.logger.Warn("surface is too slow, disconnecting")
			delete(h.clients, cl)
			close(cl.send)
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}
