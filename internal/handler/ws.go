package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gwtrade/tradepost/internal/domain"
	"github.com/gwtrade/tradepost/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 16
)

// wsMessage is the envelope for every server push.
type wsMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsClient is one connected observer. Broadcasts are queued on a
// buffered channel; a client that can't keep up loses updates rather
// than blocking the core; the next rebuild resends the full map
// anyway.
type wsClient struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// PushAvailableOrders implements service.Observer. A broadcast may
// still hold this client after it unsubscribed, so the queue is only
// touched while the teardown lock confirms it is open.
func (c *wsClient) PushAvailableOrders(counts map[string]domain.OrderCounts) {
	msg, err := json.Marshal(wsMessage{
		Event: "GetAvailableOrders",
		Data:  buildCountsMapResponse(counts),
	})
	if err != nil {
		c.logger.Error("marshal counts push", slog.String("error", err.Error()))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// shutdown closes the outbound queue exactly once, stopping writePump.
func (c *wsClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WSHandler upgrades connections into counts-push observers.
type WSHandler struct {
	core     *service.MarketplaceCore
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(core *service.MarketplaceCore, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		core: core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Serve handles GET /ws. Each connection is subscribed for the
// lifetime of the socket and immediately receives the current counts.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		logger: h.logger,
	}
	h.core.Subscribe(client)
	client.PushAvailableOrders(h.core.GetAvailableOrders())

	go client.writePump()

	// Read loop: clients send nothing we act on; it exists to detect
	// disconnects and answer pings.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.core.Unsubscribe(client)
	client.shutdown()
}
