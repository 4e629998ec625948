// Package hub pushes board invalidations to connected clients over
// websockets. Clients react by fetching the board again.
package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"strello/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

const TypeInvalidate = "invalidate"

// Message is what the hub sends to clients.
type Message struct {
	Type    string    `json:"type"`
	BoardID uuid.UUID `json:"board_id"`
}

type client struct {
	board uuid.UUID
	conn  *websocket.Conn
	send  chan Message
}

type Hub struct {
	mu       sync.Mutex
	boards   map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
	log      *log.Entry
}

func New() *Hub {
	return &Hub{
		boards: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.WithField("component", "hub"),
	}
}

// Serve upgrades the request and streams the board's invalidations until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, boardID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{board: boardID, conn: conn, send: make(chan Message, sendBuffer)}
	h.register(c)
	h.log.WithField("board_id", boardID).Debug("subscriber connected")

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.unregister(c)
	close(done)
	h.log.WithField("board_id", boardID).Debug("subscriber disconnected")
	return nil
}

// BoardChanged tells every subscriber of a board to fetch it again. A
// subscriber whose buffer is full already has an invalidation queued and
// is skipped.
func (h *Hub) BoardChanged(ctx context.Context, boardID uuid.UUID) {
	msg := Message{Type: TypeInvalidate, BoardID: boardID}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.boards[boardID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Subscribers returns the number of open streams for a board.
func (h *Hub) Subscribers(boardID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.boards[boardID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.boards {
		for c := range clients {
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.boards[c.board]
	if !ok {
		clients = make(map[*client]struct{})
		h.boards[c.board] = clients
	}
	clients[c] = struct{}{}
	metrics.EventSubscribers.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.boards[c.board]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.boards, c.board)
	}
	metrics.EventSubscribers.Dec()
}

// readLoop discards client messages and returns once the connection fails.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Debug("subscriber read failed")
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
