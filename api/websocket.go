package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/healthscatter/internal/chart"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs browser origins
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Message types on the hover channel.
const (
	MsgEnter   = "enter"   // client → server: pointer entered a mark
	MsgLeave   = "leave"   // client → server: pointer left a mark
	MsgPing    = "ping"    // client → server
	MsgPong    = "pong"    // server → client
	MsgTooltip = "tooltip" // server → all clients: new tooltip state
	MsgError   = "error"   // server → client
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// wsInbound is a client message with its payload left raw.
type wsInbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HoverEvent is the payload of enter and leave messages.
type HoverEvent struct {
	Mark  string `json:"mark"` // "circle" (default) or "text"
	Index int    `json:"index"`
}

// ============================================================
// Hub
// ============================================================

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	direct     chan directMsg
	done       chan struct{}
}

// directMsg is a message for a single client.
type directMsg struct {
	client *WSClient
	msg    WSMessage
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		direct:     make(chan directMsg, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub event loop and returns when ctx is done, closing
// every client.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case d := <-h.direct:
			h.mu.RLock()
			if _, ok := h.clients[d.client]; ok {
				select {
				case d.client.send <- d.msg:
				default:
				}
			}
			h.mu.RUnlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// Send queues msg for one client. It is dropped if the client is no longer
// registered or the hub has stopped.
func (h *WSHub) Send(client *WSClient, msg WSMessage) {
	select {
	case h.direct <- directMsg{client: client, msg: msg}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ============================================================
// Connection handling
// ============================================================

// handleWebSocket upgrades HTTP connections to WebSocket. Clients report
// hover events; the resulting tooltip state is broadcast to every client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}
	s.wsHub.Register(client)

	go wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "err", err)
			}
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgEnter, MsgLeave:
			st, err := s.hoverEvent(msg)
			if err != nil {
				client.hub.Send(client, WSMessage{Type: MsgError, Data: err.Error()})
				continue
			}
			s.wsHub.Broadcast(WSMessage{Type: MsgTooltip, Data: st})
		case MsgPing:
			client.hub.Send(client, WSMessage{Type: MsgPong})
		}
	}
}

// hoverEvent applies an enter/leave message to the shared tracker.
func (s *Server) hoverEvent(msg wsInbound) (chart.TooltipState, error) {
	var ev HoverEvent
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return chart.TooltipState{}, err
		}
	}
	kind, err := chart.ParseMarkKind(ev.Mark)
	if err != nil {
		return chart.TooltipState{}, err
	}
	tr, err := s.tracker()
	if err != nil {
		return chart.TooltipState{}, err
	}
	if msg.Type == MsgEnter {
		return tr.Enter(kind, ev.Index)
	}
	return tr.Leave(kind, ev.Index)
}

// tracker returns the hover tracker for the current scene, starting a
// fresh one when the scene was reloaded.
func (s *Server) tracker() (*chart.HoverTracker, error) {
	sc, err := s.scene()
	if err != nil {
		return nil, err
	}
	s.hoverMu.Lock()
	defer s.hoverMu.Unlock()
	if s.hover == nil || s.hoverScene != sc {
		s.hover = chart.NewHoverTracker(sc)
		s.hoverScene = sc
	}
	return s.hover, nil
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
