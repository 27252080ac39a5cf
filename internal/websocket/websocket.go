package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/discround/internal/logger"
	"github.com/abrezinsky/discround/internal/metrics"
	"github.com/abrezinsky/discround/internal/models"
	"github.com/abrezinsky/discround/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// EventSnapshot is sent to a client right after it subscribes
	EventSnapshot = "session_snapshot"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are restricted by the CORS layer for API calls; sockets carry a token
	},
}

// Hub fans out session change notifications to the clients subscribed to each session
type Hub struct {
	log        logger.Logger
	sessions   services.SessionServicer
	clients    map[string]map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan models.WSMessage
}

// New creates a new Hub. sessions supplies the snapshot sent on subscribe.
func New(log logger.Logger, sessions services.SessionServicer) *Hub {
	return &Hub{
		log:        log,
		sessions:   sessions,
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan models.WSMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// Stop ends the main loop and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for sessionID, set := range h.clients {
				for client := range set {
					close(client.send)
					metrics.WebSocketClients.Dec()
				}
				delete(h.clients, sessionID)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			set := h.clients[client.sessionID]
			if set == nil {
				set = make(map[*Client]bool)
				h.clients[client.sessionID] = set
			}
			set[client] = true
			h.mutex.Unlock()
			metrics.WebSocketClients.Inc()
			h.log.Debug("Client subscribed", "session_id", client.sessionID, "session_clients", len(set))

			go h.sendSnapshot(client)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients[message.SessionID] {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						select {
						case h.unregister <- c:
						case <-h.done:
						}
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set, ok := h.clients[client.sessionID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.sessionID)
	}
	close(client.send)
	metrics.WebSocketClients.Dec()
	h.log.Debug("Client unsubscribed", "session_id", client.sessionID)
}

// sendSnapshot delivers the current session state to a new subscriber
func (h *Hub) sendSnapshot(client *Client) {
	if h.sessions == nil {
		return
	}
	session, err := h.sessions.GetStatus(context.Background(), client.sessionID)
	if err != nil {
		h.log.Debug("Snapshot unavailable", "session_id", client.sessionID, "error", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[client.sessionID][client] {
		return
	}
	select {
	case client.send <- models.WSMessage{Type: EventSnapshot, SessionID: client.sessionID, Payload: session}:
	default:
	}
}

// SessionChanged implements services.Broadcaster. It never blocks the caller;
// notifications are dropped when the hub is stopped or backed up.
func (h *Hub) SessionChanged(sessionID, event string, payload interface{}) {
	msg := models.WSMessage{Type: event, SessionID: sessionID, Payload: payload}
	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		h.log.Warn("Dropping session notification", "session_id", sessionID, "event", event)
	}
}

// ClientCount returns the number of clients subscribed to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[sessionID])
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msgBytes, err := json.Marshal(message)
			if err != nil {
				c.hub.log.Error("Failed to encode notification", "type", message.Type, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and subscribes it to sessionID.
// Callers are expected to have checked access to the session.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan models.WSMessage, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
