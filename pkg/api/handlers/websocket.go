package handlers

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Lifecycle event types
const (
	EventClusterCreated    = "cluster_created"
	EventClusterDetached   = "cluster_detached"
	EventKubeconfigChanged = "kubeconfig_changed"
)

// Message is one event pushed to websocket clients
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one websocket subscriber
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans lifecycle events out to every connected client
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations until Close
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			klog.V(2).Infof("[WS] client connected: %s", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			klog.V(2).Infof("[WS] client disconnected: %s", client.id)

		case <-h.done:
			return
		}
	}
}

// Close stops the hub. Client writers stop with it.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends msg to every connected client. Clients with a full
// buffer miss the message.
func (h *Hub) BroadcastAll(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		klog.Errorf("[WS] marshal %s: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// HandleConnection registers conn and serves it until it closes
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	if err := conn.WriteJSON(Message{Type: "connected", Data: map[string]string{"id": client.id}}); err != nil {
		klog.V(2).Infof("[WS] greet %s: %v", client.id, err)
	}

	go func() {
		defer conn.Close()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					klog.V(2).Infof("[WS] write %s: %v", client.id, err)
					return
				}
			case <-h.done:
				return
			}
		}
	}()

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				klog.Errorf("[WS] read %s: %v", client.id, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			select {
			case client.send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}
