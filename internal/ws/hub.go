package ws

import (
	"encoding/json"
	"log"
	"sync"

	"hichat/internal/models"
)

// Event names pushed to clients.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Event is the JSON envelope for everything the server pushes.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub owns the connection registry and all admitted clients. Registry
// mutations are serialized on the Run loop; every mutation is followed by
// one presence broadcast. Deliver is called from HTTP handler goroutines
// after a message has been persisted.
type Hub struct {
	registry *Registry

	// mu guards clients. The run loop is the only writer.
	mu      sync.RWMutex
	clients map[string]*Client // connection id -> client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.registry.Register(client.userID, client.connID)
			h.broadcastOnlineUsers()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				close(client.send)
			}
			h.mu.Unlock()
			// A stale disconnect (user already reconnected) is not a
			// registry mutation and emits no broadcast.
			if h.registry.Unregister(client.userID, client.connID) {
				h.broadcastOnlineUsers()
			}
		}
	}
}

// broadcastOnlineUsers sends the full current online set to every admitted
// connection. No debouncing; connect/disconnect churn is low-frequency.
func (h *Hub) broadcastOnlineUsers() {
	payload, err := json.Marshal(Event{Event: EventOnlineUsers, Data: h.registry.OnlineUsers()})
	if err != nil {
		log.Printf("Error marshaling presence event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the event rather than block the hub.
		}
	}
}

// Deliver pushes a persisted message to the receiver's live connection, if
// any. Fire-and-forget: no retry, no error back to the sender — the REST
// response already confirmed persistence.
func (h *Hub) Deliver(msg *models.Message) {
	connID, ok := h.registry.Lookup(msg.ReceiverID)
	if !ok {
		return
	}

	payload, err := json.Marshal(Event{Event: EventNewMessage, Data: msg})
	if err != nil {
		log.Printf("Error marshaling message event: %v", err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
	}
}
