package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/ikkim/bizmarket-backend/pkg/logger"
)

var (
	ErrHubBusy    = errors.New("websocket hub delivery queue full")
	ErrHubStopped = errors.New("websocket hub stopped")
)

type delivery struct {
	userID uint
	data   []byte
}

// Hub tracks live sessions per user and fans events out to all of them.
type Hub struct {
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	quit       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan delivery, 1024),
		quit:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.clients[client.UserID]
			if !ok {
				sessions = make(map[*Client]struct{})
				h.clients[client.UserID] = sessions
			}
			sessions[client] = struct{}{}
			total := len(sessions)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			var stale []*Client
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.data:
				default:
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stale {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}

		case <-h.quit:
			h.mu.Lock()
			for userID, sessions := range h.clients {
				for client := range sessions {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := sessions[client]; !ok {
		return
	}
	delete(sessions, client)
	close(client.send)
	if len(sessions) == 0 {
		delete(h.clients, client.UserID)
	}
	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(sessions),
	})
}

// SendToUser queues event for every live session of userID. Offline users
// are skipped silently.
func (h *Hub) SendToUser(userID uint, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}

	select {
	case h.deliver <- delivery{userID: userID, data: data}:
		return nil
	default:
		logger.Warn("Delivery queue full, event dropped", map[string]interface{}{
			"user_id": userID,
		})
		return ErrHubBusy
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop closes every session and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// SessionCount returns the number of live sessions of userID.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
