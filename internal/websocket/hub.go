package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// AnonymousDealershipID marks calculator-only connections made without a token
const AnonymousDealershipID int32 = 0

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	DealershipID() int32
	Send(data []byte) error
	Close() error
}

// Hub tracks socket connections. Authenticated clients are grouped by dealership and
// receive that dealership's quote events; anonymous clients are tracked but never
// receive broadcasts. It is safe for concurrent use.
type Hub struct {
	dealerships map[int32]map[string]ClientInterface
	anonymous   map[string]ClientInterface
	mu          sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		dealerships: make(map[int32]map[string]ClientInterface),
		anonymous:   make(map[string]ClientInterface),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dealershipID := client.DealershipID()
	if dealershipID == AnonymousDealershipID {
		h.anonymous[client.ID()] = client
	} else {
		if h.dealerships[dealershipID] == nil {
			h.dealerships[dealershipID] = make(map[string]ClientInterface)
		}
		h.dealerships[dealershipID][client.ID()] = client
	}

	log.Debug().
		Int32("dealership_id", dealershipID).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub; unknown clients are ignored
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dealershipID := client.DealershipID()
	clientID := client.ID()

	if dealershipID == AnonymousDealershipID {
		if _, exists := h.anonymous[clientID]; exists {
			delete(h.anonymous, clientID)
			log.Debug().Str("client_id", clientID).Msg("Anonymous WebSocket client unregistered")
		}
		return
	}

	clients, ok := h.dealerships[dealershipID]
	if !ok {
		return
	}
	if _, exists := clients[clientID]; !exists {
		return
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.dealerships, dealershipID)
	}

	log.Debug().
		Int32("dealership_id", dealershipID).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
}

// Broadcast sends an event to all clients of a dealership
func (h *Hub) Broadcast(dealershipID int32, event Event) {
	if dealershipID == AnonymousDealershipID {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("dealership_id", dealershipID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients := make([]ClientInterface, 0, len(h.dealerships[dealershipID]))
	for _, client := range h.dealerships[dealershipID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	for _, client := range clients {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("dealership_id", dealershipID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int32("dealership_id", dealershipID).
		Str("event_type", event.Type).
		Int("client_count", len(clients)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected for a dealership
func (h *Hub) ClientCount(dealershipID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if dealershipID == AnonymousDealershipID {
		return len(h.anonymous)
	}
	return len(h.dealerships[dealershipID])
}

// TotalClientCount returns the number of connected clients, anonymous ones included
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := len(h.anonymous)
	for _, clients := range h.dealerships {
		total += len(clients)
	}
	return total
}

// CloseAll closes every connection, used on server shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]ClientInterface, 0, len(h.anonymous))
	for _, client := range h.anonymous {
		clients = append(clients, client)
	}
	for _, group := range h.dealerships {
		for _, client := range group {
			clients = append(clients, client)
		}
	}
	h.dealerships = make(map[int32]map[string]ClientInterface)
	h.anonymous = make(map[string]ClientInterface)
	h.mu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
}
