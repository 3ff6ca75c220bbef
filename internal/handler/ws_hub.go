package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for hub-generated WebSocket messages.
// Committed game events are forwarded raw, exactly as the services
// published them.
type WSEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	GameID string `json:"game_id"`
}

// WSConn wraps a WebSocket connection with its player and subscriptions.
type WSConn struct {
	conn     *websocket.Conn
	playerID string
	send     chan []byte
}

// EventFeed is the committed-event stream the services publish to.
// Fanning out through it keeps every server instance consistent.
type EventFeed interface {
	SubscribeGame(ctx context.Context, gameID string) *redis.PubSub
}

// Hub manages WebSocket connections and game-channel subscriptions.
// Each game with at least one subscriber holds one feed subscription;
// its messages are relayed to every subscribed connection.
type Hub struct {
	feed EventFeed // nil disables relaying, e.g. in tests

	mu          sync.RWMutex
	connections map[*WSConn]bool
	games       map[string]map[*WSConn]bool // gameID -> set of connections
	relays      map[string]*redis.PubSub    // gameID -> feed subscription
}

// NewHub creates a new Hub relaying events from the given feed.
func NewHub(feed EventFeed) *Hub {
	return &Hub{
		feed:        feed,
		connections: make(map[*WSConn]bool),
		games:       make(map[string]map[*WSConn]bool),
		relays:      make(map[string]*redis.PubSub),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for gameID, conns := range h.games {
		delete(conns, c)
		if len(conns) == 0 {
			h.dropGameLocked(gameID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a game channel. The first subscriber
// of a game opens the feed relay for it.
func (h *Hub) Subscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*WSConn]bool)
		if h.feed != nil {
			sub := h.feed.SubscribeGame(context.Background(), gameID)
			h.relays[gameID] = sub
			go h.relay(gameID, sub)
		}
	}
	h.games[gameID][c] = true
}

// Unsubscribe removes a connection from a game channel.
func (h *Hub) Unsubscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.games[gameID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			h.dropGameLocked(gameID)
		}
	}
}

// dropGameLocked tears down a game channel once its last subscriber is
// gone. Closing the feed subscription ends the relay goroutine.
func (h *Hub) dropGameLocked(gameID string) {
	delete(h.games, gameID)
	if sub, ok := h.relays[gameID]; ok {
		delete(h.relays, gameID)
		if err := sub.Close(); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to close game feed subscription")
		}
	}
}

// relay forwards committed events from the feed to the game's
// subscribers until the subscription is closed.
func (h *Hub) relay(gameID string, sub *redis.PubSub) {
	for msg := range sub.Channel() {
		h.BroadcastRaw(gameID, []byte(msg.Payload))
	}
}

// BroadcastRaw sends an already-encoded message to all connections
// subscribed to a game.
func (h *Hub) BroadcastRaw(gameID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.games[gameID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("playerId", c.playerID).Str("gameId", gameID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastToGame sends a hub-generated event to all connections
// subscribed to a game.
func (h *Hub) BroadcastToGame(gameID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal WebSocket event")
		return
	}
	h.BroadcastRaw(gameID, data)
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GameSubscriberCount returns the number of connections subscribed to a game.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}
