package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"mundotango/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub tracks the connections of every user on this instance.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID, enforcing the per-user and global caps.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	observability.ActiveWebSockets.Inc()
	return client, nil
}

// Unregister removes client. Removing an unknown client is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	h.total--
	observability.ActiveWebSockets.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// SendToUser queues message on every connection of userID.
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(message)
	}
}

// SendToAll queues message on every connection.
func (h *Hub) SendToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// IsOnline reports whether userID has a connection on this instance.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Deliver routes a pub/sub message to local connections by channel name.
func (h *Hub) Deliver(channel, payload string) {
	if channel == BroadcastChannel {
		h.SendToAll([]byte(payload))
		return
	}
	userID, ok := parseUserChannel(channel)
	if !ok {
		observability.Logger.Warn("invalid notification channel", slog.String("channel", channel))
		return
	}
	h.SendToUser(userID, []byte(payload))
}

// Shutdown sends a close frame to every connection and forgets them.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for c := range clients {
			if c.Conn == nil {
				continue
			}
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = c.Conn.Close()
		}
	}
	observability.ActiveWebSockets.Sub(float64(h.total))
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}

func parseUserChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
