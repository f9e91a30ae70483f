package ws

import (
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// session is the hub's view of one connection. roomID is an id, never a
// room pointer, and is re-resolved through the registry on every use.
type session struct {
	id     string
	client *Client
	roomID string
	name   string
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return domain.ErrHubStopped
	}
}

// Unregister removes a client and its room membership. Calling it twice is harmless.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch queues a decoded client frame for the event loop. It reports
// false once the hub has stopped.
func (h *Hub) Dispatch(c *Client, msg domain.Incoming) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handleRegister(c *Client) {
	if _, exists := h.sessions[c.ID]; exists {
		h.logger.Warn("duplicate connection id", "conn", c.ID)
		close(c.send)
		c.Close()
		return
	}
	h.sessions[c.ID] = &session{id: c.ID, client: c}
	h.stats.Connected(h.now())
	h.logger.Debug("client connected", "conn", c.ID, "remote", c.RemoteAddr, "connections", h.stats.Current)
}

// handleUnregister leaves the current room synchronously so in-flight relays
// to this connection find no target afterwards.
func (h *Hub) handleUnregister(c *Client) {
	s, ok := h.sessions[c.ID]
	if !ok || s.client != c {
		return
	}
	h.leaveRoom(s)
	delete(h.sessions, c.ID)
	h.limiter.Forget(c.ID)
	h.stats.Disconnected()
	close(c.send)
	h.logger.Debug("client disconnected", "conn", c.ID, "connections", h.stats.Current)
}
