package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mmuslimabdulj/meetup-signal/internal/bus"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

// newFrame wraps payload in the outbound envelope. json.RawMessage payloads
// are embedded as they are.
func (h *Hub) newFrame(typ domain.MessageType, fromID string, payload any) []byte {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error("encode payload", "type", typ, "error", err)
			return nil
		}
	}

	data, err := json.Marshal(domain.Message{
		ID:        uuid.NewString(),
		Type:      typ,
		FromID:    fromID,
		Payload:   raw,
		CreatedAt: h.now(),
	})
	if err != nil {
		h.logger.Error("encode frame", "type", typ, "error", err)
		return nil
	}
	return data
}

// deliver queues a frame for one session. A client that cannot keep up is
// disconnected rather than allowed to stall the loop.
func (h *Hub) deliver(s *session, frame []byte) {
	if frame == nil {
		return
	}
	if !s.client.Send(frame) {
		h.logger.Warn("send buffer full, dropping connection", "conn", s.id)
		s.client.Close()
	}
}

// broadcastRoom delivers frame to every local participant except exclude
// and mirrors it to other processes
func (h *Hub) broadcastRoom(room *usecase.Room, exclude string, frame []byte) {
	if frame == nil {
		return
	}
	for _, p := range room.ListParticipants() {
		if p.ConnectionID == exclude {
			continue
		}
		if s, ok := h.sessions[p.ConnectionID]; ok {
			h.deliver(s, frame)
		}
	}
	h.publish(bus.Envelope{Room: room.ID, Exclude: exclude, Data: frame})
}

// notifyShutdown tells every local connection the server is going away.
// It is not mirrored: other processes stay up.
func (h *Hub) notifyShutdown(message string) {
	frame := h.newFrame(domain.MessageTypeServerShutdown, "", domain.NoticePayload{
		Message:   message,
		Timestamp: h.now(),
	})
	for _, s := range h.sessions {
		h.deliver(s, frame)
	}
}

// publish hands an envelope to the publisher goroutine without blocking the loop
func (h *Hub) publish(env bus.Envelope) {
	if h.bus == nil {
		return
	}
	env.Node = h.nodeID
	select {
	case h.outbox <- env:
	default:
		h.logger.Warn("bus outbox full, broadcast kept local", "room", env.Room)
	}
}

func (h *Hub) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-h.outbox:
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := h.bus.Publish(pctx, env); err != nil {
				h.logger.Warn("bus publish failed", "room", env.Room, "error", err)
			}
			cancel()
		}
	}
}

// receiveRemote runs on the bus goroutine and forwards foreign envelopes to the loop
func (h *Hub) receiveRemote(env bus.Envelope) {
	if env.Node == h.nodeID {
		return
	}
	select {
	case h.remote <- env:
	case <-h.done:
	}
}

// deliverRemote fans a frame from another process out to local sessions
func (h *Hub) deliverRemote(env bus.Envelope) {
	if env.Target != "" {
		if s, ok := h.sessions[env.Target]; ok && s.roomID == env.Room {
			h.deliver(s, env.Data)
		}
		return
	}
	for _, s := range h.sessions {
		if s.id == env.Exclude {
			continue
		}
		if env.Room == "" || s.roomID == env.Room {
			h.deliver(s, env.Data)
		}
	}
}
