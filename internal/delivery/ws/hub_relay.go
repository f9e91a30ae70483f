package ws

import (
	"encoding/json"
	"fmt"

	"github.com/mmuslimabdulj/meetup-signal/internal/bus"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

// relay forwards offer/answer/ice-candidate to one co-member of the sender's
// room. Anything that does not resolve is dropped without telling the sender.
func (h *Hub) relay(typ domain.MessageType, action string) handlerFunc {
	return func(s *session, payload json.RawMessage) error {
		room, err := h.currentRoom(s)
		if err != nil {
			return err
		}
		if err := h.limiter.Check(s.id, action); err != nil {
			return err
		}
		fields, to, err := usecase.SignalTarget(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", typ, errMalformed)
		}

		route, ok := usecase.ResolveSignalRoute(room, s.id, to)
		if !ok {
			h.relayRemote(room, s, typ, fields, to)
			return nil
		}
		target, ok := h.sessions[route.Target.ConnectionID]
		if !ok {
			return nil
		}

		tagged, err := usecase.TagSignal(fields, route.Sender)
		if err != nil {
			return fmt.Errorf("%s: %w", typ, errMalformed)
		}
		h.deliver(target, h.newFrame(typ, s.id, tagged))
		return nil
	}
}

// relayRemote hands a signal to the bus when its target may live on another
// process. The receiving node re-checks that the target sits in the same room.
func (h *Hub) relayRemote(room *usecase.Room, s *session, typ domain.MessageType, fields map[string]json.RawMessage, to string) {
	if h.bus == nil || to == "" || to == s.id {
		return
	}
	if _, local := h.sessions[to]; local {
		return
	}
	sender, ok := room.Participant(s.id)
	if !ok {
		return
	}
	tagged, err := usecase.TagSignal(fields, sender)
	if err != nil {
		return
	}
	h.publish(bus.Envelope{Room: room.ID, Target: to, Data: h.newFrame(typ, s.id, tagged)})
}

// handleMediaStatus merges a partial flag update and tells the rest of the
// room. A screen-share flip also emits the matching start/stop event.
func (h *Hub) handleMediaStatus(s *session, payload json.RawMessage) error {
	room, err := h.currentRoom(s)
	if err != nil {
		return err
	}
	var update domain.MediaStatusPayload
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("media status: %w", errMalformed)
	}

	before, ok := room.Participant(s.id)
	if !ok {
		return domain.ErrNotInRoom
	}
	after, ok := room.UpdateParticipantStatus(s.id, update)
	if !ok {
		return domain.ErrNotInRoom
	}

	h.broadcastRoom(room, s.id, h.newFrame(domain.MessageTypeMediaStatus, s.id, domain.MediaStatusChangedPayload{
		UserID:     s.id,
		MediaFlags: after.Flags,
	}))

	if before.Flags.ScreenShareOn != after.Flags.ScreenShareOn {
		typ := domain.MessageTypeScreenShareStopped
		if after.Flags.ScreenShareOn {
			typ = domain.MessageTypeScreenShareStarted
		}
		h.broadcastRoom(room, s.id, h.newFrame(typ, s.id, domain.ScreenSharePayload{UserID: s.id, Name: after.Name}))
	}
	return nil
}

// handleChat appends to the room log and echoes to everyone, sender included
func (h *Hub) handleChat(s *session, payload json.RawMessage) error {
	room, err := h.currentRoom(s)
	if err != nil {
		return err
	}
	if err := h.limiter.Check(s.id, domain.ActionChat); err != nil {
		return err
	}
	var req domain.ChatPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("chat: %w", errMalformed)
	}

	sender, ok := room.Participant(s.id)
	if !ok {
		return domain.ErrNotInRoom
	}
	if err := usecase.ValidateChat(&req, room.ID, sender.Name); err != nil {
		return err
	}

	msg := room.AppendMessage(sender.Name, req.Message)
	h.broadcastRoom(room, "", h.newFrame(domain.MessageTypeChat, s.id, msg))
	return nil
}

func (h *Hub) handlePing(s *session, _ json.RawMessage) error {
	h.deliver(s, h.newFrame(domain.MessageTypePong, "", domain.PongPayload{Timestamp: h.now().UnixMilli()}))
	return nil
}
