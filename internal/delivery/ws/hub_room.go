package ws

import (
	"encoding/json"
	"fmt"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

// handleJoin moves a session into a room. The joiner gets the roster as it
// stood just before its own insertion, then everyone else hears about it.
func (h *Hub) handleJoin(s *session, payload json.RawMessage) error {
	var req domain.JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("join: %w", errMalformed)
	}
	if err := h.limiter.Check(s.id, domain.ActionJoin); err != nil {
		return err
	}
	if err := usecase.ValidateJoin(&req); err != nil {
		return err
	}

	if s.roomID != "" {
		h.leaveRoom(s)
	}

	room, created := h.rooms.GetOrCreate(req.RoomID)
	existing := room.ListParticipants()

	err := room.AddParticipant(domain.Participant{
		ConnectionID: s.id,
		Name:         req.Name,
		Flags:        req.MediaFlags,
		JoinedAt:     h.now(),
	})
	if err != nil {
		return err
	}
	s.roomID = room.ID
	s.name = req.Name

	h.logger.Info("joined room", "conn", s.id, "room", room.ID, "created", created, "participants", room.Size())

	snapshot := domain.ExistingUsersPayload{
		Users:          make([]domain.ExistingUser, 0, len(existing)),
		RoomUserStatus: make(map[string]domain.MediaFlags, len(existing)),
	}
	for _, p := range existing {
		snapshot.Users = append(snapshot.Users, domain.ExistingUser{ID: p.ConnectionID, Name: p.Name, JoinedAt: p.JoinedAt})
		snapshot.RoomUserStatus[p.ConnectionID] = p.Flags
	}
	h.deliver(s, h.newFrame(domain.MessageTypeExistingUsers, "", snapshot))

	if history := room.Messages(); len(history) > 0 {
		h.deliver(s, h.newFrame(domain.MessageTypeChatHistory, "", domain.ChatHistoryPayload{Messages: history}))
	}

	h.broadcastRoom(room, s.id, h.newFrame(domain.MessageTypeUserJoined, s.id, domain.UserJoinedPayload{
		UserID:     s.id,
		Name:       req.Name,
		MediaFlags: req.MediaFlags,
	}))
	return nil
}

func (h *Hub) handleLeave(s *session, _ json.RawMessage) error {
	h.leaveRoom(s)
	return nil
}

// leaveRoom removes the session from its room, if any. Removing an absent
// participant is a no-op, so a second leave never repeats user-left.
func (h *Hub) leaveRoom(s *session) {
	roomID := s.roomID
	if roomID == "" {
		return
	}
	s.roomID = ""
	s.name = ""

	// an expired room still awaiting purge must lose the leaver too
	room := h.rooms.Cached(roomID)
	if room == nil || !room.RemoveParticipant(s.id) {
		return
	}
	h.logger.Info("left room", "conn", s.id, "room", roomID, "participants", room.Size())

	h.broadcastRoom(room, s.id, h.newFrame(domain.MessageTypeUserLeft, s.id, domain.UserLeftPayload{ConnectionID: s.id}))
	if room.IsEmpty() {
		h.cleanup.Schedule()
	}
}

// currentRoom re-resolves the session's room. A room that was evicted or no
// longer lists the session detaches it.
func (h *Hub) currentRoom(s *session) (*usecase.Room, error) {
	if s.roomID == "" {
		return nil, domain.ErrNotInRoom
	}
	room := h.rooms.Lookup(s.roomID)
	if room == nil {
		s.roomID = ""
		return nil, domain.ErrRoomNotFound
	}
	if _, ok := room.Participant(s.id); !ok {
		s.roomID = ""
		return nil, domain.ErrNotInRoom
	}
	return room, nil
}

// disposeRoom runs on the loop just before the registry forgets a room.
// Participants are told before their room state disappears.
func (h *Hub) disposeRoom(room *usecase.Room) {
	participants := room.ListParticipants()
	h.logger.Info("room disposed", "room", room.ID, "participants", len(participants))
	if len(participants) == 0 {
		return
	}

	frame := h.newFrame(domain.MessageTypeRoomDisposed, "", domain.NoticePayload{
		Message:   "This room was closed by the server. Please rejoin.",
		Timestamp: h.now(),
	})
	for _, p := range participants {
		s, ok := h.sessions[p.ConnectionID]
		if !ok || s.roomID != room.ID {
			continue
		}
		h.deliver(s, frame)
		s.roomID = ""
		s.name = ""
	}
}
