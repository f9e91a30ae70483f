package usecase

import (
	"sort"
	"time"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// RoomLimits bounds a single room
type RoomLimits struct {
	MaxParticipants int
	MaxHistory      int
	RosterCacheTTL  time.Duration
}

// DefaultRoomLimits returns the production room bounds
func DefaultRoomLimits() RoomLimits {
	return RoomLimits{
		MaxParticipants: domain.MaxParticipants,
		MaxHistory:      domain.MaxHistorySize,
		RosterCacheTTL:  domain.RosterCacheTTL,
	}
}

// Room owns one room's participants, chat history and activity clock.
// It is not safe for concurrent use; the hub event loop is its only writer.
type Room struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time

	limits       RoomLimits
	participants map[string]*domain.Participant
	history      *History
	sequence     uint64
	now          func() time.Time

	// roster memo, valid while rosterVersion == version
	version       uint64
	roster        []domain.Participant
	rosterVersion uint64
	rosterAt      time.Time
}

// NewRoom creates an empty room
func NewRoom(id string, limits RoomLimits, now func() time.Time) *Room {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Room{
		ID:           id,
		CreatedAt:    t,
		LastActivity: t,
		limits:       limits,
		participants: make(map[string]*domain.Participant),
		history:      NewHistory(limits.MaxHistory),
		now:          now,
		version:      1,
	}
}

func (r *Room) touch() {
	r.LastActivity = r.now()
}

func (r *Room) invalidate() {
	r.version++
}

// AddParticipant inserts p, failing with CapacityError when the room is full.
// Re-adding an existing connection replaces its record.
func (r *Room) AddParticipant(p domain.Participant) error {
	if _, exists := r.participants[p.ConnectionID]; !exists && len(r.participants) >= r.limits.MaxParticipants {
		return &domain.CapacityError{RoomID: r.ID, Limit: r.limits.MaxParticipants}
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = r.now()
	}
	r.participants[p.ConnectionID] = &p
	r.touch()
	r.invalidate()
	return nil
}

// RemoveParticipant deletes a participant, reporting whether it was present
func (r *Room) RemoveParticipant(connectionID string) bool {
	if _, ok := r.participants[connectionID]; !ok {
		return false
	}
	delete(r.participants, connectionID)
	r.touch()
	r.invalidate()
	return true
}

// UpdateParticipantStatus merges the supplied flags and returns the new record
func (r *Room) UpdateParticipantStatus(connectionID string, update domain.MediaStatusPayload) (domain.Participant, bool) {
	p, ok := r.participants[connectionID]
	if !ok {
		return domain.Participant{}, false
	}
	p.Flags = p.Flags.Apply(update)
	r.touch()
	r.invalidate()
	return *p, true
}

// Participant returns one participant by connection id
func (r *Room) Participant(connectionID string) (domain.Participant, bool) {
	p, ok := r.participants[connectionID]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

// ListParticipants returns the roster ordered by join time.
// The result is memoized for at most RosterCacheTTL and never across a mutation.
func (r *Room) ListParticipants() []domain.Participant {
	now := r.now()
	if r.roster != nil && r.rosterVersion == r.version && now.Sub(r.rosterAt) < r.limits.RosterCacheTTL {
		return append([]domain.Participant(nil), r.roster...)
	}

	roster := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		roster = append(roster, *p)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].JoinedAt.Equal(roster[j].JoinedAt) {
			return roster[i].ConnectionID < roster[j].ConnectionID
		}
		return roster[i].JoinedAt.Before(roster[j].JoinedAt)
	})

	r.roster = roster
	r.rosterVersion = r.version
	r.rosterAt = now
	return append([]domain.Participant(nil), roster...)
}

// AppendMessage assigns the next sequence number and records a chat line
func (r *Room) AppendMessage(name, body string) domain.ChatMessage {
	r.sequence++
	msg := domain.ChatMessage{
		Sequence:  r.sequence,
		Name:      name,
		Message:   body,
		Timestamp: r.now(),
	}
	r.history.Add(msg)
	r.touch()
	return msg
}

// Messages returns the retained chat history oldest first
func (r *Room) Messages() []domain.ChatMessage {
	return r.history.All()
}

// MessageCount is the number of messages ever appended
func (r *Room) MessageCount() uint64 {
	return r.sequence
}

// Size returns the participant count
func (r *Room) Size() int {
	return len(r.participants)
}

// IsEmpty is true iff the room has no participants
func (r *Room) IsEmpty() bool {
	return len(r.participants) == 0
}

// IdleFor reports how long the room has gone without activity
func (r *Room) IdleFor(now time.Time) time.Duration {
	return now.Sub(r.LastActivity)
}
