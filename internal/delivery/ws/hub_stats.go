package ws

import (
	"context"
	"time"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

// Health is the short liveness summary
type Health struct {
	Status        string  `json:"status"`
	Connections   int     `json:"connections"`
	Rooms         int     `json:"rooms"`
	Messages      uint64  `json:"messages"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Stats is the process-wide view
type Stats struct {
	Node             string                  `json:"node"`
	Connections      usecase.ConnectionStats `json:"connections"`
	Rooms            int                     `json:"rooms"`
	EmptyRooms       int                     `json:"emptyRooms"`
	Participants     int                     `json:"participants"`
	RateLimitEntries int                     `json:"rateLimitEntries"`
	CleanupPending   bool                    `json:"cleanupPending"`
	BusEnabled       bool                    `json:"busEnabled"`
	StartedAt        time.Time               `json:"startedAt"`
}

// RoomStats describes one room without exposing chat content
type RoomStats struct {
	RoomID       string    `json:"roomId"`
	Participants int       `json:"participants"`
	ScreenShares int       `json:"screenShares"`
	MessageCount uint64    `json:"messageCount"`
	HistorySize  int       `json:"historySize"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Health reports counts and uptime
func (h *Hub) Health(ctx context.Context) (Health, error) {
	var out Health
	err := h.call(ctx, func() {
		out = Health{
			Status:        "ok",
			Connections:   h.stats.Current,
			UptimeSeconds: h.now().Sub(h.started).Seconds(),
		}
		for _, room := range h.rooms.Rooms() {
			out.Rooms++
			out.Messages += room.MessageCount()
		}
	})
	return out, err
}

// Stats reports connection, room and limiter totals
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := h.call(ctx, func() {
		out = Stats{
			Node:             h.nodeID,
			Connections:      h.stats,
			EmptyRooms:       h.rooms.EmptyRooms(),
			RateLimitEntries: h.limiter.Len(),
			CleanupPending:   h.cleanup.Pending(),
			BusEnabled:       h.bus != nil,
			StartedAt:        h.started,
		}
		for _, room := range h.rooms.Rooms() {
			out.Rooms++
			out.Participants += room.Size()
		}
	})
	return out, err
}

// RoomStats reports one room. It returns ErrRoomNotFound for unknown ids and
// does not refresh the room's TTL.
func (h *Hub) RoomStats(ctx context.Context, roomID string) (RoomStats, error) {
	var (
		out   RoomStats
		found bool
	)
	err := h.call(ctx, func() {
		room := h.rooms.Peek(roomID)
		if room == nil {
			return
		}
		found = true
		out = RoomStats{
			RoomID:       room.ID,
			Participants: room.Size(),
			MessageCount: room.MessageCount(),
			HistorySize:  len(room.Messages()),
			CreatedAt:    room.CreatedAt,
			LastActivity: room.LastActivity,
		}
		for _, p := range room.ListParticipants() {
			if p.Flags.ScreenShareOn {
				out.ScreenShares++
			}
		}
	})
	if err != nil {
		return RoomStats{}, err
	}
	if !found {
		return RoomStats{}, domain.ErrRoomNotFound
	}
	return out, nil
}
