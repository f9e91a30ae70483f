package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed inbound WebSocket frame in bytes.
// Offers carry full SDP blobs, so this is well above a chat line.
const MaxMessageSize = 64 * 1024

// ==== Room Constants ====

const (
	// MaxRoomIDLength bounds the client-chosen room key
	MaxRoomIDLength = 50

	// MaxNameLength bounds a participant display name
	MaxNameLength = 30

	// MaxChatLength bounds a single chat message body
	MaxChatLength = 500

	// MaxParticipants is the hard per-room membership cap
	MaxParticipants = 150

	// MaxHistorySize is the number of chat messages retained per room
	MaxHistorySize = 100

	// RosterCacheTTL is the longest a memoized participant list is served
	RosterCacheTTL = 5 * time.Second
)

// ==== Registry Constants ====

const (
	// MaxRooms is the registry capacity; the least recently used room is evicted past it
	MaxRooms = 200

	// RoomTTL expires a room that has not been touched for this long
	RoomTTL = 2 * time.Hour
)

// ==== Cleanup Constants ====

const (
	// CleanupInterval is the delay between a room emptying and the sweep that may evict it
	CleanupInterval = 60 * time.Second

	// IdleRoomTTL is how long an empty room survives before the sweep evicts it
	IdleRoomTTL = 30 * time.Minute
)

// ==== Rate Limit Constants ====

// Action names used as the second half of a rate-limit key.
const (
	ActionJoin   = "join"
	ActionChat   = "chat"
	ActionSignal = "signal"
	ActionICE    = "ice-candidate"
)

// RateLimitEntryTTL drops a (connection, action) counter after this much disuse.
const RateLimitEntryTTL = 5 * time.Minute

// RateBudget is a fixed-window allowance for one action.
type RateBudget struct {
	Limit  int
	Window time.Duration
}

// DefaultRateBudgets are the per-action allowances.
var DefaultRateBudgets = map[string]RateBudget{
	ActionJoin:   {Limit: 5, Window: time.Minute},
	ActionChat:   {Limit: 30, Window: time.Minute},
	ActionSignal: {Limit: 50, Window: time.Minute},
	ActionICE:    {Limit: 100, Window: time.Minute},
}

// DefaultRateLimitWS is the per-IP WebSocket upgrade rate (req/sec).
const DefaultRateLimitWS = 5
