package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes sent to clients in ErrorPayload.Code
const (
	CodeInvalidInput = "invalid-input"
	CodeRoomFull     = "room-full"
	CodeRateLimited  = "rate-limited"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("connection is not in a room")
	ErrHubStopped   = errors.New("hub stopped")
)

// ValidationError reports malformed or oversized client input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CapacityError reports a join into a full room
type CapacityError struct {
	RoomID string
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("room %q is full (%d participants)", e.RoomID, e.Limit)
}

// RateLimitError reports an exhausted per-action budget
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many %s requests, retry in %s", e.Action, e.RetryAfter.Round(time.Second))
}

// ErrorPayloadFor maps a handler error to what the client is told.
// Errors outside the taxonomy are reported as a generic invalid-input.
func ErrorPayloadFor(err error) ErrorPayload {
	var (
		verr *ValidationError
		cerr *CapacityError
		rerr *RateLimitError
	)
	switch {
	case errors.As(err, &cerr):
		return ErrorPayload{Code: CodeRoomFull, Message: "Room is full"}
	case errors.As(err, &rerr):
		msg, ok := rateLimitMessages[rerr.Action]
		if !ok {
			msg = "Too many requests."
		}
		return ErrorPayload{Code: CodeRateLimited, Message: msg}
	case errors.As(err, &verr):
		return ErrorPayload{Code: CodeInvalidInput, Message: verr.Error()}
	default:
		return ErrorPayload{Code: CodeInvalidInput, Message: "invalid request"}
	}
}

var rateLimitMessages = map[string]string{
	ActionJoin:   "Too many join attempts. Please wait a minute.",
	ActionChat:   "You are sending messages too quickly.",
	ActionSignal: "Too many connection negotiations. Slow down.",
	ActionICE:    "Too many ICE candidates.",
}
