package domain

import (
	"encoding/json"
	"time"
)

// MessageType is the event name carried in every frame
type MessageType string

const (
	// Client -> server
	MessageTypeJoinRoom     MessageType = "join-room"
	MessageTypeLeaveRoom    MessageType = "leave-room"
	MessageTypeOffer        MessageType = "offer"
	MessageTypeAnswer       MessageType = "answer"
	MessageTypeICECandidate MessageType = "ice-candidate"
	MessageTypeMediaStatus  MessageType = "media-status-change"
	MessageTypeChat         MessageType = "chat-message"
	MessageTypePing         MessageType = "ping-from-client"

	// Server -> client
	MessageTypeExistingUsers      MessageType = "existing-users"
	MessageTypeChatHistory        MessageType = "chat-history"
	MessageTypeUserJoined         MessageType = "user-joined"
	MessageTypeUserLeft           MessageType = "user-left"
	MessageTypeScreenShareStarted MessageType = "user-started-screen-share"
	MessageTypeScreenShareStopped MessageType = "user-stopped-screen-share"
	MessageTypePong               MessageType = "pong-from-server"
	MessageTypeRoomDisposed       MessageType = "room-disposed"
	MessageTypeServerShutdown     MessageType = "server-shutdown"
	MessageTypeError              MessageType = "error"
)

// IsSignal reports whether t is relayed peer-to-peer
func (t MessageType) IsSignal() bool {
	return t == MessageTypeOffer || t == MessageTypeAnswer || t == MessageTypeICECandidate
}

// Incoming is the envelope every client frame arrives in
type Incoming struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is the envelope every server frame is sent in
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	FromID    string          `json:"from_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// JoinRoomPayload is sent by a client asking to enter a room
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	MediaFlags
}

// ExistingUser is one roster entry in ExistingUsersPayload
type ExistingUser struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ExistingUsersPayload is the roster snapshot handed to a joiner
type ExistingUsersPayload struct {
	Users          []ExistingUser        `json:"users"`
	RoomUserStatus map[string]MediaFlags `json:"roomUserStatus"`
}

// ChatHistoryPayload carries the retained chat log, oldest first
type ChatHistoryPayload struct {
	Messages []ChatMessage `json:"messages"`
}

// UserJoinedPayload announces a new participant to the rest of the room
type UserJoinedPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	MediaFlags
}

// UserLeftPayload announces a departure
type UserLeftPayload struct {
	ConnectionID string `json:"connectionId"`
}

// MediaStatusPayload is a partial flag update; nil fields are left unchanged
type MediaStatusPayload struct {
	CameraOn      *bool `json:"cameraOn,omitempty"`
	AudioOn       *bool `json:"audioOn,omitempty"`
	ScreenShareOn *bool `json:"screenShareOn,omitempty"`
}

// MediaStatusChangedPayload is the room-wide echo of a status update
type MediaStatusChangedPayload struct {
	UserID string `json:"userId"`
	MediaFlags
}

// ScreenSharePayload is sent when a participant starts or stops sharing
type ScreenSharePayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// ChatPayload is a chat line sent by a client
type ChatPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// PongPayload answers a latency probe (unix milliseconds)
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// NoticePayload is an administrative notice such as room-disposed
type NoticePayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload is sent back to the originating client only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
