package domain

import "time"

// MediaFlags is the camera/audio/screen-share state of one participant
type MediaFlags struct {
	CameraOn      bool `json:"cameraOn"`
	AudioOn       bool `json:"audioOn"`
	ScreenShareOn bool `json:"screenShareOn"`
}

// Apply merges the supplied fields of a partial update
func (f MediaFlags) Apply(u MediaStatusPayload) MediaFlags {
	if u.CameraOn != nil {
		f.CameraOn = *u.CameraOn
	}
	if u.AudioOn != nil {
		f.AudioOn = *u.AudioOn
	}
	if u.ScreenShareOn != nil {
		f.ScreenShareOn = *u.ScreenShareOn
	}
	return f
}

// Participant is the room-scoped membership record of one connection
type Participant struct {
	ConnectionID string     `json:"id"`
	Name         string     `json:"name"`
	Flags        MediaFlags `json:"status"`
	JoinedAt     time.Time  `json:"joinedAt"`
}

// ChatMessage is an immutable chat log entry
type ChatMessage struct {
	Sequence  uint64    `json:"sequence"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
