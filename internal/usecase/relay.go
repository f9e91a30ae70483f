package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// SignalRoute is a resolved sender/target pair inside one room
type SignalRoute struct {
	Sender domain.Participant
	Target domain.Participant
}

// ResolveSignalRoute checks that both ends of a signaling message are
// members of room. A false result means the message must be dropped silently.
func ResolveSignalRoute(room *Room, fromID, toID string) (SignalRoute, bool) {
	if room == nil || toID == "" || fromID == toID {
		return SignalRoute{}, false
	}
	sender, ok := room.Participant(fromID)
	if !ok {
		return SignalRoute{}, false
	}
	target, ok := room.Participant(toID)
	if !ok {
		return SignalRoute{}, false
	}
	return SignalRoute{Sender: sender, Target: target}, true
}

// SignalTarget extracts the "to" field of a signaling payload
func SignalTarget(payload json.RawMessage) (map[string]json.RawMessage, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, "", fmt.Errorf("decode signal payload: %w", err)
	}
	var to string
	if raw, ok := fields["to"]; ok {
		if err := json.Unmarshal(raw, &to); err != nil {
			return nil, "", fmt.Errorf("decode signal target: %w", err)
		}
	}
	return fields, to, nil
}

// TagSignal returns the payload with the sender's id, name and current media
// flags stamped on it. The sdp/candidate fields are passed through untouched.
func TagSignal(fields map[string]json.RawMessage, sender domain.Participant) (json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(fields)+5)
	for k, v := range fields {
		out[k] = v
	}
	delete(out, "to")

	stamp := map[string]any{
		"from":          sender.ConnectionID,
		"name":          sender.Name,
		"cameraOn":      sender.Flags.CameraOn,
		"audioOn":       sender.Flags.AudioOn,
		"screenShareOn": sender.Flags.ScreenShareOn,
	}
	for k, v := range stamp {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = raw
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode signal payload: %w", err)
	}
	return data, nil
}
