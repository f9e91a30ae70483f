// Package bus mirrors room broadcasts between server processes over a
// publish/subscribe channel. A nil Bus means single-process delivery.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Envelope is one frame crossing process boundaries.
// Room is empty for global notices. Exclude names a connection that must not
// receive the frame, typically its sender. Target, when set, addresses a
// single connection in Room instead of the whole room.
type Envelope struct {
	Node    string          `json:"node"`
	Room    string          `json:"room,omitempty"`
	Exclude string          `json:"exclude,omitempty"`
	Target  string          `json:"target,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// Handler consumes envelopes received from other processes
type Handler func(Envelope)

// Bus is a cross-process broadcast channel
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe starts delivering envelopes to h until ctx is done or the
	// bus is closed. It returns once the subscription is established.
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}

var (
	ErrUnsupportedScheme = errors.New("unsupported bus scheme")
	ErrClosed            = errors.New("bus closed")
)

// Encode serializes an envelope for the wire
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses and sanity-checks a wire envelope
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Node == "" {
		return Envelope{}, errors.New("decode envelope: missing node")
	}
	if len(env.Data) == 0 {
		return Envelope{}, errors.New("decode envelope: missing data")
	}
	return env, nil
}

// Dial connects to the bus named by rawURL. The scheme picks the transport:
// redis:// and rediss:// use Redis pub/sub, nats:// and tls:// use NATS.
func Dial(ctx context.Context, rawURL, channel string, logger *slog.Logger) (Bus, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse bus url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		return DialRedis(ctx, rawURL, channel, logger)
	case "nats", "tls":
		return DialNATS(rawURL, channel, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
