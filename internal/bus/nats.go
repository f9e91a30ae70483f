package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus fans envelopes out over a core NATS subject.
// Delivery is at-most-once.
type NATSBus struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// DialNATS connects to a NATS server with automatic reconnects
func DialNATS(rawURL, subject string, logger *slog.Logger) (*NATSBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("bus", "nats")

	nc, err := nats.Connect(rawURL,
		nats.Name("meetup-signal"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSBus{nc: nc, subject: subject, logger: logger}, nil
}

func (b *NATSBus) Publish(_ context.Context, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, h Handler) error {
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		env, err := Decode(msg.Data)
		if err != nil {
			b.logger.Warn("dropping bus message", "error", err)
			return
		}
		h(env)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := b.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return fmt.Errorf("nats flush: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && b.nc.IsConnected() {
			b.logger.Debug("nats unsubscribe", "error", err)
		}
	}()
	return nil
}

func (b *NATSBus) Close() error {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}
