package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmuslimabdulj/meetup-signal/internal/bus"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

const (
	// outboxSize bounds broadcasts waiting to be published on the bus
	outboxSize = 256

	// publishTimeout bounds a single bus publish
	publishTimeout = 3 * time.Second

	// panicFlushDelay gives write pumps a moment to deliver server-shutdown
	// before a crashing loop takes the process down
	panicFlushDelay = 500 * time.Millisecond
)

// errMalformed marks a frame that could not be decoded. It is dropped silently.
var errMalformed = errors.New("malformed payload")

// Config holds the hub's bounds and collaborators
type Config struct {
	Registry            usecase.RegistryConfig
	RateBudgets         map[string]domain.RateBudget
	CleanupInterval     time.Duration
	IdleRoomTTL         time.Duration
	MaintenanceInterval time.Duration
	MaxMessageSize      int64

	// Bus is optional; nil means single-process delivery
	Bus    bus.Bus
	Logger *slog.Logger
	Now    func() time.Time
}

// DefaultConfig returns the production hub settings without a bus
func DefaultConfig() Config {
	return Config{
		Registry:            usecase.DefaultRegistryConfig(),
		RateBudgets:         domain.DefaultRateBudgets,
		CleanupInterval:     domain.CleanupInterval,
		IdleRoomTTL:         domain.IdleRoomTTL,
		MaintenanceInterval: domain.CleanupInterval,
		MaxMessageSize:      domain.MaxMessageSize,
	}
}

type handlerFunc func(s *session, payload json.RawMessage) error

type inbound struct {
	client *Client
	msg    domain.Incoming
}

// Hub owns every room, session and rate-limit counter. All of that state is
// touched only by the goroutine running Run; other goroutines talk to it
// through channels.
type Hub struct {
	cfg     Config
	nodeID  string
	logger  *slog.Logger
	now     func() time.Time
	started time.Time

	sessions map[string]*session
	rooms    *usecase.RoomRegistry
	limiter  *usecase.ActionLimiter
	cleanup  *usecase.CleanupScheduler
	stats    usecase.ConnectionStats
	handlers map[domain.MessageType]handlerFunc

	bus    bus.Bus
	outbox chan bus.Envelope

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	remote     chan bus.Envelope
	calls      chan func()
	sweep      chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Call Run to start it.
func NewHub(cfg Config) (*Hub, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = domain.MaxMessageSize
	}

	h := &Hub{
		cfg:        cfg,
		nodeID:     uuid.NewString(),
		now:        cfg.Now,
		sessions:   make(map[string]*session),
		bus:        cfg.Bus,
		outbox:     make(chan bus.Envelope, outboxSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		remote:     make(chan bus.Envelope, 256),
		calls:      make(chan func()),
		sweep:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.logger = cfg.Logger.With("component", "hub", "node", h.nodeID)
	h.started = h.now()

	rooms, err := usecase.NewRoomRegistry(cfg.Registry, h.disposeRoom, cfg.Now)
	if err != nil {
		return nil, fmt.Errorf("create hub: %w", err)
	}
	h.rooms = rooms
	h.limiter = usecase.NewActionLimiter(cfg.RateBudgets, cfg.Now)
	h.cleanup = usecase.NewCleanupScheduler(cfg.CleanupInterval, h.requestSweep)

	h.handlers = map[domain.MessageType]handlerFunc{
		domain.MessageTypeJoinRoom:     h.handleJoin,
		domain.MessageTypeLeaveRoom:    h.handleLeave,
		domain.MessageTypeOffer:        h.relay(domain.MessageTypeOffer, domain.ActionSignal),
		domain.MessageTypeAnswer:       h.relay(domain.MessageTypeAnswer, domain.ActionSignal),
		domain.MessageTypeICECandidate: h.relay(domain.MessageTypeICECandidate, domain.ActionICE),
		domain.MessageTypeMediaStatus:  h.handleMediaStatus,
		domain.MessageTypeChat:         h.handleChat,
		domain.MessageTypePing:         h.handlePing,
	}
	return h, nil
}

// NodeID identifies this process on the bus
func (h *Hub) NodeID() string {
	return h.nodeID
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client's send queue on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("hub loop panicked", "panic", r)
			h.notifyShutdown("The server hit an unrecoverable error. Please reconnect.")
			time.Sleep(panicFlushDelay)
			h.stop()
			panic(r)
		}
		h.stop()
	}()

	if h.bus != nil {
		if err := h.bus.Subscribe(ctx, h.receiveRemote); err != nil {
			h.logger.Warn("bus subscribe failed, delivering locally only", "error", err)
		}
		go h.publishLoop(ctx)
	}

	interval := h.cfg.MaintenanceInterval
	if interval <= 0 {
		interval = domain.CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info("hub started", "bus", h.bus != nil)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub stopping", "connections", len(h.sessions))
			return

		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unregister:
			h.handleUnregister(c)

		case in := <-h.inbound:
			h.dispatch(in)

		case env := <-h.remote:
			h.deliverRemote(env)

		case fn := <-h.calls:
			fn()

		case <-h.sweep:
			h.sweepIdle()

		case <-ticker.C:
			h.maintain()
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		h.cleanup.Stop()
		for id, s := range h.sessions {
			close(s.client.send)
			delete(h.sessions, id)
		}
		close(h.done)
	})
}

// dispatch runs one client event to completion. A panic in a handler is
// contained to the offending event.
func (h *Hub) dispatch(in inbound) {
	s, ok := h.sessions[in.client.ID]
	if !ok {
		return
	}
	handler, ok := h.handlers[in.msg.Type]
	if !ok {
		h.logger.Debug("unknown event", "conn", s.id, "type", in.msg.Type)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("handler panicked", "conn", s.id, "type", in.msg.Type, "panic", r)
		}
	}()

	if err := handler(s, in.msg.Payload); err != nil {
		h.reportError(s, in.msg.Type, err)
	}
}

func (h *Hub) reportError(s *session, typ domain.MessageType, err error) {
	if errors.Is(err, errMalformed) || errors.Is(err, domain.ErrNotInRoom) || errors.Is(err, domain.ErrRoomNotFound) {
		h.logger.Debug("event dropped", "conn", s.id, "type", typ, "error", err)
		return
	}
	h.logger.Info("event rejected", "conn", s.id, "type", typ, "error", err)
	h.deliver(s, h.newFrame(domain.MessageTypeError, "", domain.ErrorPayloadFor(err)))
}

// maintain prunes idle rate-limit counters and expired rooms
func (h *Hub) maintain() {
	pruned := h.limiter.Prune()
	expired := h.rooms.PurgeExpired()
	if pruned > 0 || len(expired) > 0 {
		h.logger.Debug("maintenance", "rate_entries_pruned", pruned, "rooms_expired", len(expired))
	}
}

func (h *Hub) requestSweep() {
	select {
	case h.sweep <- struct{}{}:
	default:
	}
}

// sweepIdle evicts empty idle rooms and re-arms while empty rooms remain
func (h *Hub) sweepIdle() {
	evicted := usecase.SweepIdleRooms(h.rooms, h.cfg.IdleRoomTTL)
	if len(evicted) > 0 {
		h.logger.Info("idle rooms evicted", "rooms", evicted)
	}
	if h.rooms.EmptyRooms() > 0 {
		h.cleanup.Schedule()
	}
}

// call runs fn on the event loop and waits for it
func (h *Hub) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case h.calls <- wrapped:
	case <-h.done:
		return domain.ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return domain.ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown tells every connected client the server is going away.
// Cancel Run's context afterwards to close the connections.
func (h *Hub) Shutdown(ctx context.Context) error {
	return h.call(ctx, func() {
		h.notifyShutdown("Server is shutting down. Please reconnect shortly.")
	})
}
