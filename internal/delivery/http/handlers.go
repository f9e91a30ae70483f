package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mmuslimabdulj/meetup-signal/internal/config"
	"github.com/mmuslimabdulj/meetup-signal/internal/delivery/ws"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/middleware"
)

// queryTimeout bounds how long an introspection request waits for the hub
const queryTimeout = 2 * time.Second

type Handler struct {
	hub      *ws.Hub
	cfg      *config.Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(hub *ws.Hub, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		hub:    hub,
		cfg:    cfg,
		logger: logger.With("component", "http"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.IsOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// Routes registers every endpoint on mux. Upgrades go through wsLimiter.
func (h *Handler) Routes(mux *http.ServeMux, wsLimiter *middleware.IPRateLimiter) {
	mux.HandleFunc("GET /ws", middleware.RateLimitFunc(wsLimiter, h.HandleWebSocket))
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /api/stats", h.HandleStats)
	mux.HandleFunc("GET /api/rooms/{id}/stats", h.HandleRoomStats)
}

// HandleWebSocket upgrades HTTP to WebSocket and hands the connection to the hub.
// Rooms are chosen later with join-room, not at connect time.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, uuid.NewString(), r.RemoteAddr)
	if err := h.hub.Register(client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()
}

// HandleHealth reports liveness with connection, room and message counts
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	health, err := h.hub.Health(ctx)
	if err != nil {
		h.queryFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// HandleStats reports process-wide totals
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	stats, err := h.hub.Stats(ctx)
	if err != nil {
		h.queryFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleRoomStats reports one room, 404 when it does not exist
func (h *Handler) HandleRoomStats(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if roomID == "" || utf8.RuneCountInString(roomID) > domain.MaxRoomIDLength {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	stats, err := h.hub.RoomStats(ctx, roomID)
	if err != nil {
		h.queryFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) queryFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, domain.ErrHubStopped):
		writeError(w, http.StatusServiceUnavailable, "shutting down")
	default:
		h.logger.Warn("stats query failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "busy, try again")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
