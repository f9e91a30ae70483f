package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"

	"github.com/mmuslimabdulj/meetup-signal/internal/bus"
	"github.com/mmuslimabdulj/meetup-signal/internal/config"
	httpHandler "github.com/mmuslimabdulj/meetup-signal/internal/delivery/http"
	"github.com/mmuslimabdulj/meetup-signal/internal/delivery/ws"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
	"github.com/mmuslimabdulj/meetup-signal/internal/middleware"
	"github.com/mmuslimabdulj/meetup-signal/internal/usecase"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	logger := setupLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// The bus is optional; without it the server runs as a single process
	var eventBus bus.Bus
	if cfg.BusURL != "" {
		dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		b, err := bus.Dial(dialCtx, cfg.BusURL, cfg.BusChannel, logger)
		cancel()
		if err != nil {
			logger.Warn("bus unavailable, running single-process", "error", err)
		} else {
			eventBus = b
		}
	}

	hub, err := ws.NewHub(hubConfig(cfg, eventBus, logger))
	if err != nil {
		logger.Error("failed to create hub", "error", err)
		os.Exit(1)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, int(cfg.RateLimitWS)*2)
	go wsLimiter.RunCleanup(hubCtx, domain.CleanupInterval)

	handler := httpHandler.NewHandler(hub, cfg, logger)
	mux := http.NewServeMux()
	handler.Routes(mux, wsLimiter)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.Recover(logger)(middleware.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("signaling server listening", "addr", server.Addr, "bus", eventBus != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Steps run in one operation so clients hear the notice before
	// their connections are closed
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"signaling": func(ctx context.Context) error {
				logger.Info("shutting down")
				if err := hub.Shutdown(ctx); err != nil {
					logger.Warn("shutdown notice not sent", "error", err)
				}
				if err := server.Shutdown(ctx); err != nil {
					logger.Warn("http shutdown", "error", err)
				}
				stopHub()
				<-hub.Done()
				if eventBus != nil {
					if err := eventBus.Close(); err != nil {
						logger.Warn("bus close", "error", err)
					}
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}

func hubConfig(cfg *config.Config, eventBus bus.Bus, logger *slog.Logger) ws.Config {
	hc := ws.DefaultConfig()
	hc.Registry = usecase.RegistryConfig{
		Capacity: cfg.MaxRooms,
		TTL:      cfg.RoomTTL,
		Limits: usecase.RoomLimits{
			MaxParticipants: cfg.MaxParticipants,
			MaxHistory:      cfg.MaxHistorySize,
			RosterCacheTTL:  domain.RosterCacheTTL,
		},
	}
	hc.CleanupInterval = cfg.CleanupInterval
	hc.MaintenanceInterval = cfg.CleanupInterval
	hc.IdleRoomTTL = cfg.IdleRoomTTL
	hc.MaxMessageSize = cfg.MaxMessageSize
	hc.Bus = eventBus
	hc.Logger = logger
	return hc
}

// setupLogger builds the process logger. "silent" and "off" discard everything.
func setupLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "silent", "off":
		return slog.New(slog.DiscardHandler)
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
