package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports live capture sessions. *ws.Hub satisfies it.
type SessionCounter interface {
	Total() int
}

type HealthHandler struct {
	db       Pinger
	sessions SessionCounter
	version  string
	logger   *slog.Logger
}

func NewHealthHandler(db Pinger, sessions SessionCounter, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		sessions: sessions,
		version:  version,
		logger:   logger,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ReadyResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	CaptureSessions int    `json:"capture_sessions"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready answers 503 while the database is unreachable
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := ReadyResponse{Status: "ready", Database: "ok"}
	if h.sessions != nil {
		resp.CaptureSessions = h.sessions.Total()
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.Any("error", err))
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
	}

	return c.JSON(resp)
}
