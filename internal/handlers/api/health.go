package api

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Checker reports whether a backing dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler reports the reachability of the backing stores.
type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHealthHandler creates a new API health handler.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Check runs every checker and returns 503 if any of them fails.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.checks[name](ctx); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		return jsonErrorData(c, fiber.StatusServiceUnavailable, "dependency unavailable", results)
	}
	return jsonSuccess(c, results)
}
