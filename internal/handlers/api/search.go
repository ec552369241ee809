package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"searchrank/internal/config"
	"searchrank/internal/search"
	"searchrank/internal/validation"
)

// SearchHandler exposes the search keyword service as a JSON API.
type SearchHandler struct {
	svc    *search.Service
	limits config.LimitsConfig
}

// NewSearchHandler creates a new API search handler.
func NewSearchHandler(svc *search.Service, limits config.LimitsConfig) *SearchHandler {
	return &SearchHandler{svc: svc, limits: limits}
}

type batchRequest struct {
	Increments map[string]int64 `json:"increments"`
	Recent     []string         `json:"recent"`
}

// Record records a single search.
func (h *SearchHandler) Record(c fiber.Ctx) error {
	var body struct {
		Keyword string `json:"keyword"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.RecordSearch(c.Context(), body.Keyword); err != nil {
		return writeError(c, err, "failed to record search")
	}
	return jsonSuccess(c, fiber.Map{"recorded": 1})
}

// RecordBatch records a batch of searches synchronously.
func (h *SearchHandler) RecordBatch(c fiber.Ctx) error {
	var body batchRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.RecordSearchBatch(c.Context(), body.Increments, body.Recent); err != nil {
		return writeError(c, err, "failed to record searches")
	}
	return jsonSuccess(c, fiber.Map{"recorded": len(body.Increments)})
}

// IngestFast updates the ranked cache, persists in the background and
// returns the resulting snapshot.
func (h *SearchHandler) IngestFast(c fiber.Ctx) error {
	var body batchRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	snap, err := h.svc.IngestFastAndSnapshot(c.Context(), body.Increments, body.Recent, h.limit(c, h.limits.Default))
	if err != nil {
		return writeError(c, err, "failed to ingest searches")
	}
	return jsonSuccess(c, snap)
}

// Popular returns the ranked popular keywords.
func (h *SearchHandler) Popular(c fiber.Ctx) error {
	return jsonSuccess(c, h.svc.PopularKeywords(c.Context(), h.limit(c, h.limits.Default)))
}

// Recent returns the recent keywords. With memoized=true the result may be
// served from the memo layer.
func (h *SearchHandler) Recent(c fiber.Ctx) error {
	limit := h.limit(c, h.limits.Default)
	if c.Query("memoized") == "true" {
		return jsonSuccess(c, h.svc.RecentKeywordsMemoized(c.Context(), limit))
	}
	return jsonSuccess(c, h.svc.RecentKeywords(c.Context(), limit))
}

// Autocomplete returns durable keywords starting with the prefix query.
func (h *SearchHandler) Autocomplete(c fiber.Ctx) error {
	keywords, err := h.svc.Autocomplete(c.Context(), c.Query("prefix"), h.limit(c, h.limits.Autocomplete))
	if err != nil {
		return writeError(c, err, "failed to fetch suggestions")
	}
	return jsonSuccess(c, keywords)
}

// PopularDurable returns the popular keywords from the durable store.
func (h *SearchHandler) PopularDurable(c fiber.Ctx) error {
	keywords, err := h.svc.PopularKeywordsDurable(c.Context(), h.limit(c, h.limits.Default))
	if err != nil {
		return writeError(c, err, "failed to fetch popular keywords")
	}
	return jsonSuccess(c, keywords)
}

// RecentDurable returns the recent keywords from the durable store.
func (h *SearchHandler) RecentDurable(c fiber.Ctx) error {
	keywords, err := h.svc.RecentKeywordsDurable(c.Context(), h.limit(c, h.limits.Default))
	if err != nil {
		return writeError(c, err, "failed to fetch recent keywords")
	}
	return jsonSuccess(c, keywords)
}

// Compare times the popular query against both stores.
func (h *SearchHandler) Compare(c fiber.Ctx) error {
	cmp, err := h.svc.CompareSources(c.Context())
	if err != nil {
		return writeError(c, err, "failed to compare sources")
	}
	return jsonSuccess(c, cmp)
}

// Statistics returns the cross-store statistics snapshot.
func (h *SearchHandler) Statistics(c fiber.Ctx) error {
	stats, err := h.svc.Statistics(c.Context())
	if err != nil {
		return writeError(c, err, "failed to fetch statistics")
	}
	return jsonSuccess(c, stats)
}

// RankedSnapshot dumps the ranked cache.
func (h *SearchHandler) RankedSnapshot(c fiber.Ctx) error {
	return jsonSuccess(c, h.svc.RankedStoreSnapshot(c.Context()))
}

// ClearRanked purges the ranked cache.
func (h *SearchHandler) ClearRanked(c fiber.Ctx) error {
	if err := h.svc.ClearRankedCache(c.Context()); err != nil {
		return writeError(c, err, "failed to clear ranked cache")
	}
	return jsonSuccess(c, fiber.Map{"cleared": true})
}

func (h *SearchHandler) limit(c fiber.Ctx, def int) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return validation.ClampLimit(n, def, h.limits.Max)
}

// writeError maps service errors to a status code. Validation errors are
// reported verbatim; anything else is logged and hidden behind message.
func writeError(c fiber.Ctx, err error, message string) error {
	if errors.Is(err, search.ErrInvalidKeyword) || errors.Is(err, search.ErrInvalidIncrement) {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error(message, "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, message)
}
