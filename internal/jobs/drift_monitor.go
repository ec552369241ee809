package jobs

import (
	"context"
	"log/slog"
	"time"

	"searchrank/internal/metrics"
	"searchrank/internal/models"
)

// Comparer answers the same top-N popular query from both stores.
type Comparer interface {
	CompareSources(ctx context.Context) (models.Comparison, error)
}

// DriftMonitor periodically compares the ranked cache against the durable
// store and reports how far their popular lists have drifted apart. It only
// observes; neither store is modified.
type DriftMonitor struct {
	source   Comparer
	interval time.Duration
	logger   *slog.Logger
}

// NewDriftMonitor creates a new drift monitor.
func NewDriftMonitor(source Comparer, interval time.Duration, logger *slog.Logger) *DriftMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DriftMonitor{source: source, interval: interval, logger: logger}
}

// Start runs the check loop until ctx is cancelled.
func (m *DriftMonitor) Start(ctx context.Context) {
	m.logger.Info("drift monitor started", "interval", m.interval)

	// Run immediately on start
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("drift monitor stopped")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *DriftMonitor) check(ctx context.Context) {
	cmp, err := m.source.CompareSources(ctx)
	if err != nil {
		m.logger.Warn("drift check failed", "error", err)
		return
	}

	ratio := Overlap(cmp.RankedResult, cmp.DurableResult)
	metrics.PopularOverlap.Set(ratio)

	if ratio < 1 {
		m.logger.Info("popular lists diverge",
			"overlap", ratio,
			"ranked", cmp.RankedResult,
			"durable", cmp.DurableResult,
		)
	}
}

// Overlap returns the share of keywords present in both lists, relative to
// the longer one. Order is ignored. Two empty lists fully overlap.
func Overlap(a, b []string) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 1
	}

	seen := make(map[string]struct{}, len(a))
	for _, k := range a {
		seen[k] = struct{}{}
	}
	common := 0
	for _, k := range b {
		if _, ok := seen[k]; ok {
			common++
			delete(seen, k)
		}
	}
	return float64(common) / float64(n)
}
