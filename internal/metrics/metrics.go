package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"searchrank/internal/models"
)

var (
	durableKeywordsDesc = prometheus.NewDesc(
		"searchrank_durable_keywords",
		"Number of keyword rows in the durable store",
		nil,
		nil,
	)
	rankedCardinalityDesc = prometheus.NewDesc(
		"searchrank_ranked_cardinality",
		"Number of members in the ranked popularity set",
		nil,
		nil,
	)
)

// Counters are usable before Init; Init only registers them.
var (
	CorruptionPurges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchrank_ranked_corruption_purges_total",
		Help: "Ranked cache purges triggered by unreadable structures",
	})

	CacheWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchrank_ranked_write_failures_total",
		Help: "Ranked cache writes that failed and were skipped",
	}, []string{"op"})

	BackgroundTaskFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchrank_background_task_failures_total",
		Help: "Fire-and-forget background tasks that returned an error or panicked",
	}, []string{"task"})

	SourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "searchrank_source_read_seconds",
		Help:    "Latency of top-N reads by source",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"source"})

	MemoLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchrank_memo_lookups_total",
		Help: "In-process memo lookups by result",
	}, []string{"result"})

	PopularOverlap = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "searchrank_popular_overlap_ratio",
		Help: "Share of the top-N popular keywords that both stores agree on, from the last drift check",
	})
)

// StatsSource provides the cross-store statistics snapshot.
type StatsSource interface {
	Statistics(ctx context.Context) (models.Statistics, error)
}

// StatsCollector is a custom Prometheus collector that reads the statistics
// snapshot on each scrape.
type StatsCollector struct {
	source  StatsSource
	timeout time.Duration
}

// Describe sends the metric descriptors to the channel.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- durableKeywordsDesc
	ch <- rankedCardinalityDesc
}

// Collect reads the statistics snapshot and emits it as gauges.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.source.Statistics(ctx)
	if err != nil {
		slog.Error("failed to collect search statistics", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(durableKeywordsDesc, prometheus.GaugeValue, float64(stats.TotalKeywords))
	ch <- prometheus.MustNewConstMetric(rankedCardinalityDesc, prometheus.GaugeValue, float64(stats.RankedCardinality))
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(source StatsSource) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			&StatsCollector{source: source, timeout: 5 * time.Second},
			CorruptionPurges,
			CacheWriteFailures,
			BackgroundTaskFailures,
			SourceLatency,
			PopularOverlap,
			MemoLookups,
		)
	})
}
