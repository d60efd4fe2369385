package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// metrics tracks operational counters across the engine.
var metrics struct {
	Analyses      atomic.Int64
	Matches       atomic.Int64
	ATSScores     atomic.Int64
	TailorRuns    atomic.Int64
	CoverLetters  atomic.Int64
	TrackerWrites atomic.Int64
	TrackerErrors atomic.Int64
	FetchRequests atomic.Int64
	FetchErrors   atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"jd_analyses", "keyword_matches", "ats_scores", "tailor_runs", "cover_letters",
	"tracker_writes", "tracker_errors",
	"fetch_requests", "fetch_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"jd_analyses":     metrics.Analyses.Load(),
		"keyword_matches": metrics.Matches.Load(),
		"ats_scores":      metrics.ATSScores.Load(),
		"tailor_runs":     metrics.TailorRuns.Load(),
		"cover_letters":   metrics.CoverLetters.Load(),
		"tracker_writes":  metrics.TrackerWrites.Load(),
		"tracker_errors":  metrics.TrackerErrors.Load(),
		"fetch_requests":  metrics.FetchRequests.Load(),
		"fetch_errors":    metrics.FetchErrors.Load(),
		"cache_hits":      hits,
		"cache_misses":    misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for tool handlers.
func IncrAnalyses()     { metrics.Analyses.Add(1) }
func IncrMatches()      { metrics.Matches.Add(1) }
func IncrATSScores()    { metrics.ATSScores.Add(1) }
func IncrTailorRuns()   { metrics.TailorRuns.Add(1) }
func IncrCoverLetters() { metrics.CoverLetters.Add(1) }

// TrackWrite counts a tracker write and its failure, if any.
func TrackWrite(err error) {
	metrics.TrackerWrites.Add(1)
	if err != nil {
		metrics.TrackerErrors.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if elapsed := time.Since(start); elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
