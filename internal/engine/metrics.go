package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SheetLoads       atomic.Int64
	RemoteReads      atomic.Int64
	RemoteRetries    atomic.Int64
	RemoteErrors     atomic.Int64
	EmptyResults     atomic.Int64
	CredentialErrors atomic.Int64
	CacheClears      atomic.Int64
	RenderedUnits    atomic.Int64
	SkippedRows      atomic.Int64
	MediaErrors      atomic.Int64
	RefreshThrottled atomic.Int64
}

var metricKeys = []string{
	"sheet_loads", "remote_reads", "remote_retries", "remote_errors",
	"empty_results", "credential_errors", "cache_clears",
	"rendered_units", "skipped_rows", "media_errors",
	"refresh_throttled",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"sheet_loads":       metrics.SheetLoads.Load(),
		"remote_reads":      metrics.RemoteReads.Load(),
		"remote_retries":    metrics.RemoteRetries.Load(),
		"remote_errors":     metrics.RemoteErrors.Load(),
		"empty_results":     metrics.EmptyResults.Load(),
		"credential_errors": metrics.CredentialErrors.Load(),
		"cache_clears":      metrics.CacheClears.Load(),
		"rendered_units":    metrics.RenderedUnits.Load(),
		"skipped_rows":      metrics.SkippedRows.Load(),
		"media_errors":      metrics.MediaErrors.Load(),
		"refresh_throttled": metrics.RefreshThrottled.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
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

// Incrementors for the sheets sub-package.
func IncrSheetLoads()       { metrics.SheetLoads.Add(1) }
func IncrRemoteReads()      { metrics.RemoteReads.Add(1) }
func IncrRemoteRetries()    { metrics.RemoteRetries.Add(1) }
func IncrRemoteErrors()     { metrics.RemoteErrors.Add(1) }
func IncrEmptyResults()     { metrics.EmptyResults.Add(1) }
func IncrCredentialErrors() { metrics.CredentialErrors.Add(1) }
func IncrCacheClears()      { metrics.CacheClears.Add(1) }

// Incrementors for gallery rendering and the web surface.
func AddRenderedUnits(n int) { metrics.RenderedUnits.Add(int64(n)) }
func AddSkippedRows(n int)   { metrics.SkippedRows.Add(int64(n)) }
func AddMediaErrors(n int)   { metrics.MediaErrors.Add(int64(n)) }
func IncrRefreshThrottled()  { metrics.RefreshThrottled.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
