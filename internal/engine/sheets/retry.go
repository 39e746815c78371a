package sheets

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/anatolykoptev/go_gallery/internal/engine"
)

// RetryPolicy controls retries of transient range-read failures.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy is suitable for the Sheets API quota behaviour.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        3,
	InitialInterval: 1 * time.Second,
	MaxInterval:     10 * time.Second,
	MaxElapsed:      30 * time.Second,
}

// readWithRetry reads the range, retrying 429/5xx and network errors with
// exponential backoff. Other failures return on the first attempt.
func readWithRetry(ctx context.Context, rp RetryPolicy, r RangeReader, spreadsheetID, rangeName string) ([][]string, error) {
	attempt := 0
	operation := func() ([][]string, error) {
		attempt++
		engine.IncrRemoteReads()
		values, err := r.ReadRange(ctx, spreadsheetID, rangeName)
		if err == nil {
			return values, nil
		}
		if !isRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		engine.IncrRemoteRetries()
		slog.Debug("sheets: retryable read error",
			slog.Int("attempt", attempt),
			slog.String("spreadsheet_id", spreadsheetID),
			slog.Any("error", err),
		)
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rp.InitialInterval
	bo.MaxInterval = rp.MaxInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(rp.MaxTries),
		backoff.WithMaxElapsedTime(rp.MaxElapsed),
	)
}

// isRetryable returns true for transient errors worth retrying.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if isRetryableStatus(statusCode(err)) {
		return true
	}

	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeout errors (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// isRetryableStatus returns true for HTTP status codes worth retrying.
func isRetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
