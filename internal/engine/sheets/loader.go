package sheets

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_gallery/internal/engine"
	"github.com/anatolykoptev/go_gallery/internal/toolutil"
)

// ErrNoSpreadsheetID is returned when Load is called without an id.
var ErrNoSpreadsheetID = errors.New("sheets: spreadsheet id is required")

// Loader fetches sheet ranges through a ClientProvider and caches them.
type Loader struct {
	provider ClientProvider
	cache    *engine.RangeCache // nil disables caching
	retry    RetryPolicy
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(rp RetryPolicy) LoaderOption {
	return func(l *Loader) { l.retry = rp }
}

// NewLoader wires a provider to a cache.
func NewLoader(provider ClientProvider, cache *engine.RangeCache, opts ...LoaderOption) *Loader {
	l := &Loader{provider: provider, cache: cache, retry: DefaultRetryPolicy}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the table for (spreadsheetID, rangeName).
//
// A nil table with a nil error means the range holds no usable data (no rows,
// or a blank header). Remote failures come back as *RemoteError, credential
// problems as *CredentialError; both leave the table nil.
func (l *Loader) Load(ctx context.Context, spreadsheetID, rangeName string) (*Table, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, ErrNoSpreadsheetID
	}
	rangeName = strings.TrimSpace(rangeName)
	if rangeName == "" {
		rangeName = engine.DefaultSheetName
	}
	engine.IncrSheetLoads()

	key := engine.CacheKey("range", spreadsheetID, rangeName)
	if t, ok := toolutil.CacheLoadJSON[Table](ctx, l.cache, key); ok {
		return &t, nil
	}

	reader, err := l.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	var values [][]string
	err = engine.TrackOperation(ctx, "sheets.read_range", func(ctx context.Context) error {
		var rerr error
		values, rerr = readWithRetry(ctx, l.retry, reader, spreadsheetID, rangeName)
		return rerr
	})
	if err != nil {
		rerr := classifyRemoteError(err, spreadsheetID, rangeName)
		engine.IncrRemoteErrors()
		slog.Warn("sheets: range read failed",
			slog.String("spreadsheet_id", spreadsheetID),
			slog.String("range", rangeName),
			slog.String("kind", rerr.Kind.String()),
			slog.Any("error", err),
		)
		return nil, rerr
	}

	t, ok := NewTable(values)
	if !ok {
		engine.IncrEmptyResults()
		slog.Warn("sheets: no data found",
			slog.String("spreadsheet_id", spreadsheetID),
			slog.String("range", rangeName),
		)
		return nil, nil
	}

	toolutil.CacheStoreJSON(ctx, l.cache, key, t)
	slog.Info("sheets: range loaded",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", rangeName),
		slog.Int("rows", t.Len()),
	)
	return t, nil
}

// ClearCache drops every cached range so the next Load re-fetches.
func (l *Loader) ClearCache(ctx context.Context) {
	engine.IncrCacheClears()
	if l.cache != nil {
		l.cache.Clear(ctx)
	}
}
