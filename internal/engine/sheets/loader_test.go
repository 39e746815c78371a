package sheets

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/anatolykoptev/go_gallery/internal/engine"
)

// fakeReader records calls and replays canned responses.
type fakeReader struct {
	mu     sync.Mutex
	values [][]string
	errs   []error // consumed one per call before values are returned
	calls  []string
}

func (f *fakeReader) ReadRange(_ context.Context, spreadsheetID, rangeName string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spreadsheetID+"/"+rangeName)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.values, nil
}

func (f *fakeReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var fastRetry = RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsed: time.Second}

func newTestLoader(r RangeReader) *Loader {
	cache := engine.NewRangeCache(engine.CacheConfig{TTL: 5 * time.Minute, MaxEntries: 32})
	return NewLoader(NewFactory(nil, WithReader(r)), cache, WithRetryPolicy(fastRetry))
}

var exampleValues = [][]string{
	{"URL", "Kurdish Tags", "Arabic Tags"},
	{"http://x/y.mp4", "qermiçî", "احمر"},
}

func TestLoad_Example(t *testing.T) {
	fr := &fakeReader{values: exampleValues}
	l := newTestLoader(fr)

	tbl, err := l.Load(context.Background(), "ABC123", "Sheet1")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, map[string]string{
		"URL":          "http://x/y.mp4",
		"Kurdish Tags": "qermiçî",
		"Arabic Tags":  "احمر",
	}, tbl.Rows[0].Map())
	assert.Equal(t, []string{"ABC123/Sheet1"}, fr.calls)
}

func TestLoad_DefaultsRangeName(t *testing.T) {
	fr := &fakeReader{values: exampleValues}
	l := newTestLoader(fr)

	_, err := l.Load(context.Background(), " ABC123 ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC123/Sheet1"}, fr.calls)
}

func TestLoad_RequiresID(t *testing.T) {
	l := newTestLoader(&fakeReader{})
	_, err := l.Load(context.Background(), "  ", "Sheet1")
	assert.ErrorIs(t, err, ErrNoSpreadsheetID)
}

func TestLoad_EmptyResultIsAbsentNotError(t *testing.T) {
	for name, values := range map[string][][]string{
		"zero rows":    nil,
		"empty header": {{}, {"http://x/y.jpg"}},
	} {
		t.Run(name, func(t *testing.T) {
			fr := &fakeReader{values: values}
			l := newTestLoader(fr)

			tbl, err := l.Load(context.Background(), "ABC123", "Sheet1")
			assert.NoError(t, err)
			assert.Nil(t, tbl)

			// Absent results are not cached.
			_, _ = l.Load(context.Background(), "ABC123", "Sheet1")
			assert.Equal(t, 2, fr.callCount())
		})
	}
}

func TestLoad_CachedWithinTTL(t *testing.T) {
	fr := &fakeReader{values: exampleValues}
	l := newTestLoader(fr)
	ctx := context.Background()

	first, err := l.Load(ctx, "ABC123", "Sheet1")
	require.NoError(t, err)
	second, err := l.Load(ctx, "ABC123", "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, 1, fr.callCount(), "second load must not hit the remote")
	assert.Equal(t, first.Header, second.Header)
	assert.Equal(t, first.Rows[0].Values(), second.Rows[0].Values())

	// A different tab is a different key.
	_, err = l.Load(ctx, "ABC123", "Sheet2")
	require.NoError(t, err)
	assert.Equal(t, 2, fr.callCount())
}

func TestLoad_ClearCacheForcesRefetch(t *testing.T) {
	fr := &fakeReader{values: exampleValues}
	l := newTestLoader(fr)
	ctx := context.Background()

	_, err := l.Load(ctx, "ABC123", "Sheet1")
	require.NoError(t, err)
	l.ClearCache(ctx)
	_, err = l.Load(ctx, "ABC123", "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, 2, fr.callCount())
}

func TestLoad_WithoutCache(t *testing.T) {
	fr := &fakeReader{values: exampleValues}
	l := NewLoader(NewFactory(nil, WithReader(fr)), nil)

	for i := 0; i < 2; i++ {
		_, err := l.Load(context.Background(), "ABC123", "Sheet1")
		require.NoError(t, err)
	}
	l.ClearCache(context.Background())
	assert.Equal(t, 2, fr.callCount())
}

func TestLoad_RemoteErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"not found", &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}, KindNotFound},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden, Message: "The caller does not have permission"}, KindPermissionDenied},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: Nope"}, KindRemote},
		{"plain error", errors.New("boom"), KindRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeReader{errs: []error{tt.err}, values: exampleValues}
			l := newTestLoader(fr)

			tbl, err := l.Load(context.Background(), "ABC123", "Sheet1")
			assert.Nil(t, tbl)
			var re *RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, "ABC123", re.SpreadsheetID)
			assert.ErrorIs(t, err, tt.err, "cause is kept for diagnostics")
			assert.Equal(t, 1, fr.callCount(), "non-transient errors are not retried")
		})
	}
}

func TestLoad_RetriesTransientErrors(t *testing.T) {
	fr := &fakeReader{
		errs:   []error{&googleapi.Error{Code: 503}, &googleapi.Error{Code: 429}},
		values: exampleValues,
	}
	l := newTestLoader(fr)

	tbl, err := l.Load(context.Background(), "ABC123", "Sheet1")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, 3, fr.callCount())
}

func TestLoad_RetriesExhausted(t *testing.T) {
	fr := &fakeReader{errs: []error{
		&googleapi.Error{Code: 503}, &googleapi.Error{Code: 503}, &googleapi.Error{Code: 503}, &googleapi.Error{Code: 503},
	}}
	l := newTestLoader(fr)

	_, err := l.Load(context.Background(), "ABC123", "Sheet1")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindRemote, re.Kind)
	assert.Equal(t, 3, fr.callCount())
}

type failingProvider struct{ err error }

func (p failingProvider) Client(context.Context) (RangeReader, error) { return nil, p.err }

func TestLoad_ClientFailureIsReturned(t *testing.T) {
	cerr := &CredentialError{Stage: StageMissingSecret, Source: "env X"}
	l := NewLoader(failingProvider{err: cerr}, nil)

	tbl, err := l.Load(context.Background(), "ABC123", "Sheet1")
	assert.Nil(t, tbl)
	var ce *CredentialError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageMissingSecret, ce.Stage)
}
