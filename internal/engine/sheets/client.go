package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/anatolykoptev/go_gallery/internal/engine"
)

// Scopes requested for the service account: read-only sheets and file metadata.
var Scopes = []string{
	sheetsapi.SpreadsheetsReadonlyScope,
	sheetsapi.DriveReadonlyScope,
}

const defaultHTTPTimeout = 30 * time.Second

// RangeReader reads a rectangular block of cell values.
type RangeReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rangeName string) ([][]string, error)
}

// ClientProvider hands out the reader used by the Loader.
type ClientProvider interface {
	Client(ctx context.Context) (RangeReader, error)
}

// ServiceClient reads ranges through the Sheets v4 API.
type ServiceClient struct {
	svc *sheetsapi.Service
}

// NewServiceClient authenticates as the service account in creds.
func NewServiceClient(ctx context.Context, creds *Credentials, timeout time.Duration) (*ServiceClient, error) {
	slog.Debug("creating sheets service", slog.String("client_email", creds.ClientEmail))

	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	cfg, err := google.JWTConfigFromJSON(creds.JSON(), Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}

	// The client outlives the request that built it; token refreshes must not
	// inherit its cancellation, and must not hang forever.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	hc := cfg.Client(tokenCtx)
	hc.Timeout = timeout

	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		slog.Error("failed to create sheets service", slog.String("client_email", creds.ClientEmail), slog.Any("error", err))
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.Debug("sheets service created successfully", slog.String("client_email", creds.ClientEmail))
	return &ServiceClient{svc: svc}, nil
}

// ReadRange issues a single values.get for the range.
func (c *ServiceClient) ReadRange(ctx context.Context, spreadsheetID, rangeName string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return stringifyValues(resp.Values), nil
}

// stringifyValues converts API cell values to strings. The API returns
// formatted strings by default; other types are printed.
func stringifyValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case nil:
			case string:
				cells[j] = x
			default:
				cells[j] = fmt.Sprint(x)
			}
		}
		out[i] = cells
	}
	return out
}

// BuildFunc constructs a reader from validated credentials.
type BuildFunc func(ctx context.Context, creds *Credentials) (RangeReader, error)

// Factory builds the reader once and hands out the same instance afterwards.
// There is no invalidation: rotating credentials needs a restart.
type Factory struct {
	src     SecretSource
	timeout time.Duration
	build   BuildFunc

	mu     sync.Mutex
	reader RangeReader
	email  string
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithTimeout sets the HTTP timeout of the Sheets client.
func WithTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) { f.timeout = d }
}

// WithBuilder replaces the Sheets API client constructor.
func WithBuilder(b BuildFunc) FactoryOption {
	return func(f *Factory) { f.build = b }
}

// WithReader presets the reader; credentials are never read.
func WithReader(r RangeReader) FactoryOption {
	return func(f *Factory) { f.reader = r }
}

// NewFactory returns a factory reading credentials from src on first use.
func NewFactory(src SecretSource, opts ...FactoryOption) *Factory {
	f := &Factory{src: src, timeout: defaultHTTPTimeout}
	f.build = func(ctx context.Context, creds *Credentials) (RangeReader, error) {
		return NewServiceClient(ctx, creds, f.timeout)
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Client returns the memoized reader, building it on first call.
// Failures are not memoized.
func (f *Factory) Client(ctx context.Context) (RangeReader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reader != nil {
		return f.reader, nil
	}

	creds, err := ValidateCredentials(f.src)
	if err != nil {
		engine.IncrCredentialErrors()
		slog.Error("sheets: credential validation failed", slog.Any("error", err))
		return nil, err
	}

	r, err := f.build(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	f.reader = r
	f.email = creds.ClientEmail
	slog.Info("sheets: client ready", slog.String("client_email", creds.ClientEmail))
	return r, nil
}

// ServiceEmail is the identity sheets must be shared with; empty until the
// first successful Client call.
func (f *Factory) ServiceEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}
