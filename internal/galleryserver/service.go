// Package galleryserver exposes the product gallery over HTTP and as MCP tools.
package galleryserver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_gallery/internal/engine"
	"github.com/anatolykoptev/go_gallery/internal/engine/sheets"
	"github.com/anatolykoptev/go_gallery/internal/gallery"
	"github.com/anatolykoptev/go_gallery/internal/toolutil"
)

// Deps are shared by the web handlers and the MCP tools.
type Deps struct {
	Loader           *sheets.Loader
	ServiceEmail     func() string // may be nil
	DefaultSheetName string
	CacheTTL         time.Duration
	Refresh          *rate.Limiter // throttles cache clears
}

func (d Deps) withDefaults() Deps {
	if d.DefaultSheetName == "" {
		d.DefaultSheetName = engine.DefaultSheetName
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = engine.DefaultCacheTTL
	}
	if d.Refresh == nil {
		d.Refresh = rate.NewLimiter(rate.Limit(1), 3)
	}
	return d
}

// Result is one load of a sheet, ready for display.
type Result struct {
	SheetID    string              `json:"sheet_id"`
	SheetName  string              `json:"sheet_name"`
	Loaded     bool                `json:"loaded"`
	Count      int                 `json:"count"`
	Gallery    gallery.Gallery     `json:"gallery"`
	Diagnostic *gallery.Diagnostic `json:"diagnostic,omitempty"`
}

func (d Deps) email() string {
	if d.ServiceEmail == nil {
		return ""
	}
	return d.ServiceEmail()
}

// load resolves the user's input and renders the sheet. Failures never
// escape: they come back as a diagnostic on an unloaded result.
func (d Deps) load(ctx context.Context, rawID, rawName string) Result {
	name := strings.TrimSpace(rawName)
	if name == "" {
		name = d.DefaultSheetName
	}
	res := Result{
		SheetID:   toolutil.ParseSheetID(rawID),
		SheetName: toolutil.NormSheetName(name),
	}
	if res.SheetID == "" {
		diag := gallery.NoSheetID()
		res.Diagnostic = &diag
		return res
	}

	t, err := d.Loader.Load(ctx, res.SheetID, res.SheetName)
	if err != nil {
		diag := gallery.Diagnose(err, d.email())
		res.Diagnostic = &diag
		slog.Warn("gallery: load failed",
			slog.String("sheet_id", res.SheetID),
			slog.String("sheet_name", res.SheetName),
			slog.String("code", diag.Code),
		)
		return res
	}
	if t == nil {
		diag := gallery.NoData(res.SheetID, res.SheetName)
		res.Diagnostic = &diag
		return res
	}

	res.Gallery = gallery.RenderTable(t)
	res.Count = len(res.Gallery.Units)
	res.Loaded = true
	return res
}

// refresh clears cached ranges unless the limiter refuses. ok is false when throttled.
func (d Deps) refresh(ctx context.Context) (ok bool) {
	if !d.Refresh.Allow() {
		engine.IncrRefreshThrottled()
		return false
	}
	d.Loader.ClearCache(ctx)
	return true
}
