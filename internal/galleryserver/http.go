package galleryserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_gallery/internal/engine"
	"github.com/anatolykoptev/go_gallery/internal/gallery"
)

const pageTitle = "🛍️ Product Gallery"

// NewHandler returns the web gallery: the page, refresh, a JSON view and
// health/metrics endpoints.
func NewHandler(deps Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", deps.handlePage)
	mux.HandleFunc("POST /refresh", deps.handleRefresh)
	mux.HandleFunc("GET /api/products", deps.handleProducts)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(engine.FormatMetrics()))
	})
	return mux
}

func (d Deps) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := d.load(r.Context(), q.Get("sheet_id"), q.Get("sheet_name"))

	page := gallery.Page{
		Title:     pageTitle,
		SheetID:   res.SheetID,
		SheetName: res.SheetName,
		CacheTTL:  d.CacheTTL.String(),
		Gallery:   res.Gallery,
		Loaded:    res.Loaded,
	}
	if res.Diagnostic != nil {
		page.Diagnostics = append(page.Diagnostics, *res.Diagnostic)
	}
	if q.Get("refreshed") == "1" {
		page.Diagnostics = append(page.Diagnostics, gallery.Diagnostic{
			Level: gallery.LevelInfo,
			Code:  "refreshed",
			Title: "Cache cleared, data reloaded.",
		})
	}

	var buf bytes.Buffer
	if err := gallery.RenderPage(&buf, page); err != nil {
		slog.Error("gallery: page render failed", slog.Any("error", err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (d Deps) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !d.refresh(r.Context()) {
		slog.Warn("gallery: refresh throttled", slog.String("remote", r.RemoteAddr))
		http.Error(w, "refresh rate limit exceeded, try again shortly", http.StatusTooManyRequests)
		return
	}

	q := url.Values{}
	if v := r.PostForm.Get("sheet_id"); v != "" {
		q.Set("sheet_id", v)
	}
	if v := r.PostForm.Get("sheet_name"); v != "" {
		q.Set("sheet_name", v)
	}
	q.Set("refreshed", "1")
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func (d Deps) handleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := d.load(r.Context(), q.Get("sheet_id"), q.Get("sheet_name"))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("gallery: encode products failed", slog.Any("error", err))
	}
}
