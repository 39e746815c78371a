// go_gallery serves a product catalog gallery backed by Google Sheets.
//
// The gallery page listens on GALLERY_PORT; gallery_load and gallery_refresh
// are exposed as MCP tools on MCP_PORT.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_gallery/internal/engine"
	"github.com/anatolykoptev/go_gallery/internal/engine/sheets"
	"github.com/anatolykoptev/go_gallery/internal/galleryserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8891")
)

func main() {
	c := loadConfig()
	deps, cleanup := initEngine(c)
	defer cleanup()

	slog.Info("starting go_gallery",
		slog.String("gallery_port", c.GalleryPort),
		slog.String("mcp_port", mcpPort),
	)

	web := &http.Server{
		Addr:              ":" + c.GalleryPort,
		Handler:           galleryserver.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * c.SheetsTimeout,
	}
	go func() {
		if err := web.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("gallery server failed", slog.Any("error", err))
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_gallery",
		Version: version,
	}, nil)

	galleryserver.RegisterTools(server, deps)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_gallery",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 2 * c.SheetsTimeout,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func loadConfig() engine.Config {
	return engine.Config{
		GalleryPort:          env.Str("GALLERY_PORT", "8892"),
		ServiceAccountEnvKey: "GCP_SERVICE_ACCOUNT_JSON",
		ServiceAccountFile:   env.Str("GCP_SERVICE_ACCOUNT_FILE", ""),
		WorkbookPath:         env.Str("GALLERY_WORKBOOK", ""),
		DefaultSheetName:     env.Str("DEFAULT_SHEET_NAME", engine.DefaultSheetName),
		SheetsTimeout:        env.Duration("SHEETS_TIMEOUT", 30*time.Second),
		CacheTTL:             env.Duration("CACHE_TTL", engine.DefaultCacheTTL),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 256),
		RedisURL:             env.Str("REDIS_URL", ""),
		RefreshRate:          env.Float("REFRESH_RATE", 1),
		RefreshBurst:         env.Int("REFRESH_BURST", 3),
	}.WithDefaults()
}

func initEngine(c engine.Config) (galleryserver.Deps, func()) {
	cache := engine.NewRangeCache(engine.CacheConfig{
		TTL:        c.CacheTTL,
		MaxEntries: c.CacheMaxEntries,
		RedisURL:   c.RedisURL,
	})
	closers := []func() error{cache.Close}

	var factory *sheets.Factory
	if c.WorkbookPath != "" {
		wb, err := sheets.OpenWorkbook(c.WorkbookPath)
		if err != nil {
			slog.Error("workbook open failed, falling back to Sheets API",
				slog.String("path", c.WorkbookPath), slog.Any("error", err))
		} else {
			factory = sheets.NewFactory(nil, sheets.WithReader(wb))
			closers = append(closers, wb.Close)
			slog.Info("workbook source ready", slog.String("path", c.WorkbookPath))
		}
	}
	if factory == nil {
		src := sheets.FirstSecret{sheets.EnvSecret(c.ServiceAccountEnvKey)}
		if c.ServiceAccountFile != "" {
			src = append(src, sheets.FileSecret(c.ServiceAccountFile))
		}
		factory = sheets.NewFactory(src, sheets.WithTimeout(c.SheetsTimeout))
	}

	deps := galleryserver.Deps{
		Loader:           sheets.NewLoader(factory, cache),
		ServiceEmail:     factory.ServiceEmail,
		DefaultSheetName: c.DefaultSheetName,
		CacheTTL:         c.CacheTTL,
		Refresh:          rate.NewLimiter(rate.Limit(c.RefreshRate), c.RefreshBurst),
	}
	cleanup := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				slog.Warn("close failed", slog.Any("error", err))
			}
		}
	}
	return deps, cleanup
}
