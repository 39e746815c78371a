package engine

import (
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	GalleryPort          string
	ServiceAccountEnvKey string
	ServiceAccountFile   string
	WorkbookPath         string // local .xlsx; when set the Sheets API is not used
	DefaultSheetName     string
	SheetsTimeout        time.Duration
	CacheTTL             time.Duration
	CacheMaxEntries      int
	RedisURL             string // empty = L1 only
	RefreshRate          float64
	RefreshBurst         int
}

// DefaultSheetName is the tab read when the caller leaves the name blank.
const DefaultSheetName = "Sheet1"

// DefaultCacheTTL is how long a loaded range stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// WithDefaults fills zero fields with their defaults.
func (c Config) WithDefaults() Config {
	if c.GalleryPort == "" {
		c.GalleryPort = "8892"
	}
	if c.ServiceAccountEnvKey == "" {
		c.ServiceAccountEnvKey = "GCP_SERVICE_ACCOUNT_JSON"
	}
	if c.DefaultSheetName == "" {
		c.DefaultSheetName = DefaultSheetName
	}
	if c.SheetsTimeout <= 0 {
		c.SheetsTimeout = 30 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = 256
	}
	if c.RefreshRate <= 0 {
		c.RefreshRate = 1
	}
	if c.RefreshBurst <= 0 {
		c.RefreshBurst = 3
	}
	return c
}
