// Package toolutil provides helpers shared by the web gallery and the MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anatolykoptev/go_gallery/internal/engine"
)

// NormSheetName normalises a tab name: empty string → engine.DefaultSheetName.
func NormSheetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return engine.DefaultSheetName
	}
	return name
}

// ParseSheetID accepts a bare spreadsheet id or a full Google Sheets URL and
// returns the id. For URLs the id is the path segment after /d/.
func ParseSheetID(input string) string {
	input = strings.TrimSpace(input)
	_, rest, found := strings.Cut(input, "/d/")
	if !found {
		return input
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// CacheLoadJSON tries to load a cached value of type T from c.
// Returns the decoded value and true on hit; zero value and false on miss,
// decode error or nil cache.
func CacheLoadJSON[T any](ctx context.Context, c *engine.RangeCache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	data, ok := c.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in c. A nil cache is a no-op.
func CacheStoreJSON[T any](ctx context.Context, c *engine.RangeCache, key string, v T) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, data)
}
