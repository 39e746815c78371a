package galleryserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_gallery/internal/gallery"
)

// LoadInput is the gallery_load tool input.
type LoadInput struct {
	SheetID   string `json:"sheet_id" jsonschema:"Google Sheet ID, or the full spreadsheet URL"`
	SheetName string `json:"sheet_name,omitempty" jsonschema:"Tab name (default: Sheet1)"`
	Format    string `json:"format,omitempty" jsonschema:"Output format: json (default) or markdown"`
}

// LoadOutput is the gallery_load tool output.
type LoadOutput struct {
	SheetID    string                `json:"sheet_id"`
	SheetName  string                `json:"sheet_name"`
	Loaded     bool                  `json:"loaded"`
	Count      int                   `json:"count"`
	Units      []gallery.DisplayUnit `json:"units"`
	Skipped    int                   `json:"skipped"`
	Diagnostic *gallery.Diagnostic   `json:"diagnostic,omitempty"`
	Markdown   string                `json:"markdown,omitempty"`
}

// RefreshInput is the gallery_refresh tool input.
type RefreshInput struct{}

// RefreshOutput is the gallery_refresh tool output.
type RefreshOutput struct {
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}

// RegisterTools registers gallery_load and gallery_refresh on the given MCP server.
func RegisterTools(server *mcp.Server, deps Deps) {
	deps = deps.withDefaults()
	registerLoad(server, deps)
	registerRefresh(server, deps)
}

func registerLoad(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gallery_load",
		Description: "Load a product catalog from a Google Sheet and return its products: media URL, whether it is a video or an image, and Kurdish/Arabic tag, color and material groups. Rows without a URL are skipped. On failure returns a diagnostic explaining what to fix (credentials, sharing, sheet id).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input LoadInput) (*mcp.CallToolResult, LoadOutput, error) {
		format := strings.ToLower(strings.TrimSpace(input.Format))
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "markdown" {
			return nil, LoadOutput{}, fmt.Errorf("unsupported format %q: want json or markdown", input.Format)
		}

		res := deps.load(ctx, input.SheetID, input.SheetName)
		out := LoadOutput{
			SheetID:    res.SheetID,
			SheetName:  res.SheetName,
			Loaded:     res.Loaded,
			Count:      res.Count,
			Units:      res.Gallery.Units,
			Skipped:    res.Gallery.Skipped,
			Diagnostic: res.Diagnostic,
		}
		if out.Units == nil {
			out.Units = []gallery.DisplayUnit{}
		}
		if format != "markdown" || !res.Loaded {
			return nil, out, nil
		}

		md, err := gallery.RenderMarkdown(res.Gallery)
		if err != nil {
			return nil, LoadOutput{}, fmt.Errorf("render markdown: %w", err)
		}
		out.Markdown = md
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: md}},
		}, out, nil
	})
}

func registerRefresh(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gallery_refresh",
		Description: "Clear cached sheet data so the next gallery_load fetches fresh rows. Rate-limited.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input RefreshInput) (*mcp.CallToolResult, RefreshOutput, error) {
		if !deps.refresh(ctx) {
			return nil, RefreshOutput{}, fmt.Errorf("refresh rate limit exceeded, try again shortly")
		}
		return nil, RefreshOutput{Cleared: true, Message: "cache cleared"}, nil
	})
}
