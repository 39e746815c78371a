package gallery

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Page is everything the gallery template needs.
type Page struct {
	Title       string
	SheetID     string
	SheetName   string
	CacheTTL    string
	Diagnostics []Diagnostic
	Gallery     Gallery
	Loaded      bool
}

type pageView struct {
	Page
	Cards []template.HTML
}

// RenderPage writes the full gallery document. Each product card is executed
// on its own; a card that fails is replaced by an inline error.
func RenderPage(w io.Writer, p Page) error {
	view := pageView{Page: p, Cards: make([]template.HTML, 0, len(p.Gallery.Units))}
	for _, u := range p.Gallery.Units {
		view.Cards = append(view.Cards, renderCard(u))
	}
	return pageTemplate.Execute(w, view)
}

func renderCard(u DisplayUnit) template.HTML {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, u); err != nil {
		slog.Warn("gallery: card render failed", slog.Int("index", u.Index), slog.Any("error", err))
		buf.Reset()
		_ = cardErrorTemplate.Execute(&buf, map[string]any{"Index": u.Index, "Error": err.Error()})
	}
	return template.HTML(buf.String())
}

// RenderMarkdown renders the products as Markdown for text-only clients.
func RenderMarkdown(g Gallery) (string, error) {
	var buf bytes.Buffer
	if err := markdownSourceTemplate.Execute(&buf, g); err != nil {
		return "", fmt.Errorf("render markdown source: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

var cardTemplate = template.Must(template.New("card").Parse(`<article class="product" id="product-{{ .Index }}">
  <div class="media">
    {{- if .MediaError }}
    <div class="notice error media-error">Error loading media: {{ .MediaError }}</div>
    {{- else if eq .Media "video" }}
    <video controls preload="metadata" src="{{ .MediaURL }}"></video>
    {{- else }}
    <img loading="lazy" src="{{ .MediaURL }}" alt="Product {{ .Index }}" />
    {{- end }}
  </div>
  <div class="tag-container">
    {{- range .Sections }}
    <section class="lang" lang="{{ if eq .Language "Arabic" }}ar{{ else }}ku{{ end }}" dir="{{ .Dir }}">
      <h3>{{ .Flag }} {{ .Language }}</h3>
      {{- range .Groups }}
      <div class="tag-label">{{ .Label }}:</div>
      <div class="tag-value">{{ .Value }}</div>
      {{- end }}
    </section>
    {{- end }}
  </div>
</article>`))

var cardErrorTemplate = template.Must(template.New("card-error").Parse(
	`<article class="product"><div class="notice error">Error rendering product {{ .Index }}: {{ .Error }}</div></article>`))

var markdownSourceTemplate = template.Must(template.New("markdown").Parse(`<div>
{{- range .Units }}
<h2>Product {{ .Index }}</h2>
{{- if .MediaError }}
<p>Error loading media: {{ .MediaError }}</p>
{{- else if eq .Media "video" }}
<p><a href="{{ .MediaURL }}">Video</a></p>
{{- else }}
<p><img src="{{ .MediaURL }}" alt="Product {{ .Index }}" /></p>
{{- end }}
{{- range .Sections }}
<h3>{{ .Language }}</h3>
<ul>
{{- range .Groups }}
<li><strong>{{ .Label }}:</strong> {{ .Value }}</li>
{{- end }}
</ul>
{{- end }}
{{- end }}
</div>`))

var pageTemplate = template.Must(template.New("gallery").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{ .Title }}</title>
  <style>
    :root { --ink: #212529; --muted: #6c757d; --line: #dee2e6; --panel: #f8f9fa; --brand: #0f766e; }
    * { box-sizing: border-box; }
    body { margin: 0; color: var(--ink); font-family: system-ui, sans-serif; }
    .shell { display: grid; grid-template-columns: 280px 1fr; min-height: 100vh; }
    aside { background: var(--panel); border-right: 1px solid var(--line); padding: 1.5rem; }
    aside label { display: block; font-weight: 600; margin: 1rem 0 .3rem; }
    aside input { width: 100%; padding: .5rem; border: 1px solid var(--line); border-radius: 6px; }
    aside button { margin-top: 1rem; padding: .5rem 1rem; border: 0; border-radius: 6px; background: var(--brand); color: #fff; cursor: pointer; }
    main { padding: 2rem; }
    .notice { padding: .8rem 1rem; border-radius: 8px; margin-bottom: 1rem; }
    .notice.info { background: #e7f1ff; }
    .notice.success { background: #e6f4ea; }
    .notice.warning { background: #fff4e5; }
    .notice.error { background: #fdecea; }
    .notice .detail { font-family: ui-monospace, monospace; font-size: .85rem; white-space: pre-wrap; }
    .product { display: grid; grid-template-columns: 1fr 1fr; gap: 2rem; padding: 1.5rem 0; border-bottom: 1px solid var(--line); }
    .media img, .media video { width: 100%; border-radius: 10px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); }
    .tag-container { padding: 1rem; background: var(--panel); border-radius: 8px; }
    .tag-label { font-weight: 600; color: #495057; margin-bottom: .3rem; }
    .tag-value { color: var(--muted); margin-bottom: .8rem; }
    .lang + .lang { border-top: 1px solid var(--line); margin-top: 1rem; padding-top: 1rem; }
  </style>
</head>
<body>
<div class="shell">
  <aside>
    <h2>Settings</h2>
    <form method="get" action="/">
      <label for="sheet_id">Google Sheet ID</label>
      <input id="sheet_id" name="sheet_id" value="{{ .SheetID }}" placeholder="1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" />
      <label for="sheet_name">Sheet Name</label>
      <input id="sheet_name" name="sheet_name" value="{{ .SheetName }}" />
      <button type="submit">Load</button>
    </form>
    <form method="post" action="/refresh">
      <input type="hidden" name="sheet_id" value="{{ .SheetID }}" />
      <input type="hidden" name="sheet_name" value="{{ .SheetName }}" />
      <button type="submit" class="refresh">Refresh Data</button>
    </form>
    <p class="note"><strong>Note:</strong> Data is cached for {{ .CacheTTL }}.</p>
  </aside>
  <main>
    <h1>{{ .Title }}</h1>
    <p>Browse our product collection with detailed information in Kurdish and Arabic</p>
    {{- range .Diagnostics }}
    <div class="notice {{ .Level }}" data-code="{{ .Code }}">
      <strong>{{ .Title }}</strong>
      {{- if .Detail }}<div class="detail">{{ .Detail }}</div>{{ end }}
      {{- if .Hint }}<div class="hint">{{ .Hint }}</div>{{ end }}
    </div>
    {{- end }}
    {{- if .Loaded }}
    <div class="notice success">Loaded {{ len .Gallery.Units }} products</div>
    {{- end }}
    {{- if not .SheetID }}
    <details class="help">
      <summary>How to get your Google Sheet ID</summary>
      <ol>
        <li>Open your Google Sheet</li>
        <li>Look at the URL in your browser</li>
        <li>The Sheet ID is the long string between <code>/d/</code> and <code>/edit</code></li>
      </ol>
      <p>Example URL: <code>https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit</code></p>
      <p>You can also paste the whole URL into the form.</p>
    </details>
    {{- end }}
    {{- range .Cards }}
    {{ . }}
    {{- end }}
  </main>
</div>
</body>
</html>
`))
