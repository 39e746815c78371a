package gallery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_gallery/internal/engine"
	"github.com/anatolykoptev/go_gallery/internal/engine/sheets"
)

// URLColumn holds the media link of each product.
const URLColumn = "URL"

// TagGroup is one labelled tag string, e.g. Colors: "sor, şîn".
type TagGroup struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section groups the tags of one language.
type Section struct {
	Language string     `json:"language"`
	Flag     string     `json:"flag"`
	Dir      string     `json:"dir"`
	Groups   []TagGroup `json:"groups"`
}

// DisplayUnit is one product card: media preview plus tag sections.
type DisplayUnit struct {
	Index      int       `json:"index"`
	MediaURL   string    `json:"media_url"`
	Media      MediaKind `json:"media"`
	MediaError string    `json:"media_error,omitempty"`
	Sections   []Section `json:"sections"`
}

// Gallery is the rendered form of a table.
type Gallery struct {
	Units       []DisplayUnit `json:"units"`
	Skipped     int           `json:"skipped"`
	MediaErrors int           `json:"media_errors"`
}

type tagColumn struct {
	label   string
	columns []string // first present column wins
}

type language struct {
	name   string
	flag   string
	dir    string
	groups []tagColumn
}

// The catalog sheet names its Arabic color column "Arabic Colors Tags";
// the singular spelling is accepted too.
var languages = []language{
	{
		name: "Kurdish", flag: "🇮🇶", dir: "auto",
		groups: []tagColumn{
			{"Tags", []string{"Kurdish Tags"}},
			{"Colors", []string{"Kurdish Color Tags", "Kurdish Colors Tags"}},
			{"Materials", []string{"Kurdish Material Tags"}},
		},
	},
	{
		name: "Arabic", flag: "🇸🇦", dir: "rtl",
		groups: []tagColumn{
			{"Tags", []string{"Arabic Tags"}},
			{"Colors", []string{"Arabic Colors Tags", "Arabic Color Tags"}},
			{"Materials", []string{"Arabic Material Tags"}},
		},
	},
}

// cell is the render-side lookup policy: absent columns read as empty and
// values are trimmed.
func cell(row sheets.Row, columns ...string) string {
	for _, c := range columns {
		if v, ok := row.Lookup(c); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// RenderRow maps a row to a display unit. ok is false when the row has no
// media URL; such rows produce nothing at all.
func RenderRow(row sheets.Row) (unit DisplayUnit, ok bool) {
	mediaURL := cell(row, URLColumn)
	if mediaURL == "" {
		return DisplayUnit{}, false
	}

	unit = DisplayUnit{
		Index:    row.Index() + 1,
		MediaURL: mediaURL,
		Media:    Classify(mediaURL),
		Sections: make([]Section, 0, len(languages)),
	}
	if err := checkMediaURL(mediaURL); err != nil {
		unit.MediaError = err.Error()
	}

	for _, lang := range languages {
		sec := Section{Language: lang.name, Flag: lang.flag, Dir: lang.dir}
		for _, g := range lang.groups {
			if v := cell(row, g.columns...); v != "" {
				sec.Groups = append(sec.Groups, TagGroup{Label: g.label, Value: v})
			}
		}
		if len(sec.Groups) > 0 {
			unit.Sections = append(unit.Sections, sec)
		}
	}
	return unit, true
}

// checkMediaURL rejects links a browser cannot load as media.
func checkMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid media URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported media URL %q: want http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("media URL %q has no host", raw)
	}
	return nil
}

// RenderTable renders every row. A bad media link only marks its own unit.
func RenderTable(t *sheets.Table) Gallery {
	var g Gallery
	if t == nil {
		return g
	}
	g.Units = make([]DisplayUnit, 0, t.Len())
	for _, row := range t.Rows {
		unit, ok := RenderRow(row)
		if !ok {
			g.Skipped++
			continue
		}
		if unit.MediaError != "" {
			g.MediaErrors++
		}
		g.Units = append(g.Units, unit)
	}
	engine.AddRenderedUnits(len(g.Units))
	engine.AddSkippedRows(g.Skipped)
	engine.AddMediaErrors(g.MediaErrors)
	return g
}

// TagCount returns the number of non-empty tag groups across sections.
func (u DisplayUnit) TagCount() int {
	n := 0
	for _, s := range u.Sections {
		n += len(s.Groups)
	}
	return n
}
