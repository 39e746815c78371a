package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook reads ranges from a local .xlsx file instead of the Sheets API.
// The spreadsheet id is ignored; the range names the tab, optionally with
// an A1 cell range ("Products!A1:F200").
type Workbook struct {
	mu   sync.Mutex
	f    *excelize.File
	path string
}

// OpenWorkbook opens the workbook at path.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ReadRange returns the rows of the named tab.
func (w *Workbook) ReadRange(_ context.Context, spreadsheetID, rangeName string) ([][]string, error) {
	sheet, cells, _ := strings.Cut(rangeName, "!")
	sheet = strings.Trim(sheet, "'")

	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, err := w.f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, &RemoteError{
			Kind:          KindNotFound,
			SpreadsheetID: spreadsheetID,
			Range:         rangeName,
			Err:           fmt.Errorf("sheet %q not in %s", sheet, w.path),
		}
	}

	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if cells == "" {
		return rows, nil
	}
	return sliceA1(rows, cells)
}

// sliceA1 cuts rows down to an A1 range such as "A1:C10".
func sliceA1(rows [][]string, a1 string) ([][]string, error) {
	from, to, found := strings.Cut(a1, ":")
	if !found {
		to = from
	}
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", a1, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", a1, err)
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}

	var out [][]string
	for r := r1 - 1; r < r2 && r < len(rows); r++ {
		row := rows[r]
		var cut []string
		if c1-1 < len(row) {
			end := min(c2, len(row))
			cut = append(cut, row[c1-1:end]...)
		}
		out = append(out, cut)
	}
	return out, nil
}
