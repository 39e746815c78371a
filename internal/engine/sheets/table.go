package sheets

import (
	"encoding/json"
	"strings"
)

// Table is a sheet range split into a header and positional data rows.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one data row bound to its table's header.
type Row struct {
	cells []string
	index map[string]int
	num   int
}

// NewTable shapes raw range values: the first row names the columns and
// every following row is read positionally against it. ok is false when
// there are no rows or the header is blank.
func NewTable(values [][]string) (*Table, bool) {
	if len(values) == 0 || blankRow(values[0]) {
		return nil, false
	}

	header := append([]string(nil), values[0]...)
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	rows := make([]Row, 0, len(values)-1)
	for i, cells := range values[1:] {
		rows = append(rows, Row{
			cells: append([]string(nil), cells...),
			index: index,
			num:   i,
		})
	}
	return &Table{Header: header, Rows: rows}, true
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Lookup returns the cell under column col. ok is false when the column is
// unknown or the row is shorter than the header.
func (r Row) Lookup(col string) (value string, ok bool) {
	i, known := r.index[col]
	if !known || i >= len(r.cells) {
		return "", false
	}
	return r.cells[i], true
}

// Index is the zero-based position of the row among the data rows.
func (r Row) Index() int { return r.num }

// Values returns a copy of the raw cells.
func (r Row) Values() []string { return append([]string(nil), r.cells...) }

// Map returns the row keyed by column name; absent trailing columns are left out.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.index))
	for name, i := range r.index {
		if i < len(r.cells) {
			m[name] = r.cells[i]
		}
	}
	return m
}

type tableJSON struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// MarshalJSON encodes the table as header plus raw rows.
func (t *Table) MarshalJSON() ([]byte, error) {
	tj := tableJSON{Header: t.Header, Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		tj.Rows[i] = r.cells
	}
	return json.Marshal(tj)
}

// UnmarshalJSON rebuilds the table and its column index.
func (t *Table) UnmarshalJSON(data []byte) error {
	var tj tableJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	values := make([][]string, 0, len(tj.Rows)+1)
	values = append(values, tj.Header)
	values = append(values, tj.Rows...)
	built, ok := NewTable(values)
	if !ok {
		*t = Table{Header: tj.Header}
		return nil
	}
	*t = *built
	return nil
}
