// Package ingestion reads the flat inputs of the pipeline: CSV exports and
// the compressed dYdX APR blob.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// Table is a CSV file held as strings. Type coercion is left to the normalizers.
type Table struct {
	Name    string
	Header  []string
	Records [][]string
	index   map[string]int
}

// ReadOption configures ReadCSV.
type ReadOption func(*readOptions)

type readOptions struct {
	names []string
}

// WithColumnNames discards the file's header row and names the columns
// positionally instead.
func WithColumnNames(names ...string) ReadOption {
	return func(o *readOptions) {
		o.names = names
	}
}

// ReadCSV reads a CSV document whose first row is a header.
func ReadCSV(r io.Reader, name string, opts ...ReadOption) (*Table, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: empty file", name)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if o.names != nil {
		header = o.names
	}

	t := NewTable(name, header)
	for _, row := range rows[1:] {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		t.Append(row)
	}
	return t, nil
}

// ReadFile reads a CSV file from fsys.
func ReadFile(fsys fs.FS, path string, opts ...ReadOption) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, path, opts...)
}

// NewTable creates an empty table.
func NewTable(name string, header []string) *Table {
	t := &Table{Name: name, Header: header, index: make(map[string]int, len(header))}
	for i, col := range header {
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
	return t
}

// Append adds a record, padding or truncating it to the header width.
func (t *Table) Append(record []string) {
	row := make([]string, len(t.Header))
	copy(row, record)
	t.Records = append(t.Records, row)
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Has reports whether the table has a column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Column returns the values of a column.
func (t *Table) Column(col string) ([]string, error) {
	i, ok := t.index[col]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", t.Name, ErrMissingColumn, col)
	}
	out := make([]string, len(t.Records))
	for r, rec := range t.Records {
		out[r] = rec[i]
	}
	return out, nil
}

// Columns returns the values of several columns, failing on the first absent one.
func (t *Table) Columns(cols ...string) ([][]string, error) {
	out := make([][]string, len(cols))
	for i, col := range cols {
		values, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		out[i] = values
	}
	return out, nil
}

// DropDuplicateRecords removes records identical to an earlier record.
func (t *Table) DropDuplicateRecords() *Table {
	out := NewTable(t.Name, t.Header)
	seen := make(map[string]bool, len(t.Records))
	for _, rec := range t.Records {
		key := strings.Join(rec, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Records = append(out.Records, rec)
	}
	return out
}

// WriteCSV writes the table with its header.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}
