package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a fully materialized delimited source file.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses CSV with a header row. Header names are trimmed and short
// rows are padded so every row has one cell per column. Duplicate header names
// and rows wider than the header fail the whole table.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{
		Header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if first, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q at positions %d and %d", name, first+1, i+1)
		}
		t.Header[i] = name
		t.index[name] = i
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if isBlankRecord(record) {
			continue
		}
		if len(record) > len(t.Header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(t.Header), len(record))
		}
		row := make([]string, len(t.Header))
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Cell returns the raw value of column in row, or "" when the column is absent.
func (t *Table) Cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return row[i]
}

// Column returns every raw value of column in row order.
func (t *Table) Column(column string) []string {
	i, ok := t.index[column]
	if !ok {
		return nil
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values
}
