// Package source loads tables from CSV and Excel uploads.
package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/vivaneiona/tabextract"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table is an ordered set of rows sharing one header.
type Table struct {
	Columns []string
	Rows    []tabextract.Row
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Head returns the first n rows, or all of them when n <= 0.
func (t *Table) Head(n int) []tabextract.Row {
	if n <= 0 || n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// Select projects every row onto cols. Unknown columns are dropped.
func (t *Table) Select(cols ...string) *Table {
	keep := make([]string, 0, len(cols))
	for _, c := range cols {
		for _, have := range t.Columns {
			if c == have {
				keep = append(keep, c)
				break
			}
		}
	}
	out := &Table{Columns: keep, Rows: make([]tabextract.Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = r.Select(keep...)
	}
	return out
}

// Open reads a CSV or XLSX file from disk.
func Open(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Load(filepath.Base(path), data)
}

// Load decodes an upload, picking the reader from its content and falling
// back to the file extension.
func Load(name string, data []byte) (*Table, error) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case mt.Is(xlsxMIME) || ext == ".xlsx":
		return ReadXLSX(bytes.NewReader(data), "")
	case mt.Is("text/csv") || mt.Is("text/plain") || ext == ".csv":
		return ReadCSV(bytes.NewReader(data))
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%s (%s)", name, mt.String())
}

// FromRecords builds a table from a header line and raw string records.
// Cells are trimmed, blank cells become nil and cells holding a canonical
// decimal number become int64 or float64. Short records are padded with nil.
func FromRecords(header []string, records [][]string) *Table {
	cols := normalizeHeader(header)
	t := &Table{Columns: cols, Rows: make([]tabextract.Row, 0, len(records))}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		vals := make([]any, len(cols))
		for i := range cols {
			if i < len(rec) {
				vals[i] = parseCell(rec[i])
			}
		}
		t.Rows = append(t.Rows, tabextract.NewRow(cols, vals))
	}
	return t
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.TrimSpace(norm.NFKC.String(h))
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = h + "." + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// only canonical decimals become numbers; zip codes, long IDs, "NaN"
	// and the like keep their text
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") &&
		strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	return s
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	return data, errors.Wrap(err, "read input")
}
