// Package export serializes extraction records as CSV, JSON or Excel.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vivaneiona/tabextract"
)

// Format is an export file format.
type Format string

const (
	CSV   Format = "csv"
	JSON  Format = "json"
	Excel Format = "excel"
)

// Formats lists every supported format.
var Formats = []Format{CSV, JSON, Excel}

// Header is the column layout shared by every tabular format.
var Header = []string{"Entity", "Extracted_Information"}

// SheetName is the worksheet written by the Excel format.
const SheetName = "Sheet1"

// ParseFormat accepts format names case-insensitively; "xlsx" is an alias
// for Excel.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "excel", "xlsx":
		return Excel, nil
	}
	return "", errors.Errorf("unknown export format %q", s)
}

// FileName is the download name for f.
func (f Format) FileName() string {
	switch f {
	case JSON:
		return "extracted_data.json"
	case Excel:
		return "extracted_data.xlsx"
	default:
		return "extracted_data.csv"
	}
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case Excel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Write serializes records to w in format f.
func Write(w io.Writer, f Format, records []tabextract.Record) error {
	switch f {
	case CSV:
		return writeCSV(w, records)
	case JSON:
		return writeJSON(w, records)
	case Excel:
		return writeExcel(w, records)
	}
	return errors.Errorf("unknown export format %q", f)
}

// Rows flattens records into string cells under Header.
func Rows(records []tabextract.Record) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{r.Entity, r.InfoJSON()}
	}
	return out
}

func writeCSV(w io.Writer, records []tabextract.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	if err := cw.WriteAll(Rows(records)); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

func writeJSON(w io.Writer, records []tabextract.Record) error {
	if records == nil {
		records = []tabextract.Record{}
	}
	return errors.Wrap(json.NewEncoder(w).Encode(records), "write json")
}

func writeExcel(w io.Writer, records []tabextract.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "write excel header")
	}
	for i, row := range Rows(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := []any{row[0], row[1]}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return errors.Wrapf(err, "write excel row %d", i+1)
		}
	}
	_, err := f.WriteTo(w)
	return errors.Wrap(err, "write excel")
}

// WriteFiles writes records to dir once per format, concurrently, and
// returns the written paths in the order of formats.
func WriteFiles(ctx context.Context, dir string, formats []Format, records []tabextract.Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, f.FileName())
			if err := writeFile(path, f, records); err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFile(path string, f Format, records []tabextract.Record) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(out, f, records)
}
