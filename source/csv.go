package source

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// ErrEmptyTable is returned when an upload has no header line.
var ErrEmptyTable = errors.New("table has no header")

// ReadCSV reads a comma separated table whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	return FromRecords(records[0], records[1:]), nil
}
