package tabextract

import (
	"encoding/json"
	"fmt"
)

// Record pairs an entity label with the result extracted for its row. It is
// the unit handed to export sinks and spreadsheet writers.
type Record struct {
	Entity string `json:"Entity"`
	Info   Result `json:"Extracted_Information"`
}

// Records pairs rows with their results, labelling each with the value of
// entityColumn. When entityColumn is empty the 1-based row number is used.
// rows and results must be index-aligned.
func Records(rows []Row, entityColumn string, results []Result) []Record {
	out := make([]Record, len(results))
	for i, res := range results {
		label := fmt.Sprint(i + 1)
		if entityColumn != "" && i < len(rows) {
			label = rows[i].String(entityColumn)
		}
		out[i] = Record{Entity: label, Info: res}
	}
	return out
}

// InfoJSON returns the JSON form of the record's result.
func (r Record) InfoJSON() string {
	if r.Info == nil {
		return "null"
	}
	b, err := json.Marshal(r.Info)
	if err != nil {
		return fmt.Sprintf("{%q:%q}", ErrorKey, err.Error())
	}
	return string(b)
}
