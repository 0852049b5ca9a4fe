package tabextract

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Normalize turns the outcome of one extraction into a Result. A non-nil err
// yields Failure. Otherwise raw is parsed as a JSON object (after trimming
// whitespace and Markdown code fences); success yields Structured with
// numbers kept as json.Number, anything else yields PlainText holding raw
// unchanged. Normalize never fails.
func Normalize(raw string, err error) Result {
	if err != nil {
		return Failure{Message: err.Error()}
	}
	if fields, ok := parseObject(raw); ok {
		return Structured{Fields: fields}
	}
	return PlainText{Text: raw}
}

func parseObject(raw string) (map[string]any, bool) {
	b := SanitizeJSONResponse([]byte(raw))
	if len(b) == 0 || b[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return m, true
}

// SanitizeJSONResponse removes the wrapping LLMs often put around JSON:
// surrounding whitespace and ``` / ```json fences.
func SanitizeJSONResponse(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}
