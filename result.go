package tabextract

import (
	"encoding/json"
)

// Kind tags the shape of a Result.
type Kind string

const (
	KindStructured Kind = "structured"
	KindText       Kind = "text"
	KindError      Kind = "error"
)

// Wire keys of the plain-text and error shapes.
const (
	TextKey  = "extracted_text"
	ErrorKey = "error"
)

// Result is the normalized outcome of extracting one row. It is one of
// Structured, PlainText or Failure; the set is closed.
type Result interface {
	Kind() Kind
	// Map returns the result in its wire shape: the parsed fields,
	// {"extracted_text": ...} or {"error": ...}.
	Map() map[string]any
	isResult()
}

// Structured holds a model answer that parsed as a JSON object.
type Structured struct {
	Fields map[string]any
}

// PlainText holds a model answer that was not a JSON object.
type PlainText struct {
	Text string
}

// Failure holds the message of an extraction that did not produce an answer.
type Failure struct {
	Message string
}

func (Structured) Kind() Kind { return KindStructured }
func (PlainText) Kind() Kind  { return KindText }
func (Failure) Kind() Kind    { return KindError }

func (Structured) isResult() {}
func (PlainText) isResult()  {}
func (Failure) isResult()    {}

func (s Structured) Map() map[string]any {
	out := make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		out[k] = v
	}
	return out
}

func (p PlainText) Map() map[string]any { return map[string]any{TextKey: p.Text} }

func (f Failure) Map() map[string]any { return map[string]any{ErrorKey: f.Message} }

func (s Structured) MarshalJSON() ([]byte, error) {
	if s.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Fields)
}

func (p PlainText) MarshalJSON() ([]byte, error) { return json.Marshal(p.Map()) }

func (f Failure) MarshalJSON() ([]byte, error) { return json.Marshal(f.Map()) }

// IsFailure reports whether r is the error shape.
func IsFailure(r Result) bool {
	return r != nil && r.Kind() == KindError
}

// Summary counts results by kind.
type Summary struct {
	Total      int `json:"total"`
	Structured int `json:"structured"`
	Text       int `json:"text"`
	Failed     int `json:"failed"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Kind() {
		case KindStructured:
			s.Structured++
		case KindText:
			s.Text++
		case KindError:
			s.Failed++
		}
	}
	return s
}
