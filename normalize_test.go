package tabextract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		res := Normalize("Hello world", nil)
		assert.Equal(t, PlainText{Text: "Hello world"}, res)
		assert.Equal(t, map[string]any{"extracted_text": "Hello world"}, res.Map())
	})

	t.Run("error wrapper", func(t *testing.T) {
		res := Normalize("ignored", errors.New("invalid api key"))
		assert.Equal(t, KindError, res.Kind())
		assert.Equal(t, map[string]any{"error": "invalid api key"}, res.Map())
		assert.True(t, IsFailure(res))
	})

	t.Run("round trip", func(t *testing.T) {
		raw := `{"Email":"info@acme.test","Phone":null,"Employees":1200,"Tags":["b2b","saas"],"HQ":{"City":"Berlin"}}`
		res := Normalize(raw, nil)
		require.Equal(t, KindStructured, res.Kind())

		var want map[string]any
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&want))
		assert.Equal(t, want, res.(Structured).Fields)
	})

	t.Run("large integers keep precision", func(t *testing.T) {
		res := Normalize(`{"id": 9007199254740993}`, nil)
		require.Equal(t, KindStructured, res.Kind())
		assert.Equal(t, json.Number("9007199254740993"), res.Map()["id"])
	})

	t.Run("code fences", func(t *testing.T) {
		res := Normalize("```json\n{\"a\": \"b\"}\n```", nil)
		require.Equal(t, KindStructured, res.Kind())
		assert.Equal(t, "b", res.Map()["a"])
	})

	t.Run("non-object json is text", func(t *testing.T) {
		for _, raw := range []string{`["a","b"]`, `42`, `"quoted"`, `null`} {
			res := Normalize(raw, nil)
			assert.Equal(t, PlainText{Text: raw}, res, raw)
		}
	})

	t.Run("trailing garbage is text", func(t *testing.T) {
		raw := `{"a":1} and more`
		assert.Equal(t, PlainText{Text: raw}, Normalize(raw, nil))
	})

	t.Run("broken json is text", func(t *testing.T) {
		raw := `{"a": `
		assert.Equal(t, PlainText{Text: raw}, Normalize(raw, nil))
	})

	t.Run("text keeps original bytes", func(t *testing.T) {
		raw := "  Email: x@y.test\n\nPhone: 123  "
		assert.Equal(t, PlainText{Text: raw}, Normalize(raw, nil))
	})
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"structured", Structured{Fields: map[string]any{"Email": "a@b.test"}}, `{"Email":"a@b.test"}`},
		{"empty structured", Structured{}, `{}`},
		{"text", PlainText{Text: "Hello world"}, `{"extracted_text":"Hello world"}`},
		{"failure", Failure{Message: "boom"}, `{"error":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.res)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestSanitizeJSONResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(SanitizeJSONResponse([]byte("  ```json\n{\"a\":1}\n```  "))))
	assert.Equal(t, `{"a":1}`, string(SanitizeJSONResponse([]byte("```\n{\"a\":1}```"))))
	assert.Equal(t, `plain`, string(SanitizeJSONResponse([]byte(" plain "))))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		Structured{}, PlainText{Text: "x"}, Failure{Message: "e"}, Failure{Message: "f"},
	})
	assert.Equal(t, Summary{Total: 4, Structured: 1, Text: 1, Failed: 2}, s)
}
