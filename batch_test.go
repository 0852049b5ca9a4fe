package tabextract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func companyRows(names ...string) []Row {
	rows := make([]Row, len(names))
	for i, n := range names {
		rows[i] = NewRow([]string{"Company"}, []any{n})
	}
	return rows
}

func TestExtractor_RunBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("length and order", func(t *testing.T) {
		f := &FakeInvoker{Respond: func(p string, _ int) (string, error) {
			return fmt.Sprintf(`{"prompt":%q}`, p), nil
		}}
		names := []string{"a", "b", "c", "d", "e"}
		results := NewForTesting(f).RunBatch(ctx, companyRows(names...), "about {Company}")
		require.Len(t, results, len(names))
		for i, n := range names {
			assert.Equal(t, "about "+n, results[i].Map()["prompt"])
		}
		assert.Equal(t, []string{"about a", "about b", "about c", "about d", "about e"}, f.Calls())
	})

	t.Run("empty batch", func(t *testing.T) {
		results := NewForTesting(&FakeInvoker{}).RunBatch(ctx, nil, "x")
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("middle row fails fatally", func(t *testing.T) {
		f := &FakeInvoker{Respond: func(p string, _ int) (string, error) {
			if strings.Contains(p, "Globex") {
				return "", Fatalf("invalid request")
			}
			return `{"ok":true}`, nil
		}}
		results := NewForTesting(f).RunBatch(ctx, companyRows("Acme", "Globex", "Initech"), "Info on {Company}")
		require.Len(t, results, 3)
		assert.Equal(t, KindStructured, results[0].Kind())
		assert.Equal(t, KindError, results[1].Kind())
		assert.Equal(t, "extract: invalid request", results[1].Map()["error"])
		assert.Equal(t, KindStructured, results[2].Kind())
		assert.Len(t, f.Calls(), 3)
	})

	t.Run("transient row recovers", func(t *testing.T) {
		f := &FakeInvoker{Respond: func(p string, n int) (string, error) {
			if p == "Globex" && n < 3 {
				return "", Transientf("rate limited")
			}
			return "Hello world", nil
		}}
		results := NewForTesting(f).RunBatch(ctx, companyRows("Acme", "Globex"), "{Company}")
		require.Len(t, results, 2)
		assert.Equal(t, PlainText{Text: "Hello world"}, results[1])
		assert.Len(t, f.Calls(), 4)
	})

	t.Run("rows are not mutated", func(t *testing.T) {
		rows := companyRows("Acme")
		before := rows[0].Map()
		NewForTesting(&FakeInvoker{}, WithEnricher(staticEnricher{"ctx"})).RunBatch(ctx, rows, "{Company}")
		assert.Equal(t, before, rows[0].Map())
	})

	t.Run("progress callback in order", func(t *testing.T) {
		var seen []int
		x := NewForTesting(&FakeInvoker{}, WithProgress(func(i int, r Result) {
			seen = append(seen, i)
			assert.NotNil(t, r)
		}))
		x.RunBatch(ctx, companyRows("a", "b", "c"), "{Company}")
		assert.Equal(t, []int{0, 1, 2}, seen)
	})

	t.Run("cancelled context fills remaining rows", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		f := &FakeInvoker{Respond: func(p string, _ int) (string, error) {
			if p == "a" {
				cancel()
			}
			return "done", nil
		}}
		results := NewForTesting(f).RunBatch(cctx, companyRows("a", "b", "c"), "{Company}")
		require.Len(t, results, 3)
		assert.Equal(t, PlainText{Text: "done"}, results[0])
		assert.True(t, IsFailure(results[1]))
		assert.True(t, IsFailure(results[2]))
		assert.Equal(t, []string{"a"}, f.Calls())
	})

	t.Run("enrichment feeds the template", func(t *testing.T) {
		f := &FakeInvoker{Respond: func(p string, _ int) (string, error) { return p, nil }}
		x := NewForTesting(f, WithEnricher(staticEnricher{"found it"}))
		results := x.RunBatch(ctx, companyRows("Acme"), "{Company}: {search_context}")
		assert.Equal(t, PlainText{Text: "Acme: found it"}, results[0])
	})

	t.Run("enrichment failure keeps the row", func(t *testing.T) {
		f := &FakeInvoker{Respond: func(p string, _ int) (string, error) { return p, nil }}
		x := NewForTesting(f, WithEnricher(failingEnricher{}))
		results := x.RunBatch(ctx, companyRows("Acme"), "{Company}: {search_context}")
		assert.Equal(t, PlainText{Text: "Acme: {search_context}"}, results[0])
	})
}

type staticEnricher struct{ text string }

func (s staticEnricher) Enrich(_ context.Context, r Row) (Row, error) {
	return r.With(SearchContextColumn, s.text), nil
}

type failingEnricher struct{}

func (failingEnricher) Enrich(_ context.Context, r Row) (Row, error) {
	return r, errors.New("search quota exceeded")
}

func TestPreview(t *testing.T) {
	got := Preview(companyRows("Acme", "Globex"), "Hi {Company} {Missing}")
	assert.Equal(t, []string{"Hi Acme {Missing}", "Hi Globex {Missing}"}, got)
}
