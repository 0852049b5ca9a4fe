package tabextract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	hits    []SearchHit
	err     error
	queries []string
	limits  []int
}

func (f *fakeSearcher) Search(_ context.Context, q string, limit int) ([]SearchHit, error) {
	f.queries = append(f.queries, q)
	f.limits = append(f.limits, limit)
	return f.hits, f.err
}

func manyHits(n int) []SearchHit {
	hits := make([]SearchHit, n)
	for i := range hits {
		hits[i] = SearchHit{Position: i + 1, Title: "T", Snippet: "S", Link: "https://example.test"}
	}
	return hits
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 1, ClampIntensity(0))
	assert.Equal(t, 1, ClampIntensity(-4))
	assert.Equal(t, 5, ClampIntensity(5))
	assert.Equal(t, 10, ClampIntensity(99))
}

func TestSearchEnricher(t *testing.T) {
	ctx := context.Background()
	row := NewRow([]string{"Company", "City"}, []any{"Acme", "Berlin"})

	t.Run("bounded by intensity", func(t *testing.T) {
		s := &fakeSearcher{hits: manyHits(8)}
		e := NewSearchEnricher(s, "{Company} contact", 3, nil)
		out, err := e.Enrich(ctx, row)
		require.NoError(t, err)

		assert.Equal(t, []string{"Acme contact"}, s.queries)
		assert.Equal(t, []int{3}, s.limits)
		assert.Equal(t, []string{"Company", "City", SearchContextColumn}, out.Keys())
		assert.Equal(t, FormatHits(manyHits(3)), out.String(SearchContextColumn))
		assert.Equal(t, 2, row.Len())
	})

	t.Run("default query joins values", func(t *testing.T) {
		s := &fakeSearcher{}
		e := NewSearchEnricher(s, "", 50, nil)
		assert.Equal(t, 10, e.Intensity())
		_, err := e.Enrich(ctx, row)
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme Berlin"}, s.queries)
	})

	t.Run("blank query skips search", func(t *testing.T) {
		s := &fakeSearcher{}
		e := NewSearchEnricher(s, "", 3, nil)
		out, err := e.Enrich(ctx, NewRow([]string{"Company"}, []any{nil}))
		require.NoError(t, err)
		assert.Empty(t, s.queries)
		assert.Equal(t, 1, out.Len())
	})

	t.Run("search error", func(t *testing.T) {
		s := &fakeSearcher{err: errors.New("quota")}
		_, err := NewSearchEnricher(s, "", 3, nil).Enrich(ctx, row)
		assert.ErrorContains(t, err, "quota")
	})
}

func TestFormatHits(t *testing.T) {
	got := FormatHits([]SearchHit{
		{Title: "Acme Inc", Snippet: "Makers of things", Link: "https://acme.test"},
		{Title: "Bare"},
	})
	assert.Equal(t, "1. Acme Inc: Makers of things (https://acme.test)\n2. Bare", got)
}
