package tabextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SearchContextColumn is the column a SearchEnricher adds to each row.
const SearchContextColumn = "search_context"

// Intensity bounds.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// Enricher augments a row before its prompt is rendered. It must return a new
// Row and leave the input untouched.
type Enricher interface {
	Enrich(ctx context.Context, row Row) (Row, error)
}

// SearchHit is one web-search result.
type SearchHit struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// Searcher runs a web search and returns at most limit hits in rank order.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// SearchEnricher attaches web-search context to each row under
// SearchContextColumn. Templates reference it as {search_context}.
type SearchEnricher struct {
	searcher  Searcher
	query     string
	intensity int
	log       *slog.Logger
}

// NewSearchEnricher builds an enricher. query is a placeholder template
// rendered against the row to form the search query; when empty, the row's
// non-empty values joined by spaces are used. Batches hand the enricher rows
// projected onto the entity columns, so that default is the entity values. intensity is clamped to
// [MinIntensity, MaxIntensity] and bounds the hits attached per row.
func NewSearchEnricher(s Searcher, query string, intensity int, log *slog.Logger) *SearchEnricher {
	if log == nil {
		log = slog.Default()
	}
	return &SearchEnricher{
		searcher:  s,
		query:     query,
		intensity: ClampIntensity(intensity),
		log:       log,
	}
}

// ClampIntensity forces n into [MinIntensity, MaxIntensity].
func ClampIntensity(n int) int {
	if n < MinIntensity {
		return MinIntensity
	}
	if n > MaxIntensity {
		return MaxIntensity
	}
	return n
}

// Intensity returns the effective hit bound.
func (e *SearchEnricher) Intensity() int { return e.intensity }

// Query renders the search query for row.
func (e *SearchEnricher) Query(row Row) string {
	if e.query != "" {
		return strings.TrimSpace(Render(e.query, row))
	}
	parts := make([]string, 0, row.Len())
	for _, k := range row.keys {
		if s := strings.TrimSpace(row.String(k)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (e *SearchEnricher) Enrich(ctx context.Context, row Row) (Row, error) {
	q := e.Query(row)
	if q == "" {
		return row, nil
	}
	hits, err := e.searcher.Search(ctx, q, e.intensity)
	if err != nil {
		return row, fmt.Errorf("search %q: %w", q, err)
	}
	if len(hits) > e.intensity {
		hits = hits[:e.intensity]
	}
	e.log.Debug("Attached search context", "query", q, "hits", len(hits))
	return row.With(SearchContextColumn, FormatHits(hits)), nil
}

// FormatHits renders hits one per line as "n. title: snippet (link)".
func FormatHits(hits []SearchHit) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, h.Title)
		if h.Snippet != "" {
			fmt.Fprintf(&b, ": %s", h.Snippet)
		}
		if h.Link != "" {
			fmt.Fprintf(&b, " (%s)", h.Link)
		}
	}
	return b.String()
}
