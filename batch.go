package tabextract

import (
	"context"
	"log/slog"
	"time"
)

// Extractor runs a prompt template over a sequence of rows, one row at a
// time, and returns one Result per row.
type Extractor struct {
	client   *Client
	enricher Enricher
	onRow    func(int, Result)
	log      *slog.Logger
}

// New returns an Extractor calling inv through a Client configured by optFns.
func New(inv Invoker, optFns ...func(*Options)) *Extractor {
	opts := buildOptions(optFns)
	return &Extractor{
		client:   &Client{invoker: inv, opts: opts, log: opts.logger()},
		enricher: opts.Enricher,
		onRow:    opts.OnRow,
		log:      opts.logger(),
	}
}

// Client exposes the underlying extraction client.
func (x *Extractor) Client() *Client { return x.client }

// RunBatch extracts every row in input order and never fails: the returned
// slice has len(rows) entries and entry i always belongs to rows[i]. A row
// whose extraction fails gets a Failure result and the batch moves on.
// Once ctx is done the remaining rows are filled with Failure results without
// calling the model.
func (x *Extractor) RunBatch(ctx context.Context, rows []Row, tpl string) []Result {
	start := time.Now()
	results := make([]Result, 0, len(rows))
	x.log.Info("Batch started", "rows", len(rows), "enriched", x.enricher != nil)

	for i, row := range rows {
		res := x.runRow(ctx, i, row, tpl)
		results = append(results, res)
		if x.onRow != nil {
			x.onRow(i, res)
		}
	}

	s := Summarize(results)
	x.log.Info("Batch completed",
		"rows", s.Total,
		"structured", s.Structured,
		"text", s.Text,
		"failed", s.Failed,
		"duration", time.Since(start))
	return results
}

func (x *Extractor) runRow(ctx context.Context, i int, row Row, tpl string) Result {
	if err := ctx.Err(); err != nil {
		return Normalize("", err)
	}
	if x.enricher != nil {
		enriched, err := x.enricher.Enrich(ctx, row)
		if err != nil {
			x.log.Warn("Enrichment failed, using row as read", "row", i, "error", err)
		} else {
			row = enriched
		}
	}
	prompt := Render(tpl, row)
	raw, attempts, err := x.client.ExtractWithAttempts(ctx, prompt)
	res := Normalize(raw, err)
	x.log.Debug("Row extracted", "row", i, "attempts", attempts, "kind", res.Kind())
	return res
}

// Preview renders tpl for each row without calling the model. Enrichment is
// not applied.
func Preview(rows []Row, tpl string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = Render(tpl, r)
	}
	return out
}
