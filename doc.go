// Package tabextract fills a table with information pulled from a large
// language model, one row at a time.
//
// # Pipeline
//
// Each row of a table passes through four steps:
//
//   - Enrich (optional): an Enricher, typically a SearchEnricher, attaches
//     web-search context to the row under the search_context column.
//   - Render: Render substitutes {column} placeholders in the prompt template
//     with the row's values. Unknown placeholders are left in place.
//   - Extract: a Client sends the prompt through an Invoker, retrying
//     transient failures under a RetryPolicy.
//   - Normalize: Normalize turns the answer or the error into a Result.
//
// # Basic Usage
//
//	inv := llm.NewGroq(os.Getenv("GROQ_API_KEY"))
//	x := tabextract.New(inv, tabextract.WithModel(llm.DefaultGroqModel))
//
//	rows := []tabextract.Row{
//	    tabextract.NewRow([]string{"Company"}, []any{"Acme"}),
//	    tabextract.NewRow([]string{"Company"}, []any{"Globex"}),
//	}
//	results := x.RunBatch(ctx, rows, "Get me the {Email} for {Company}.")
//
// RunBatch always returns len(rows) results, index-aligned with rows. Rows
// are processed sequentially and a failed row never stops the batch.
//
// # Results
//
// Result has exactly three shapes:
//
//   - Structured: the answer parsed as a JSON object.
//   - PlainText: any other answer, serialized as {"extracted_text": "..."}.
//   - Failure: the row could not be extracted, serialized as {"error": "..."}.
//
// Callers tell failures apart with Kind or IsFailure.
//
// # Errors and Retries
//
// Invokers report TransientError for rate limits, timeouts and upstream
// outages, and FatalError for bad credentials and malformed requests.
// DefaultRetryPolicy makes up to three attempts, waiting 4s between them
// (exponential from 1s, floored at 4s, capped at 10s). Fatal errors are never
// retried. Every attempt runs under its own timeout, DefaultTimeout unless
// WithTimeout says otherwise.
//
// # Prompts
//
// GeneratePrompt builds "Get me the {Email}, {Phone} for {Company}." from a
// field and entity selection. PromptLibrary serves named presets written as
// Twig templates; Twig expressions are evaluated first and the remaining
// {column} placeholders are left for Render.
//
// # Sessions
//
// Session holds one user's selection and run history explicitly; HTTP
// handlers and commands receive it as a value instead of reading global state.
package tabextract
