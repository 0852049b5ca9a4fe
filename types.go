package tabextract

import (
	"context"
	"log/slog"
	"time"
)

// Model identifies the model an Invoker should call.
type Model string

// DefaultTimeout bounds a single model call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Invoker sends one prompt to a text-generation backend and returns the raw
// model output. Implementations make exactly one network call per Generate
// and should return TransientError or FatalError where they can tell which.
type Invoker interface {
	Generate(ctx context.Context, model Model, prompt string) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, model Model, prompt string) ([]byte, error)

func (f InvokerFunc) Generate(ctx context.Context, model Model, prompt string) ([]byte, error) {
	return f(ctx, model, prompt)
}

// Options represents functional options for clients and extractors.
type Options struct {
	Model    string
	Timeout  time.Duration     // per attempt; 0 → DefaultTimeout
	Retry    *RetryPolicy      // nil → DefaultRetryPolicy
	Enricher Enricher          // nil → rows are used as read
	OnRow    func(int, Result) // called after each row, in order
	Logger   *slog.Logger      // nil → slog.Default()
}

func (o *Options) retryPolicy() RetryPolicy {
	if o.Retry == nil {
		return DefaultRetryPolicy()
	}
	return *o.Retry
}

func (o *Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Functional option constructors
func WithModel(name string) func(*Options) {
	return func(o *Options) { o.Model = name }
}

func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.Timeout = d }
}

func WithRetry(p RetryPolicy) func(*Options) {
	return func(o *Options) { o.Retry = &p }
}

func WithEnricher(e Enricher) func(*Options) {
	return func(o *Options) { o.Enricher = e }
}

// WithProgress registers a callback invoked with each row's result as soon as
// it is known.
func WithProgress(fn func(index int, res Result)) func(*Options) {
	return func(o *Options) { o.OnRow = fn }
}

func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(optFns []func(*Options)) Options {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
