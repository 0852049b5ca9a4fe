package tabextract

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// FakeInvoker is an in-memory Invoker for tests. Respond receives the prompt
// and the 1-based number of times that prompt has been seen.
type FakeInvoker struct {
	Respond func(prompt string, attempt int) (string, error)

	mu     sync.Mutex
	calls  []string
	counts map[string]int
}

// Generate records the call and delegates to Respond. Without Respond it
// echoes the prompt back as {"prompt": ...}.
func (f *FakeInvoker) Generate(ctx context.Context, _ Model, prompt string) ([]byte, error) {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[prompt]++
	n := f.counts[prompt]
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Respond == nil {
		return json.Marshal(map[string]string{"prompt": prompt})
	}
	out, err := f.Respond(prompt, n)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Calls returns every prompt received, in order.
func (f *FakeInvoker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// FastRetryPolicy keeps the default attempt budget but waits only d between
// attempts, so retry paths can run inside tests.
func FastRetryPolicy(d time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MinWait, p.MaxWait, p.Multiplier = d, d, d
	return p
}

// NewForTesting creates an Extractor over a FakeInvoker with a fast retry
// policy.
func NewForTesting(f *FakeInvoker, optFns ...func(*Options)) *Extractor {
	optFns = append([]func(*Options){WithRetry(FastRetryPolicy(time.Millisecond))}, optFns...)
	return New(f, optFns...)
}
