package tabextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Client sends substituted prompts to an Invoker under a retry policy and a
// per-attempt timeout. A Client holds no conversation state; every Extract is
// independent.
type Client struct {
	invoker Invoker
	opts    Options
	log     *slog.Logger
}

// NewClient builds a Client around inv.
func NewClient(inv Invoker, optFns ...func(*Options)) *Client {
	opts := buildOptions(optFns)
	return &Client{invoker: inv, opts: opts, log: opts.logger()}
}

// Extract returns the raw model output for prompt.
func (c *Client) Extract(ctx context.Context, prompt string) (string, error) {
	out, _, err := c.ExtractWithAttempts(ctx, prompt)
	return out, err
}

// ExtractWithAttempts is Extract that also reports how many attempts were made.
func (c *Client) ExtractWithAttempts(ctx context.Context, prompt string) (string, int, error) {
	if c.invoker == nil {
		return "", 0, Fatal(ErrNoInvoker)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", 0, Fatal(ErrEmptyPrompt)
	}

	model := Model(c.opts.Model)
	timeout := c.opts.timeout()
	c.log.Debug("Calling model", "model", model, "prompt_length", len(prompt), "timeout", timeout)

	var out []byte
	attempts, err := c.opts.retryPolicy().Do(ctx, c.log, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		raw, genErr := c.invoker.Generate(callCtx, model, prompt)
		if genErr != nil {
			return genErr
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			return Transient(ErrEmptyResponse)
		}
		out = raw
		return nil
	})
	if err != nil {
		return "", attempts, fmt.Errorf("extract: %w", err)
	}
	c.log.Debug("Model call completed", "attempts", attempts, "response_length", len(out))
	return string(out), attempts, nil
}
