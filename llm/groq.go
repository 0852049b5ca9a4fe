// Package llm provides tabextract.Invoker implementations for hosted models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vivaneiona/tabextract"
)

const (
	// DefaultGroqBaseURL is Groq's OpenAI-compatible API root.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultGroqModel is used when the caller does not name a model.
	DefaultGroqModel = "llama3-70b-8192"
)

// ErrMissingAPIKey is returned when an invoker has no credentials.
var ErrMissingAPIKey = errors.New("api key is not set")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Groq calls the chat completions endpoint with the prompt as a single user
// message.
type Groq struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// GroqOption configures a Groq invoker.
type GroqOption func(*Groq)

// WithBaseURL points the invoker at another OpenAI-compatible server.
func WithBaseURL(u string) GroqOption {
	return func(g *Groq) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GroqOption {
	return func(g *Groq) {
		if c != nil {
			g.client = c
		}
	}
}

// WithGroqLogger sets the logger.
func WithGroqLogger(l *slog.Logger) GroqOption {
	return func(g *Groq) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGroq returns a Groq invoker.
func NewGroq(apiKey string, opts ...GroqOption) *Groq {
	g := &Groq{
		apiKey:  apiKey,
		baseURL: DefaultGroqBaseURL,
		client:  &http.Client{},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate implements tabextract.Invoker.
func (g *Groq) Generate(ctx context.Context, model tabextract.Model, prompt string) ([]byte, error) {
	if g.apiKey == "" {
		return nil, tabextract.Fatal(ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGroqModel
	}

	payload, err := json.Marshal(chatRequest{
		Model:    string(model),
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, tabextract.Fatal(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, tabextract.Fatal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	g.log.Debug("Sending chat completion", "model", model, "prompt_length", len(prompt))
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, tabextract.Transient(fmt.Errorf("groq request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tabextract.Transient(fmt.Errorf("read response: %w", err))
	}

	var out chatResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		// unclassified statuses stay plain errors and are retried
		return nil, tabextract.ClassifyStatus(resp.StatusCode, fmt.Errorf("groq: %s: %s", resp.Status, msg))
	}
	if decodeErr != nil {
		return nil, tabextract.Transient(fmt.Errorf("decode response: %w", decodeErr))
	}
	if len(out.Choices) == 0 {
		return nil, tabextract.Transient(tabextract.ErrEmptyResponse)
	}

	content := out.Choices[0].Message.Content
	g.log.Debug("Received chat completion", "response_length", len(content))
	return []byte(content), nil
}
