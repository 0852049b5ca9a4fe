package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vivaneiona/tabextract"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the caller does not name a model.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini calls the Gemini API through the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	log    *slog.Logger
}

// GeminiConfig carries what NewGemini needs to build a client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // optional, for proxies and tests
}

// NewGemini creates a Gemini invoker backed by a new genai.Client.
func NewGemini(ctx context.Context, cfg GeminiConfig, log *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewGeminiFromClient(client, log), nil
}

// NewGeminiFromClient wraps an existing genai.Client.
func NewGeminiFromClient(client *genai.Client, log *slog.Logger) *Gemini {
	if log == nil {
		log = slog.Default()
	}
	return &Gemini{client: client, log: log}
}

// Generate implements tabextract.Invoker.
func (g *Gemini) Generate(ctx context.Context, model tabextract.Model, prompt string) ([]byte, error) {
	if g.client == nil {
		return nil, tabextract.Fatal(fmt.Errorf("client not initialized"))
	}
	name := string(model)
	if name == "" {
		name = DefaultGeminiModel
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	g.log.Debug("Generating content", "model", name, "prompt_length", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, name, contents, nil)
	if err != nil {
		return nil, classifyGenAI(ctx, fmt.Errorf("generate content: %w", err))
	}

	if len(resp.Candidates) == 0 {
		g.log.Debug("No candidates in response")
		return nil, tabextract.Transient(fmt.Errorf("no candidates in response"))
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, tabextract.Transient(fmt.Errorf("no parts in candidate content"))
	}

	var text string
	for _, p := range candidate.Content.Parts {
		text += p.Text
	}
	if text == "" {
		return nil, tabextract.Transient(tabextract.ErrEmptyResponse)
	}
	g.log.Debug("Generated content successfully", "response_length", len(text))
	return []byte(text), nil
}

// classifyGenAI tags SDK errors by HTTP status. Errors without a status are
// network-level and count as transient unless the caller cancelled.
func classifyGenAI(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return tabextract.ClassifyStatus(apiErr.Code, err)
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	return tabextract.Transient(err)
}
