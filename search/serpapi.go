// Package search implements tabextract.Searcher on top of web-search APIs.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vivaneiona/tabextract"
)

// DefaultSerpAPIBaseURL is the SerpAPI root.
const DefaultSerpAPIBaseURL = "https://serpapi.com"

// ErrMissingAPIKey is returned when no SerpAPI key is configured.
var ErrMissingAPIKey = errors.New("serpapi key is not set")

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
}

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	apiKey  string
	baseURL string
	engine  string
	client  *http.Client
	log     *slog.Logger
}

// NewSerpAPI returns a SerpAPI searcher. An empty baseURL selects the public
// endpoint.
func NewSerpAPI(apiKey, baseURL string, client *http.Client, log *slog.Logger) *SerpAPI {
	if baseURL == "" {
		baseURL = DefaultSerpAPIBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SerpAPI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		engine:  "google",
		client:  client,
		log:     log,
	}
}

// Search returns at most limit organic results for query, in rank order.
func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]tabextract.SearchHit, error) {
	if s.apiKey == "" {
		return nil, tabextract.Fatal(ErrMissingAPIKey)
	}
	limit = tabextract.ClampIntensity(limit)

	q := url.Values{}
	q.Set("engine", s.engine)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	q.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, tabextract.Transient(fmt.Errorf("search failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tabextract.Transient(fmt.Errorf("read response: %w", err))
	}

	var out serpResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, tabextract.ClassifyStatus(resp.StatusCode, fmt.Errorf("search failed: %s: %s", resp.Status, msg))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("search failed: %s", out.Error)
	}

	hits := make([]tabextract.SearchHit, 0, min(limit, len(out.OrganicResults)))
	for _, r := range out.OrganicResults {
		if len(hits) == limit {
			break
		}
		hits = append(hits, tabextract.SearchHit{
			Position: r.Position,
			Title:    r.Title,
			Link:     r.Link,
			Snippet:  r.Snippet,
		})
	}
	s.log.Debug("Search completed", "query", query, "hits", len(hits), "limit", limit)
	return hits, nil
}
