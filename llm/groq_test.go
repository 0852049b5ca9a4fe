package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivaneiona/tabextract"
)

func groqServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGroq_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var seen chatRequest
		srv := groqServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{\"Email\":\"a@b.test\"}"}}]}`, &seen)
		g := NewGroq("test-key", WithBaseURL(srv.URL))

		out, err := g.Generate(ctx, "", "Get me the {Email}")
		require.NoError(t, err)
		assert.Equal(t, `{"Email":"a@b.test"}`, string(out))
		assert.Equal(t, DefaultGroqModel, seen.Model)
		require.Len(t, seen.Messages, 1)
		assert.Equal(t, "user", seen.Messages[0].Role)
		assert.Equal(t, "Get me the {Email}", seen.Messages[0].Content)
	})

	tests := []struct {
		name      string
		status    int
		body      string
		fatal     bool
		transient bool
		contains  string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"tokens"}}`, false, true, "Rate limit reached"},
		{"server error", http.StatusBadGateway, `upstream down`, false, true, "upstream down"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, true, false, "Invalid API Key"},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"model not found"}}`, true, false, "model not found"},
		{"no choices", http.StatusOK, `{"choices":[]}`, false, true, "no text"},
		{"garbled", http.StatusOK, `not json`, false, true, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := groqServer(t, tt.status, tt.body, nil)
			_, err := NewGroq("test-key", WithBaseURL(srv.URL)).Generate(ctx, "m", "p")
			require.Error(t, err)
			assert.Equal(t, tt.fatal, tabextract.IsFatal(err))
			var te *tabextract.TransientError
			assert.Equal(t, tt.transient, errors.As(err, &te))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	t.Run("unclassified status is retryable", func(t *testing.T) {
		srv := groqServer(t, http.StatusTeapot, `short and stout`, nil)
		_, err := NewGroq("test-key", WithBaseURL(srv.URL)).Generate(ctx, "m", "p")
		require.Error(t, err)
		assert.False(t, tabextract.IsFatal(err))
		assert.True(t, tabextract.IsRetryable(err))
		assert.Contains(t, err.Error(), "418")
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewGroq("").Generate(ctx, "m", "p")
		assert.True(t, tabextract.IsFatal(err))
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("connection refused is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := NewGroq("test-key", WithBaseURL(url)).Generate(ctx, "m", "p")
		var te *tabextract.TransientError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("retried by client", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello world"}}]}`))
		}))
		defer srv.Close()

		x := tabextract.New(NewGroq("k", WithBaseURL(srv.URL)),
			tabextract.WithRetry(tabextract.FastRetryPolicy(0)))
		results := x.RunBatch(ctx, []tabextract.Row{tabextract.NewRow([]string{"c"}, []any{"Acme"})}, "{c}")
		require.Len(t, results, 1)
		assert.Equal(t, tabextract.PlainText{Text: "Hello world"}, results[0])
		assert.Equal(t, 3, calls)
	})
}
