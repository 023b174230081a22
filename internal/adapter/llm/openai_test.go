package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gen, err := NewOpenAIGenerator(Options{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
	})
	require.NoError(t, err)
	return gen
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(Options{Model: "m"})
	assert.ErrorIs(t, err, domain.ErrNoAPIKey)
}

func TestGenerate(t *testing.T) {
	var gotPrompt string
	gen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		gotPrompt = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"RDB and AOF."},"finish_reason":"stop"}]}`)
	})

	answer, err := gen.Generate(context.Background(), "How does Redis persist data?")
	require.NoError(t, err)
	assert.Equal(t, "RDB and AOF.", answer)
	assert.Equal(t, "How does Redis persist data?", gotPrompt)
	assert.Equal(t, "test-model", gen.ModelName())
}

func TestGenerateStream(t *testing.T) {
	gen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"RDB", " and ", "AOF."} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var b strings.Builder
	err := gen.GenerateStream(context.Background(), "prompt", func(delta string) error {
		b.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "RDB and AOF.", b.String())
}

func TestGenerateServerError(t *testing.T) {
	gen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := gen.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
