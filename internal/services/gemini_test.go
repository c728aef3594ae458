package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

func newTestGeminiClient(baseURL string) *GeminiClient {
	return NewGeminiClient(&config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func geminiSuccessBody(parts ...string) map[string]interface{} {
	partObjs := make([]map[string]string, 0, len(parts))
	for _, p := range parts {
		partObjs = append(partObjs, map[string]string{"text": p})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": partObjs}},
		},
	}
}

func TestGeminiComplete(t *testing.T) {
	t.Run("returns the candidate text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))

			var req geminiRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			assert.Equal(t, "Explain goroutines", req.Contents[0].Parts[0].Text)

			json.NewEncoder(w).Encode(geminiSuccessBody("Goroutines are lightweight threads."))
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		reply, err := client.Complete(context.Background(), "Explain goroutines")
		require.NoError(t, err)
		assert.Equal(t, "Goroutines are lightweight threads.", reply)
	})

	t.Run("concatenates multiple parts of the first candidate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(geminiSuccessBody("Hello, ", "world."))
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		reply, err := client.Complete(context.Background(), "greet me")
		require.NoError(t, err)
		assert.Equal(t, "Hello, world.", reply)
	})

	t.Run("surfaces API error bodies", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":    429,
					"message": "Resource has been exhausted",
					"status":  "RESOURCE_EXHAUSTED",
				},
			})
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		_, err := client.Complete(context.Background(), "too fast")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Resource has been exhausted")
	})

	t.Run("errors on empty candidate list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		_, err := client.Complete(context.Background(), "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no candidates")
	})

	t.Run("errors on empty reply text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(geminiSuccessBody(""))
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		_, err := client.Complete(context.Background(), "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty reply")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		blocked := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-blocked
		}))
		defer server.Close()
		defer close(blocked)

		client := newTestGeminiClient(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Complete(ctx, "slow")
		assert.Error(t, err)
	})

	t.Run("reports result through the OnResult hook", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(geminiSuccessBody("ok"))
		}))
		defer server.Close()

		client := newTestGeminiClient(server.URL)

		var gotModel, gotStatus string
		client.OnResult = func(model, status string, duration time.Duration) {
			gotModel = model
			gotStatus = status
		}

		_, err := client.Complete(context.Background(), "hi there friend")
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-flash", gotModel)
		assert.Equal(t, "success", gotStatus)
	})
}
