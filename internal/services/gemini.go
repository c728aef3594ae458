package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

// CompletionProvider generates an AI reply for a prompt. Implemented by
// *GeminiClient and stubbed in orchestrator tests.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent REST API.
//
// Each call sends only the current prompt. Conversation history is not
// included in the request, so replies have no memory of earlier turns.
// Calls are not retried; a failed completion surfaces to the caller and
// the user retries by resending the message.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	// OnResult, if set, is invoked after every provider call with the
	// model name, "success" or "error", and the call duration.
	OnResult func(model, status string, duration time.Duration)
}

// NewGeminiClient creates a Gemini API client from configuration.
//
// Example:
//
//	gemini := services.NewGeminiClient(&cfg.Gemini)
//	gemini.OnResult = middleware.RecordCompletion
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Request/response shapes for the generateContent endpoint.

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sends a prompt to Gemini and returns the generated reply text.
// Candidate part texts are concatenated; an empty candidate list or an
// API error body is returned as an error.
//
// Example:
//
//	reply, err := gemini.Complete(ctx, "Explain goroutines")
//	if err != nil {
//	    return fmt.Errorf("completion failed: %w", err)
//	}
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	reply, err := g.complete(ctx, prompt)
	if g.OnResult != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		g.OnResult(g.model, status, time.Since(start))
	}
	return reply, err
}

func (g *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			log.Warn().
				Int("status", resp.StatusCode).
				Str("api_status", parsed.Error.Status).
				Msg("Completion provider returned error")
			return "", fmt.Errorf("completion provider error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("completion provider returned status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("completion provider returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	reply := sb.String()
	if reply == "" {
		return "", fmt.Errorf("completion provider returned empty reply")
	}

	return reply, nil
}
