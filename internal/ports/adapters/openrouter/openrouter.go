// Package openrouter adapts the OpenRouter chat-completions API to the
// Scorer port.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mahmedraza1/Clipify/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const requestTimeout = 90 * time.Second

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "deepseek/deepseek-chat"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// Suggest sends the transcript text and returns the raw suggestion. The
// adapter only extracts the JSON object; timestamp validation is the
// selector's job.
func (a *Adapter) Suggest(ctx context.Context, transcriptText string) (types.Suggestion, error) {
	if a.key == "" {
		return types.Suggestion{}, fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(transcriptText)},
		},
		"max_tokens":  500,
		"temperature": 0.3,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.Suggestion{}, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return types.Suggestion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.Suggestion{}, fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return types.Suggestion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return types.Suggestion{}, fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return types.Suggestion{}, fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Suggestion{}, err
	}
	if len(raw.Choices) == 0 {
		return types.Suggestion{}, errors.New("openrouter: no choices in response")
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return types.Suggestion{}, err
	}
	return parseSuggestion(content)
}

func buildPrompt(transcript string) string {
	return "Analyze the following video transcript and suggest ONE short clip segment " +
		"(30-90 seconds) that would be most viral or engaging for social media.\n\n" +
		"Respond with exactly this JSON format:\n" +
		`{"start": "HH:MM:SS", "end": "HH:MM:SS", "reason": "Brief explanation"}` + "\n\n" +
		"Look for emotional moments, key insights, funny or surprising content, " +
		"actionable advice, dramatic moments, and quotable statements.\n\n" +
		"Transcript:\n" + transcript
}

// parseSuggestion pulls the suggestion object out of the model reply
// without interpreting the timestamps.
func parseSuggestion(content string) (types.Suggestion, error) {
	clean, err := extractJSONObject(content)
	if err != nil {
		return types.Suggestion{}, err
	}
	var sug types.Suggestion
	if err := json.Unmarshal([]byte(clean), &sug); err != nil {
		return types.Suggestion{}, fmt.Errorf("openrouter: decode suggestion: %w", err)
	}
	return sug, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
