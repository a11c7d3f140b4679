// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atlasfit/coach-engine/services/coach/datatypes"
)

// maxLoggedBody bounds error/log payload excerpts so API responses never
// flood the logs.
const maxLoggedBody = 512

// GeminiClient implements ModelClient against the Gemini REST API
// (generateContent).
//
// Thread Safety: GeminiClient is safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	logger     *slog.Logger
}

// NewGeminiClient creates a GeminiClient with explicit configuration.
//
// Inputs:
//   - apiKey: The Gemini API key.
//   - model: The model name (e.g., "gemini-2.0-flash").
//   - baseURL: The base URL for API requests
//     (e.g., "https://generativelanguage.googleapis.com/v1beta").
//   - logger: May be nil.
func NewGeminiClient(apiKey, model, baseURL string, logger *slog.Logger) *GeminiClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// geminiRequest is the request payload for the Gemini generateContent API.
type geminiRequest struct {
	Contents          []datatypes.Message     `json:"contents"`
	SystemInstruction *geminiSystemContent    `json:"systemInstruction,omitempty"`
	Tools             []geminiToolDeclaration `json:"tools,omitempty"`
}

// geminiSystemContent carries the system prompt; the API rejects a role on it.
type geminiSystemContent struct {
	Parts []datatypes.Part `json:"parts"`
}

// geminiToolDeclaration wraps function declarations for the tools array.
type geminiToolDeclaration struct {
	FunctionDeclarations []Declaration `json:"functionDeclarations"`
}

// geminiResponse is the response from the Gemini generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

// geminiCandidate represents a candidate response.
type geminiCandidate struct {
	Content      datatypes.Message `json:"content"`
	FinishReason string            `json:"finishReason"`
}

// geminiError represents an API error.
type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CompleteWithTools implements ModelClient using the generateContent API.
//
// # Description
//
// The conversation history is already in the Gemini wire shape (role +
// parts with text/functionCall/functionResponse), so it is sent as-is.
// When the candidate carries a functionCall part the call wins over any
// accompanying text.
func (g *GeminiClient) CompleteWithTools(ctx context.Context, history []datatypes.Message, systemPrompt string, catalog []Declaration) (*Turn, error) {
	req := geminiRequest{Contents: history}

	if systemPrompt != "" {
		req.SystemInstruction = &geminiSystemContent{
			Parts: []datatypes.Part{{Text: systemPrompt}},
		}
	}
	if len(catalog) > 0 {
		req.Tools = []geminiToolDeclaration{{FunctionDeclarations: catalog}}
	}

	start := time.Now()
	resp, err := g.send(ctx, req)
	modelCallDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())
	if err != nil {
		modelCalls.WithLabelValues(g.model, "error").Inc()
		return nil, err
	}

	turn, err := decodeTurn(resp)
	if err != nil {
		modelCalls.WithLabelValues(g.model, "error").Inc()
		return nil, err
	}

	outcome := "text"
	if turn.IsFunctionCall() {
		outcome = "function_call"
	}
	modelCalls.WithLabelValues(g.model, outcome).Inc()

	g.logger.Debug("gemini completion",
		slog.String("model", g.model),
		slog.String("outcome", outcome),
		slog.Int("history_len", len(history)),
	)
	return turn, nil
}

// send performs the HTTP round trip and parses the API envelope.
func (g *GeminiClient) send(ctx context.Context, req geminiRequest) (*geminiResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: reading response body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: API returned status %d: %s",
			httpResp.StatusCode, truncateForLog(string(bodyBytes)))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("gemini: parsing response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini: API error [%d] %s: %s",
			apiResp.Error.Code, apiResp.Error.Status, truncateForLog(apiResp.Error.Message))
	}
	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: returned no candidates")
	}
	return &apiResp, nil
}

// decodeTurn converts the first candidate into a Turn. A functionCall part
// takes priority over text parts.
func decodeTurn(resp *geminiResponse) (*Turn, error) {
	content := resp.Candidates[0].Content

	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			return &Turn{FunctionCall: part.FunctionCall}, nil
		}
	}

	var textParts []string
	for _, part := range content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}
	text := strings.Join(textParts, "")
	if text == "" {
		return nil, fmt.Errorf("gemini: returned neither text nor function call")
	}
	return &Turn{Text: text}, nil
}

// truncateForLog bounds a string for inclusion in errors and log lines.
func truncateForLog(s string) string {
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}
