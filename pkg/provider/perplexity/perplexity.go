// Package perplexity is a content backend for Perplexity's OpenAI-compatible
// chat completions API, which grounds answers in web search and returns citations.
package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

const defaultModel = "sonar"

// Backend calls /chat/completions.
type Backend struct {
	name   string
	url    string
	apiKey string
	model  string
	http   *http.Client
}

// New creates a Backend from provider configuration. A nil client uses http.DefaultClient.
func New(cfg config.ProviderConfig, client *http.Client) *Backend {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Backend{name: cfg.Name, url: cfg.URL, apiKey: cfg.APIKey, model: model, http: client}
}

// Call sends one chat completion and returns the answer with its citations.
func (b *Backend) Call(ctx context.Context, q provider.ContentQuery) (models.ContentResponse, error) {
	if b.apiKey == "" {
		return models.ContentResponse{}, &provider.Error{Kind: provider.KindAuthMissing, Provider: b.name, Err: errors.New("api key not configured")}
	}

	temp := 0.2
	req := models.ChatCompletionRequest{
		Model:       b.model,
		Temperature: &temp,
	}
	if q.System != "" {
		req.Messages = append(req.Messages, models.ChatMessage{Role: "system", Content: q.System})
	}
	req.Messages = append(req.Messages, models.ChatMessage{Role: "user", Content: q.Prompt})

	body, err := json.Marshal(req)
	if err != nil {
		return models.ContentResponse{}, err
	}

	headers := map[string]string{
		"Authorization": "Bearer " + b.apiKey,
		"Accept":        "application/json",
	}
	res, err := provider.DoRequest(ctx, b.http, http.MethodPost, b.url, "/chat/completions", nil, headers, body)
	if err != nil {
		return models.ContentResponse{}, err
	}
	if res.StatusCode != http.StatusOK {
		return models.ContentResponse{}, provider.FromStatus(b.name, res.StatusCode, res.Body)
	}

	var resp models.ChatCompletionResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return models.ContentResponse{}, provider.Errorf(provider.KindMalformed, b.name, "decode completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return models.ContentResponse{}, provider.Errorf(provider.KindMalformed, b.name, "completion has no content")
	}

	return models.ContentResponse{
		Content:   resp.Choices[0].Message.Content,
		Citations: resp.Citations,
	}, nil
}
