// Package gemini is a content backend for Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/models"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

const defaultModel = "gemini-1.5-flash"

// Backend generates JSON content with a Gemini model.
type Backend struct {
	name   string
	model  string
	client *genai.Client
}

// New creates a Backend. Without an API key no client is created and every
// call fails with KindAuthMissing.
func New(ctx context.Context, cfg config.ProviderConfig) (*Backend, error) {
	b := &Backend{name: cfg.Name, model: cfg.Model}
	if b.model == "" {
		b.model = defaultModel
	}
	if cfg.APIKey == "" {
		return b, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.URL != "" {
		opts = append(opts, option.WithEndpoint(cfg.URL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	b.client = client
	return b, nil
}

// Call asks the model for a JSON answer to q.
func (b *Backend) Call(ctx context.Context, q provider.ContentQuery) (models.ContentResponse, error) {
	if b.client == nil {
		return models.ContentResponse{}, &provider.Error{Kind: provider.KindAuthMissing, Provider: b.name, Err: errors.New("api key not configured")}
	}

	m := b.client.GenerativeModel(b.model)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.2)
	if q.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(q.System)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(q.Prompt))
	if err != nil {
		return models.ContentResponse{}, classify(b.name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.ContentResponse{}, provider.Errorf(provider.KindMalformed, b.name, "no candidates generated")
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return models.ContentResponse{}, provider.Errorf(provider.KindMalformed, b.name, "candidate has no text")
	}

	out := models.ContentResponse{Content: sb.String()}
	if cand.CitationMetadata != nil {
		for _, src := range cand.CitationMetadata.CitationSources {
			if src != nil && src.URI != nil && *src.URI != "" {
				out.Citations = append(out.Citations, *src.URI)
			}
		}
	}
	return out, nil
}

// Close releases the underlying client.
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// classify maps Google API errors onto provider kinds.
func classify(name string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		pe := provider.FromStatus(name, gerr.Code, []byte(gerr.Message))
		if gerr.Code == 400 && strings.Contains(strings.ToLower(gerr.Message), "api key") {
			pe.Kind = provider.KindAuthInvalid
		}
		return pe
	}
	return provider.Classify(name, err)
}
