package gemini

import (
	"context"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/wayfarer-ai/wayfarer/pkg/config"
	"github.com/wayfarer-ai/wayfarer/pkg/provider"
)

func TestCallWithoutKey(t *testing.T) {
	b, err := New(context.Background(), config.ProviderConfig{Name: "gem"})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	_, err = b.Call(context.Background(), provider.ContentQuery{Prompt: "x"})
	if provider.KindOf(err) != provider.KindAuthMissing {
		t.Errorf("expected auth_missing, got %v", err)
	}
	if b.model != defaultModel {
		t.Errorf("expected default model, got %s", b.model)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want provider.Kind
	}{
		{"bad key", &googleapi.Error{Code: 400, Message: "API key not valid. Please pass a valid API key."}, provider.KindAuthInvalid},
		{"forbidden", &googleapi.Error{Code: 403, Message: "permission denied"}, provider.KindAuthInvalid},
		{"quota", fmt.Errorf("generate: %w", &googleapi.Error{Code: 429}), provider.KindRateLimited},
		{"server", &googleapi.Error{Code: 500}, provider.KindUnknown},
		{"deadline", context.DeadlineExceeded, provider.KindTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := provider.KindOf(classify("gem", tt.err)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
