// File: internal/infra/adapters/sentiment/gemini_backend.go
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

var _ adapter.SentimentBackend = (*GeminiBackend)(nil)

type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend using the official SDK.
func NewGeminiBackend(ctx context.Context, apiKey, baseURL, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiBackend{client: c, model: model}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	temp := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: userPrompt(text, language)}},
		}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			Temperature:       &temp,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return model.Classification{}, classifyGeminiError(err)
	}
	if resp != nil && resp.UsageMetadata != nil {
		metrics.AddBackendInputTokens(g.Name(), int(resp.UsageMetadata.PromptTokenCount))
	}

	reply := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			reply += p.Text
		}
	}
	if reply == "" {
		return model.Classification{}, fmt.Errorf("%w: gemini returned no content", domain.ErrBackendUnavailable)
	}
	return parseClassification(reply)
}

func (g *GeminiBackend) Ping(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return classifyGeminiError(err)
	}
	return nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini: %v", domain.ErrBackendTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 400 {
		return fmt.Errorf("%w: gemini rejected the input", domain.ErrInput)
	}
	return fmt.Errorf("%w: gemini: %v", domain.ErrBackendUnavailable, err)
}
