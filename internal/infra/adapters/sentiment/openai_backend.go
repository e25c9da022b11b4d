package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

// Compile-time assurance this backend satisfies the port
var _ adapter.SentimentBackend = (*OpenAIBackend)(nil)

// OpenAIBackend classifies text through any OpenAI-compatible Chat
// Completions endpoint.
type OpenAIBackend struct {
	client    openai.Client
	model     string
	maxTokens int
	enc       *tiktoken.Tiktoken
}

func NewOpenAIBackend(apiKey, baseURL, model string, maxInputTokens int) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // retries are owned by the retry wrapper
		option.WithRequestTimeout(30 * time.Second),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		// Token counting degrades to a rune estimate.
		enc = nil
	}
	return &OpenAIBackend{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxInputTokens,
		enc:       enc,
	}, nil
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	n := o.countTokens(text)
	if o.maxTokens > 0 && n > o.maxTokens {
		return model.Classification{}, fmt.Errorf("%w: text is %d tokens, limit %d", domain.ErrInput, n, o.maxTokens)
	}
	metrics.AddBackendInputTokens(o.Name(), n)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(text, language)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return model.Classification{}, classifyOpenAIError(err)
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return parseClassification(c.Message.Content)
		}
	}
	return model.Classification{}, fmt.Errorf("%w: no choice content", domain.ErrBackendUnavailable)
}

func (o *OpenAIBackend) Ping(ctx context.Context) error {
	if _, err := o.client.Models.Get(ctx, o.model); err != nil {
		return classifyOpenAIError(err)
	}
	return nil
}

func (o *OpenAIBackend) countTokens(text string) int {
	if o.enc == nil {
		return len([]rune(text))/4 + 1
	}
	return len(o.enc.Encode(text, nil, nil))
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: openai: %v", domain.ErrBackendTimeout, err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout:
			return fmt.Errorf("%w: openai http %d", domain.ErrBackendTimeout, apiErr.StatusCode)
		case apiErr.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: openai rejected the input", domain.ErrInput)
		}
		return fmt.Errorf("%w: openai http %d", domain.ErrBackendUnavailable, apiErr.StatusCode)
	}
	return fmt.Errorf("%w: openai: %v", domain.ErrBackendUnavailable, err)
}
