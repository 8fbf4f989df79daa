// internal/stages/matching/match-llm/provider.go
package matchllm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/genai"

	apperrors "mentor-matcher/internal/common/errors"
)

// Provider sends one system + user exchange and returns the completion text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg *Config) (Provider, error) {
	switch cfg.Provider {
	case "azure", "openai":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		p, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown completion provider %q", cfg.Provider))
	}
}

// OpenAIProvider wraps the OpenAI chat completion client, for both Azure
// deployments and the public API.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float64
}

func NewOpenAIProvider(cfg *Config) *OpenAIProvider {
	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.Provider == "azure" {
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
	}

	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client:      &client,
		name:        cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (o *OpenAIProvider) Name() string {
	return o.name
}

func (o *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if o.temperature > 0 {
		params.Temperature = openai.Float(o.temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return "", apperrors.NewAuthError("completion", fmt.Sprintf("status %d", apiErr.StatusCode))
		}
		return "", apperrors.NewMatchServiceError(err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewMatchServiceError(errors.New("no choices in completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiProvider calls the Gemini API through the genai SDK.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float64
}

func NewGeminiProvider(ctx context.Context, cfg *Config) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewAuthError("completion", "API key for provider gemini is not set")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to create Gemini client: %v", err))
	}
	return &GeminiProvider{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	temp := float32(g.temperature)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temp,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: user}}},
	}, genConfig)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "API key not valid") || strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "UNAUTHENTICATED") {
			return "", apperrors.NewAuthError("completion", msg)
		}
		return "", apperrors.NewMatchServiceError(err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
