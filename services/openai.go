package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// dall-e-3 rejects longer prompts.
const openAIImagePromptLimit = 4000

// chatClient wraps an OpenAI compatible chat completion endpoint.
type chatClient struct {
	provider string
	model    string
	client   *openai.Client
}

func newChatClient(provider, apiKey, baseURL, model string, httpClient *http.Client) *chatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &chatClient{provider: provider, model: model, client: openai.NewClientWithConfig(cfg)}
}

func (c *chatClient) complete(ctx context.Context, parts []openai.ChatMessagePart, opts TextOptions) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: opts.Temperature,
		MaxTokens:   int(opts.MaxOutputTokens),
	})
	if err != nil {
		return "", translateOpenAIError(ctx, c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", &DataShapeError{Provider: c.provider, Reason: "No text in response"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &DataShapeError{Provider: c.provider, Reason: "No text in response"}
	}
	return text, nil
}

func (c *chatClient) describe(ctx context.Context, kind ReferenceKind, image ImageData) (string, error) {
	return c.ask(ctx, image, DescribePrompt(kind), DescribeOptions)
}

func (c *chatClient) ask(ctx context.Context, image ImageData, instruction string, opts TextOptions) (string, error) {
	return c.complete(ctx, []openai.ChatMessagePart{
		textPart(instruction),
		imageURLPart(image),
	}, opts)
}

func (c *chatClient) rewrite(ctx context.Context, in RewriteInput) (string, error) {
	var parts []openai.ChatMessagePart
	if in.MultiSubject() && in.Style != RewriteCaption {
		parts = append(parts, textPart(RewriteSubjectIntro))
		for i, subject := range in.Subjects {
			parts = append(parts, textPart(SubjectCaption(i)), imageURLPart(subject))
		}
	}
	parts = append(parts, textPart(RewriteInstruction(in)))
	return c.complete(ctx, parts, RewriteOptions(in.Style))
}

func textPart(text string) openai.ChatMessagePart {
	return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: text}
}

func imageURLPart(image ImageData) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: image.DataURL(), Detail: openai.ImageURLDetailAuto},
	}
}

func translateOpenAIError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newUpstreamError(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newUpstreamError(provider, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return newUpstreamError(provider, 0, err.Error())
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	HTTPClient *http.Client
}

// OpenAIProvider uses chat completions for text tasks and the images API for generation. The images API
// takes no reference image, so identity comes from the rewritten prompt alone.
type OpenAIProvider struct {
	chat       *chatClient
	imageModel string
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Message: "OpenAI API key not configured"}
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	return &OpenAIProvider{
		chat:       newChatClient(ProviderOpenAI, cfg.APIKey, cfg.BaseURL, chatModel, cfg.HTTPClient),
		imageModel: imageModel,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return ProviderOpenAI }
func (p *OpenAIProvider) Model() string { return p.imageModel }

func (p *OpenAIProvider) DescribeImage(ctx context.Context, kind ReferenceKind, image ImageData) (string, error) {
	return p.chat.describe(ctx, kind, image)
}

func (p *OpenAIProvider) AskImage(ctx context.Context, image ImageData, instruction string, opts TextOptions) (string, error) {
	return p.chat.ask(ctx, image, instruction, opts)
}

func (p *OpenAIProvider) RewritePrompt(ctx context.Context, in RewriteInput) (string, error) {
	return p.chat.rewrite(ctx, in)
}

func (p *OpenAIProvider) GenerateVariation(ctx context.Context, in VariationInput) (string, error) {
	resp, err := p.chat.client.CreateImage(ctx, openai.ImageRequest{
		Model:          p.imageModel,
		Prompt:         Truncate(in.Prompt, openAIImagePromptLimit),
		N:              1,
		Size:           openai.CreateImageSize1024x1792,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", translateOpenAIError(ctx, ProviderOpenAI, err)
	}
	for _, item := range resp.Data {
		if item.B64JSON != "" {
			return "data:image/png;base64," + item.B64JSON, nil
		}
		if item.URL != "" {
			return item.URL, nil
		}
	}
	return "", &DataShapeError{Provider: ProviderOpenAI, Reason: "No image data found in response"}
}
