package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// LLMModelName is a Gemini model known to work for one of our tasks.
type LLMModelName int32

const (
	Flash20 LLMModelName = iota
	Flash25
	Flash25Image
	Pro25
)

func (t LLMModelName) String() string {
	switch t {
	case Flash25:
		return "gemini-2.5-flash"
	case Flash25Image:
		return "gemini-2.5-flash-image"
	case Pro25:
		return "gemini-2.5-pro"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

// GeminiConfig configures GeminiProvider. Empty models fall back to Flash20 for text and Flash25Image for images.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
}

// GeminiProvider implements Provider and Vision over the Gemini generateContent API.
type GeminiProvider struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Message: "Gemini API key not configured"}
	}
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	p := &GeminiProvider{client: client, textModel: cfg.TextModel, imageModel: cfg.ImageModel}
	if p.textModel == "" {
		p.textModel = Flash20.String()
	}
	if p.imageModel == "" {
		p.imageModel = Flash25Image.String()
	}
	return p, nil
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.imageModel }

func (p *GeminiProvider) DescribeImage(ctx context.Context, kind ReferenceKind, image ImageData) (string, error) {
	return p.AskImage(ctx, image, DescribePrompt(kind), DescribeOptions)
}

func (p *GeminiProvider) AskImage(ctx context.Context, image ImageData, instruction string, opts TextOptions) (string, error) {
	parts := []*genai.Part{
		{Text: instruction},
		imagePart(image),
	}
	result, err := p.generate(ctx, p.textModel, parts, textConfig(opts))
	if err != nil {
		return "", err
	}
	return DecodeGeminiText(result)
}

func (p *GeminiProvider) RewritePrompt(ctx context.Context, in RewriteInput) (string, error) {
	var parts []*genai.Part
	if in.MultiSubject() && in.Style != RewriteCaption {
		parts = append(parts, &genai.Part{Text: RewriteSubjectIntro})
		parts = append(parts, subjectParts(in.Subjects)...)
	}
	parts = append(parts, &genai.Part{Text: RewriteInstruction(in)})
	result, err := p.generate(ctx, p.textModel, parts, textConfig(RewriteOptions(in.Style)))
	if err != nil {
		return "", err
	}
	return DecodeGeminiText(result)
}

func (p *GeminiProvider) GenerateVariation(ctx context.Context, in VariationInput) (string, error) {
	var parts []*genai.Part
	if in.MultiSubject() {
		parts = append(parts, &genai.Part{Text: GenerationSubjectIntro})
		parts = append(parts, subjectParts(in.Subjects)...)
		parts = append(parts, &genai.Part{Text: GenerationSubjectOutro(len(in.Subjects), in.Prompt)})
	} else {
		parts = append(parts, &genai.Part{Text: in.Prompt})
		if len(in.Subjects) == 1 {
			parts = append(parts, imagePart(in.Subjects[0]))
		}
	}
	result, err := p.generate(ctx, p.imageModel, parts, &genai.GenerateContentConfig{
		Temperature:        floatPointer(1),
		TopP:               floatPointer(0.95),
		MaxOutputTokens:    8192,
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return "", err
	}
	return DecodeGeminiImage(result)
}

func (p *GeminiProvider) generate(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	result, err := p.client.Models.GenerateContent(ctx, model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newUpstreamError(ProviderGemini, 0, err.Error())
	}
	return result, nil
}

func textConfig(opts TextOptions) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     floatPointer(opts.Temperature),
		MaxOutputTokens: opts.MaxOutputTokens,
	}
}

func imagePart(image ImageData) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}}
}

// subjectParts labels every subject image so the model can tell the people apart.
func subjectParts(subjects []ImageData) []*genai.Part {
	parts := make([]*genai.Part, 0, len(subjects)*2)
	for i, subject := range subjects {
		parts = append(parts, &genai.Part{Text: SubjectCaption(i)}, imagePart(subject))
	}
	return parts
}

func blockedReason(result *genai.GenerateContentResponse) string {
	if result.PromptFeedback == nil || result.PromptFeedback.BlockReason == "" {
		return ""
	}
	reason := string(result.PromptFeedback.BlockReason)
	if msg := result.PromptFeedback.BlockReasonMessage; msg != "" {
		reason += ": " + msg
	}
	return reason
}

// DecodeGeminiText concatenates the non-thought text parts of the first candidate with content.
func DecodeGeminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", &DataShapeError{Provider: ProviderGemini, Reason: "No response from Gemini"}
	}
	if reason := blockedReason(result); reason != "" {
		return "", &DataShapeError{Provider: ProviderGemini, Reason: "Content blocked: " + reason}
	}
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			sb.WriteString(part.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", &DataShapeError{Provider: ProviderGemini, Reason: "No text in response"}
}

// DecodeGeminiImage returns the first inline image as a data URL. A text-only answer is reported with its
// first 100 characters.
func DecodeGeminiImage(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", &DataShapeError{Provider: ProviderGemini, Reason: "No image data found in response"}
	}
	if reason := blockedReason(result); reason != "" {
		return "", &DataShapeError{Provider: ProviderGemini, Reason: "Content blocked: " + reason}
	}
	var text string
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if !strings.HasPrefix(mimeType, "image/") {
					continue
				}
				return ToDataURL(mimeType, part.InlineData.Data), nil
			}
			if text == "" && part.Text != "" && !part.Thought {
				text = part.Text
			}
		}
	}
	if text != "" {
		return "", &DataShapeError{Provider: ProviderGemini, Reason: "API returned text instead of image: " + Truncate(text, 100)}
	}
	return "", &DataShapeError{Provider: ProviderGemini, Reason: "No image data found in response"}
}
