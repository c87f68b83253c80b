package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	bytePlusImageSize     = "1152x1536"
	bytePlusImageStrength = 0.85
)

type BytePlusConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// ChatModel enables text tasks through the OpenAI compatible chat endpoint of the same base URL.
	ChatModel  string
	HTTPClient *http.Client
}

// BytePlusProvider generates images with Seedream. It implements BatchGenerator.
type BytePlusProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	chat       *chatClient
}

type bytePlusImagesRequest struct {
	Model          string   `json:"model"`
	Prompt         string   `json:"prompt"`
	Image          []string `json:"image,omitempty"`
	ResponseFormat string   `json:"response_format"`
	Size           string   `json:"size"`
	Watermark      bool     `json:"watermark"`
	ImageStrength  float64  `json:"image_strength"`
	N              int      `json:"n,omitempty"`
}

type bytePlusImagesResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewBytePlusProvider(cfg BytePlusConfig) (*BytePlusProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Message: "BytePlus API key not configured"}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	p := &BytePlusProvider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
	}
	if cfg.ChatModel != "" {
		p.chat = newChatClient(ProviderBytePlus, cfg.APIKey, p.baseURL, cfg.ChatModel, httpClient)
	}
	return p, nil
}

func (p *BytePlusProvider) Name() string  { return ProviderBytePlus }
func (p *BytePlusProvider) Model() string { return p.model }

func (p *BytePlusProvider) chatClient() (*chatClient, error) {
	if p.chat == nil {
		return nil, &ConfigurationError{Message: "BytePlus chat model not configured"}
	}
	return p.chat, nil
}

func (p *BytePlusProvider) DescribeImage(ctx context.Context, kind ReferenceKind, image ImageData) (string, error) {
	chat, err := p.chatClient()
	if err != nil {
		return "", err
	}
	return chat.describe(ctx, kind, image)
}

func (p *BytePlusProvider) AskImage(ctx context.Context, image ImageData, instruction string, opts TextOptions) (string, error) {
	chat, err := p.chatClient()
	if err != nil {
		return "", err
	}
	return chat.ask(ctx, image, instruction, opts)
}

func (p *BytePlusProvider) RewritePrompt(ctx context.Context, in RewriteInput) (string, error) {
	chat, err := p.chatClient()
	if err != nil {
		return "", err
	}
	return chat.rewrite(ctx, in)
}

func (p *BytePlusProvider) GenerateVariation(ctx context.Context, in VariationInput) (string, error) {
	images, err := p.generate(ctx, in, 0)
	if err != nil {
		return "", err
	}
	return images[0], nil
}

func (p *BytePlusProvider) GenerateBatch(ctx context.Context, in VariationInput, n int) ([]string, error) {
	return p.generate(ctx, in, n)
}

func (p *BytePlusProvider) generate(ctx context.Context, in VariationInput, n int) ([]string, error) {
	request := bytePlusImagesRequest{
		Model:          p.model,
		Prompt:         in.Prompt,
		ResponseFormat: "b64_json",
		Size:           bytePlusImageSize,
		Watermark:      false,
		ImageStrength:  bytePlusImageStrength,
		N:              n,
	}
	for _, subject := range in.Subjects {
		request.Image = append(request.Image, subject.DataURL())
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding byteplus request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating byteplus request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newUpstreamError(ProviderBytePlus, 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newUpstreamError(ProviderBytePlus, resp.StatusCode, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newUpstreamError(ProviderBytePlus, resp.StatusCode, string(body))
	}
	return decodeBytePlusImages(body)
}

func decodeBytePlusImages(body []byte) ([]string, error) {
	var decoded bytePlusImagesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DataShapeError{Provider: ProviderBytePlus, Reason: "Invalid JSON in response: " + Truncate(string(body), 100)}
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, &DataShapeError{Provider: ProviderBytePlus, Reason: decoded.Error.Message}
	}
	var images []string
	for _, item := range decoded.Data {
		switch {
		case item.B64JSON != "":
			images = append(images, "data:image/jpeg;base64,"+item.B64JSON)
		case item.URL != "":
			images = append(images, item.URL)
		}
	}
	if len(images) == 0 {
		return nil, &DataShapeError{Provider: ProviderBytePlus, Reason: "No image data in response"}
	}
	return images, nil
}
