package services

import (
	"context"
	"fmt"
	"strings"

	"selfieapi/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Runtime is the provider registry and the pipelines built on it, shared by the API and the worker.
type Runtime struct {
	Registry      *ProviderRegistry
	Orchestrators map[string]*Orchestrator
	Analyzer      *ImageAnalyzer
}

// TextProviderOrder is the preference order of text providers for the BytePlus pipeline.
func TextProviderOrder(preferred string) []string {
	switch p := strings.ToLower(strings.TrimSpace(preferred)); p {
	case ProviderGemini, ProviderOpenAI, ProviderBytePlus:
		return []string{p}
	}
	return []string{ProviderGemini, ProviderOpenAI}
}

// NewRuntime registers every provider whose key is set and builds both pipelines. Providers without a key
// stay unregistered so that their routes answer with a configuration error.
func NewRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := NewHTTPClient(cfg.ProviderCallTimeout * 2)
	registry := NewProviderRegistry()

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			TextModel:  cfg.GeminiTextModel,
			ImageModel: cfg.GeminiImageModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(ProviderGemini, gemini)
	}
	if cfg.BytePlusAPIKey != "" {
		byteplus, err := NewBytePlusProvider(BytePlusConfig{
			APIKey:     cfg.BytePlusAPIKey,
			BaseURL:    cfg.BytePlusBaseURL,
			Model:      cfg.BytePlusModel,
			ChatModel:  cfg.BytePlusChatModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(ProviderBytePlus, byteplus)
	}
	if cfg.OpenAIAPIKey != "" {
		openaiProvider, err := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			ChatModel:  cfg.OpenAIChatModel,
			ImageModel: cfg.OpenAIImageModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(ProviderOpenAI, openaiProvider)
	}
	logger.Info("providers configured", zap.Strings("providers", registry.Names()))

	catalog, err := LoadVariationCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading variation catalog: %w", err)
	}
	budget := NewTokenBudget(cfg.DescriptionMaxTokens)
	// a zero burst makes every Limiter.Wait fail
	burst := cfg.ProviderBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(cfg.ProviderRPS)
	if cfg.ProviderRPS <= 0 {
		limit = rate.Inf
	}
	pipelines := []Pipeline{
		GeminiPipeline(catalog),
		BytePlusPipeline(catalog, TextProviderOrder(cfg.TextProvider)),
	}

	orchestrators := map[string]*Orchestrator{}
	for _, pipeline := range pipelines {
		pipelineLogger := logger.With(zap.String("component", "pipeline"), zap.String("pipeline", pipeline.Name))
		orchestrators[pipeline.Name] = &Orchestrator{
			Pipeline:  pipeline,
			Registry:  registry,
			Describer: &ReferenceDescriber{Budget: budget, CallTimeout: cfg.ProviderCallTimeout, Logger: pipelineLogger},
			Rewriter:  &PromptRewriter{CallTimeout: cfg.ProviderCallTimeout, Logger: pipelineLogger},
			Generator: &VariationGenerator{
				CallTimeout: cfg.ProviderCallTimeout,
				Limiter:     rate.NewLimiter(limit, burst),
				Logger:      pipelineLogger,
			},
			Logger: pipelineLogger,
		}
	}

	return &Runtime{
		Registry:      registry,
		Orchestrators: orchestrators,
		Analyzer: &ImageAnalyzer{
			Registry:     registry,
			ProviderName: ProviderGemini,
			CallTimeout:  cfg.ProviderCallTimeout,
			Logger:       logger.With(zap.String("component", "analyzer")),
		},
	}, nil
}
