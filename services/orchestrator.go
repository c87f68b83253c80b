package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"selfieapi/models"

	"go.uber.org/zap"
)

// Pipeline binds providers, prompt style and variation catalog into one generation route.
type Pipeline struct {
	Name string
	// Generator is the provider that produces images.
	Generator string
	// TextProviders are tried in order for descriptions and the rewrite; the first configured one wins.
	// No configured text provider means references are skipped and the fallback prompt is used.
	TextProviders []string

	Style      RewriteStyle
	Variations []Variation
	// VariationSuffix is appended to every per-variation prompt.
	VariationSuffix string

	Batched     bool
	BatchSuffix string

	ProviderLabel     string
	FailureMessage    string
	FailureSuggestion string
}

func GeminiPipeline(catalog *VariationCatalog) Pipeline {
	return Pipeline{
		Name:              ProviderGemini,
		Generator:         ProviderGemini,
		TextProviders:     []string{ProviderGemini},
		Style:             RewritePhotographer,
		Variations:        catalog.Styles,
		FailureMessage:    "Image generation failed",
		FailureSuggestion: "Please check: 1) API Key is valid 2) Model supports image generation 3) Check terminal logs for detailed errors",
	}
}

// BytePlusPipeline generates with Seedream. textProviders is the preference order for the text tasks.
func BytePlusPipeline(catalog *VariationCatalog, textProviders []string) Pipeline {
	return Pipeline{
		Name:              ProviderBytePlus,
		Generator:         ProviderBytePlus,
		TextProviders:     textProviders,
		Style:             RewriteCaption,
		Variations:        catalog.Angles,
		VariationSuffix:   catalog.IdentitySuffix,
		Batched:           true,
		BatchSuffix:       catalog.BatchSuffix,
		ProviderLabel:     "BytePlus Seedream",
		FailureMessage:    "All BytePlus image generations failed",
		FailureSuggestion: "Check terminal logs for detailed errors",
	}
}

// Orchestrator runs one pipeline: describe references, rewrite the prompt, generate the variations and
// aggregate them.
type Orchestrator struct {
	Pipeline  Pipeline
	Registry  *ProviderRegistry
	Describer *ReferenceDescriber
	Rewriter  *PromptRewriter
	Generator *VariationGenerator
	Logger    *zap.Logger
}

var errMissingParameters = &ValidationError{Message: "Missing required parameters: selfie and prompt"}

func (o *Orchestrator) textProvider() Provider {
	for _, name := range o.Pipeline.TextProviders {
		if p, err := o.Registry.Get(name); err == nil {
			return p
		}
	}
	return nil
}

func (o *Orchestrator) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error) {
	logger := loggerFor(o.Logger, ctx).With(zap.String("pipeline", o.Pipeline.Name))
	if strings.TrimSpace(req.Selfie) == "" || strings.TrimSpace(req.Prompt) == "" {
		return nil, errMissingParameters
	}

	generator, err := o.Registry.Get(o.Pipeline.Generator)
	if err != nil {
		return nil, err
	}

	subjects, err := parseSubjects(req)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	logger.Info("generation started",
		zap.Int("subjects", len(subjects)),
		zap.Bool("outfit", req.OutfitImage != ""),
		zap.Bool("pose", req.PoseImage != ""),
		zap.Bool("location_image", req.LocationImage != ""))

	text := o.textProvider()
	descriptions := o.Describer.DescribeAll(ctx, text, []ReferenceImage{
		{Kind: ReferenceOutfit, Image: req.OutfitImage},
		{Kind: ReferencePose, Image: req.PoseImage},
		{Kind: ReferenceLocation, Image: req.LocationImage},
	})

	userIntent := BuildUserIntent(strings.TrimSpace(req.Prompt), strings.TrimSpace(req.Location), DescriptionOf(descriptions, ReferenceLocation))
	prompt, rewritten := o.Rewriter.Rewrite(ctx, text, RewriteInput{
		UserIntent:   userIntent,
		Descriptions: descriptions,
		Subjects:     subjects,
		Style:        o.Pipeline.Style,
	})
	observeRewrite(o.Pipeline.Name, rewritten)

	results, strategy := o.Generator.Generate(ctx, generator, GenerationPlan{
		Prompt:      prompt,
		Subjects:    subjects,
		Variations:  o.Pipeline.Variations,
		Suffix:      o.Pipeline.VariationSuffix,
		Batched:     o.Pipeline.Batched,
		BatchSuffix: o.Pipeline.BatchSuffix,
	})
	n := len(o.Pipeline.Variations)
	agg := AggregateVariations(results, n)
	observeGeneration(o.Pipeline.Name, agg.Succeeded, n)

	if agg.Succeeded == 0 {
		logger.Error("all variations failed", zap.Strings("details", agg.Failures), zap.Duration("took", time.Since(started)))
		return nil, &AggregateFailure{
			Message:    o.Pipeline.FailureMessage,
			Suggestion: o.Pipeline.FailureSuggestion,
			Model:      generator.Model(),
			Details:    agg.Failures,
		}
	}
	logger.Info("generation finished",
		zap.Int("succeeded", agg.Succeeded),
		zap.String("strategy", strategy),
		zap.Duration("took", time.Since(started)))

	return &models.GenerationResponse{
		Images:          agg.Images,
		RewrittenPrompt: prompt,
		Generated:       true,
		Model:           generator.Model(),
		Provider:        o.Pipeline.ProviderLabel,
		Note:            o.note(generator, agg.Succeeded, n, len(subjects), strategy),
	}, nil
}

func (o *Orchestrator) note(generator Provider, succeeded, n, references int, strategy string) string {
	label := generator.Model()
	if o.Pipeline.ProviderLabel != "" {
		label = o.Pipeline.ProviderLabel + " " + label
	}
	return fmt.Sprintf("Successfully generated %d/%d images using %s with %d reference image(s) in %s",
		succeeded, n, label, references, strategy)
}

// parseSubjects decodes the selfie followed by the co-create images.
func parseSubjects(req models.GenerationRequest) ([]ImageData, error) {
	selfie, err := ParseImage(req.Selfie)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid selfie image: %v", err)}
	}
	subjects := []ImageData{selfie}
	for i, raw := range req.CoCreateImages {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		image, err := ParseImage(raw)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("Invalid co-create image %d: %v", i+1, err)}
		}
		subjects = append(subjects, image)
	}
	return subjects, nil
}
