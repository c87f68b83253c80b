package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// VariationResult is the outcome of attempt Index. Exactly one of Image and Err is set.
type VariationResult struct {
	Index int
	Name  string
	Image string
	Err   error
}

func (r VariationResult) Succeeded() bool {
	return r.Err == nil && r.Image != ""
}

// GenerationPlan describes the variations of one request.
type GenerationPlan struct {
	Prompt      string
	Subjects    []ImageData
	Variations  []Variation
	Suffix      string
	Batched     bool
	BatchSuffix string
}

const (
	StrategyBatched      = "single API call"
	StrategyPerVariation = "parallel"
)

// VariationGenerator issues the N image generation attempts of a request.
type VariationGenerator struct {
	CallTimeout time.Duration
	// Limiter paces calls to the image provider. Nil means unlimited.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// Generate runs the batched strategy when the plan and the provider allow it and falls back to one call per
// variation when the batch fails or returns fewer images than variations. It returns one result per variation,
// indexed like plan.Variations, and the strategy that produced them.
func (g *VariationGenerator) Generate(ctx context.Context, p Provider, plan GenerationPlan) ([]VariationResult, string) {
	logger := loggerFor(g.Logger, ctx).With(zap.String("provider", p.Name()))
	n := len(plan.Variations)

	if batcher, ok := p.(BatchGenerator); ok && plan.Batched {
		images, err := g.generateBatch(ctx, p, batcher, plan, n)
		if err == nil && len(images) >= n {
			results := make([]VariationResult, n)
			for i := range results {
				results[i] = VariationResult{Index: i, Name: plan.Variations[i].Name, Image: images[i]}
			}
			logger.Info("batched generation succeeded", zap.Int("images", n))
			return results, StrategyBatched
		}
		logger.Warn("batched generation fell short, falling back to per-variation calls",
			zap.Int("images", len(images)), zap.Int("wanted", n), zap.Error(err))
	}

	results := make([]VariationResult, n)
	var eg errgroup.Group
	for i, variation := range plan.Variations {
		eg.Go(func() error {
			results[i] = g.generateOne(ctx, p, plan, i, variation)
			return nil
		})
	}
	_ = eg.Wait()
	return results, StrategyPerVariation
}

func (g *VariationGenerator) generateBatch(ctx context.Context, p Provider, batcher BatchGenerator, plan GenerationPlan, n int) ([]string, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := withCallTimeout(ctx, g.CallTimeout)
	defer cancel()
	started := time.Now()
	prompt := Variation{}.Apply(plan.Prompt, plan.BatchSuffix)
	images, err := batcher.GenerateBatch(callCtx, VariationInput{Prompt: prompt, Subjects: plan.Subjects}, n)
	observeProviderCall(p.Name(), "generate_batch", started, err)
	return images, err
}

func (g *VariationGenerator) generateOne(ctx context.Context, p Provider, plan GenerationPlan, index int, variation Variation) VariationResult {
	logger := loggerFor(g.Logger, ctx).With(zap.String("provider", p.Name()), zap.String("variation", variation.Name))
	result := VariationResult{Index: index, Name: variation.Name}
	if err := g.wait(ctx); err != nil {
		result.Err = err
		return result
	}

	callCtx, cancel := withCallTimeout(ctx, g.CallTimeout)
	defer cancel()
	logger.Info("generating variation", zap.Int("slot", index+1), zap.Int("of", len(plan.Variations)))
	started := time.Now()
	image, err := p.GenerateVariation(callCtx, VariationInput{
		Prompt:   variation.Apply(plan.Prompt, plan.Suffix),
		Subjects: plan.Subjects,
	})
	if err == nil && image == "" {
		err = &DataShapeError{Provider: p.Name(), Reason: "No image data found in response"}
	}
	observeProviderCall(p.Name(), "generate", started, err)
	if err != nil {
		logger.Warn("variation failed", zap.Error(err))
		result.Err = err
		return result
	}
	logger.Info("variation generated")
	result.Image = image
	return result
}

func (g *VariationGenerator) wait(ctx context.Context) error {
	if g.Limiter == nil {
		return nil
	}
	if err := g.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
