package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReferenceDescriber turns optional reference images into prompt text. It never fails: every problem
// degrades to an empty description and the reference is skipped.
type ReferenceDescriber struct {
	Budget      *TokenBudget
	CallTimeout time.Duration
	Logger      *zap.Logger
}

// ReferenceImage is a raw (still encoded) reference image from the request.
type ReferenceImage struct {
	Kind  ReferenceKind
	Image string
}

func (d *ReferenceDescriber) Describe(ctx context.Context, p Provider, kind ReferenceKind, raw string) string {
	logger := loggerFor(d.Logger, ctx).With(zap.String("reference", string(kind)))
	if p == nil || strings.TrimSpace(raw) == "" {
		return ""
	}
	image, err := ParseImage(raw)
	if err != nil {
		logger.Warn("reference image skipped", zap.Error(err))
		return ""
	}

	callCtx, cancel := withCallTimeout(ctx, d.CallTimeout)
	defer cancel()
	started := time.Now()
	text, err := p.DescribeImage(callCtx, kind, image)
	observeProviderCall(p.Name(), "describe", started, err)
	if err != nil {
		logger.Warn("reference description failed", zap.String("provider", p.Name()), zap.Error(err))
		return ""
	}
	text = d.Budget.Truncate(strings.TrimSpace(text))
	logger.Info("reference described", zap.String("provider", p.Name()), zap.String("description", Truncate(text, 100)))
	return text
}

// DescribeAll describes the given references concurrently and returns the non-empty descriptions
// in the order they were passed.
func (d *ReferenceDescriber) DescribeAll(ctx context.Context, p Provider, refs []ReferenceImage) []ReferenceDescription {
	texts := make([]string, len(refs))
	var eg errgroup.Group
	for i, ref := range refs {
		eg.Go(func() error {
			texts[i] = d.Describe(ctx, p, ref.Kind, ref.Image)
			return nil
		})
	}
	_ = eg.Wait()

	var out []ReferenceDescription
	for i, text := range texts {
		if text != "" {
			out = append(out, ReferenceDescription{Kind: refs[i].Kind, Text: text})
		}
	}
	return out
}

// DescriptionOf returns the text for kind, or "".
func DescriptionOf(descriptions []ReferenceDescription, kind ReferenceKind) string {
	for _, d := range descriptions {
		if d.Kind == kind {
			return d.Text
		}
	}
	return ""
}

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
