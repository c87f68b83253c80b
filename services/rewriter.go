package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PromptRewriter produces the single long prompt shared by all variations.
type PromptRewriter struct {
	CallTimeout time.Duration
	Logger      *zap.Logger
}

// Rewrite asks p for a professional prompt. It falls back to FallbackPrompt when p is nil, the call fails
// or the answer is blank; the second return value reports whether the provider's text was used.
func (r *PromptRewriter) Rewrite(ctx context.Context, p Provider, in RewriteInput) (string, bool) {
	logger := loggerFor(r.Logger, ctx)
	if p != nil {
		callCtx, cancel := withCallTimeout(ctx, r.CallTimeout)
		started := time.Now()
		text, err := p.RewritePrompt(callCtx, in)
		cancel()
		observeProviderCall(p.Name(), "rewrite", started, err)
		text = strings.TrimSpace(text)
		if err == nil && text != "" {
			logger.Info("prompt rewritten", zap.String("provider", p.Name()), zap.String("prompt", Truncate(text, 150)))
			return text, true
		}
		logger.Warn("prompt rewrite failed, using fallback", zap.String("provider", p.Name()), zap.Error(err))
	} else {
		logger.Warn("no text provider configured, using fallback prompt")
	}
	return FallbackPrompt(in.UserIntent), false
}
