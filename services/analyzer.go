package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

type LocationAnalysis struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Setting     string `json:"setting"`
	Atmosphere  string `json:"atmosphere"`
}

type OutfitAnalysis struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Style       string   `json:"style"`
	Colors      []string `json:"colors"`
}

type PoseAnalysis struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mood        string `json:"mood"`
}

// ImageAnalysis is what a vision model reads out of an inspiration photo.
type ImageAnalysis struct {
	Location LocationAnalysis `json:"location"`
	Outfit   OutfitAnalysis   `json:"outfit"`
	Pose     PoseAnalysis     `json:"pose"`
}

// AnalysisParseError means the model answered, but not with the JSON we asked for.
type AnalysisParseError struct {
	RawText string
	Err     error
}

func (e *AnalysisParseError) Error() string {
	return fmt.Sprintf("Failed to parse analysis result: %v", e.Err)
}

func (e *AnalysisParseError) Unwrap() error { return e.Err }

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseImageAnalysis decodes the outermost {...} block of text.
func ParseImageAnalysis(text string) (*ImageAnalysis, error) {
	block := jsonObjectPattern.FindString(text)
	if block == "" {
		return nil, &AnalysisParseError{RawText: text, Err: fmt.Errorf("no JSON found in response")}
	}
	var analysis ImageAnalysis
	if err := json.Unmarshal([]byte(block), &analysis); err != nil {
		return nil, &AnalysisParseError{RawText: text, Err: err}
	}
	return &analysis, nil
}

// ImageAnalyzer extracts location, outfit and pose from one image.
type ImageAnalyzer struct {
	Registry     *ProviderRegistry
	ProviderName string
	CallTimeout  time.Duration
	Logger       *zap.Logger
}

func (a *ImageAnalyzer) Analyze(ctx context.Context, raw string) (*ImageAnalysis, error) {
	logger := loggerFor(a.Logger, ctx)
	if strings.TrimSpace(raw) == "" {
		return nil, &ValidationError{Message: "Missing required parameter: image"}
	}
	p, err := a.Registry.Get(a.ProviderName)
	if err != nil {
		return nil, err
	}
	vision, ok := p.(Vision)
	if !ok {
		return nil, &ConfigurationError{Message: fmt.Sprintf("%s cannot analyze images", p.Name())}
	}
	image, err := ParseImage(raw)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid image: %v", err)}
	}

	callCtx, cancel := withCallTimeout(ctx, a.CallTimeout)
	defer cancel()
	started := time.Now()
	text, err := vision.AskImage(callCtx, image, AnalyzeImagePrompt, AnalyzeOptions)
	observeProviderCall(p.Name(), "analyze", started, err)
	if err != nil {
		logger.Warn("image analysis failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, err
	}

	analysis, err := ParseImageAnalysis(text)
	if err != nil {
		logger.Warn("analysis was not valid JSON", zap.String("text", Truncate(text, 200)))
		return nil, err
	}
	logger.Info("image analyzed",
		zap.String("location", analysis.Location.Name),
		zap.String("outfit", analysis.Outfit.Name),
		zap.String("pose", analysis.Pose.Name))
	return analysis, nil
}
