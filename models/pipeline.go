package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

// Pipeline names a generation route usable by async jobs.
type Pipeline string

const (
	PipelineGemini   Pipeline = "gemini"
	PipelineBytePlus Pipeline = "byteplus"
)

var pipelinePattern = regexp.MustCompile(`^(gemini|byteplus)$`)

// ValidatePipeline is registered as the "pipeline" validation tag.
func ValidatePipeline(fl validator.FieldLevel) bool {
	return pipelinePattern.MatchString(fl.Field().String())
}
