package services

import (
	"fmt"
	"strings"
)

// upstreamBodyLimit is how much of a provider error body is kept for the client.
const upstreamBodyLimit = 300

// ValidationError is a missing or malformed request field (400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfigurationError is a missing provider credential or disabled component (500).
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// UpstreamError is a non-2xx answer (or transport failure) from a provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("API error: %s", e.Body)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

func newUpstreamError(provider string, status int, body string) *UpstreamError {
	return &UpstreamError{Provider: provider, StatusCode: status, Body: Truncate(body, upstreamBodyLimit)}
}

// DataShapeError is a 2xx provider answer without the field we needed.
type DataShapeError struct {
	Provider string
	Reason   string
}

func (e *DataShapeError) Error() string { return e.Reason }

// AggregateFailure means every variation attempt failed. Details has one entry per attempt.
type AggregateFailure struct {
	Message    string
	Suggestion string
	Model      string
	Details    []string
}

func (e *AggregateFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
