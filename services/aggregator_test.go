package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePadsWithFirstSuccess(t *testing.T) {
	results := []VariationResult{
		{Index: 2, Name: "Anime Style", Image: "img-2"},
		{Index: 0, Name: "Instagram Realistic", Err: &UpstreamError{StatusCode: 500, Body: "boom"}},
		{Index: 3, Name: "Unreal Engine", Image: "img-3"},
		{Index: 1, Name: "Surreal Pinterest", Err: &DataShapeError{Reason: "No image data found in response"}},
	}
	agg := AggregateVariations(results, VariationCount)

	assert.Equal(t, 2, agg.Succeeded)
	assert.Equal(t, []string{"img-2", "img-3", "img-2", "img-2"}, agg.Images)
	assert.Equal(t, []string{
		"Instagram Realistic: API error (500): boom",
		"Surreal Pinterest: No image data found in response",
	}, agg.Failures)
}

func TestAggregateAllSucceeded(t *testing.T) {
	var results []VariationResult
	for i, img := range []string{"a", "b", "c", "d"} {
		results = append(results, VariationResult{Index: i, Image: img})
	}
	agg := AggregateVariations(results, VariationCount)
	assert.Equal(t, []string{"a", "b", "c", "d"}, agg.Images)
	assert.Empty(t, agg.Failures)
}

func TestAggregateNothingSucceeded(t *testing.T) {
	results := []VariationResult{
		{Index: 0, Name: "Variation 1", Err: context.DeadlineExceeded},
		{Index: 1, Name: "Variation 2", Err: errors.New("connection reset")},
		{Index: 2, Name: "Variation 3"},
		{Index: 3, Name: "Variation 4", Err: &UpstreamError{StatusCode: 429, Body: "slow down"}},
	}
	agg := AggregateVariations(results, VariationCount)

	assert.Nil(t, agg.Images)
	assert.Zero(t, agg.Succeeded)
	assert.Equal(t, []string{
		"Variation 1: Exception: context deadline exceeded",
		"Variation 2: Exception: connection reset",
		"Variation 3: No image data found in response",
		"Variation 4: API error (429): slow down",
	}, agg.Failures)
}
