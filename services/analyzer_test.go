package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageAnalysis(t *testing.T) {
	text := "Sure! Here is the analysis:\n```json\n" + `{
  "location": {"name": "Beach Sunset", "description": "Golden sand", "setting": "Outdoor", "atmosphere": "Calm"},
  "outfit": {"name": "Summer Linen", "description": "White linen shirt", "style": "casual", "colors": ["white", "beige"]},
  "pose": {"name": "Walking Forward", "description": "Mid-stride", "mood": "Carefree"}
}` + "\n```"

	analysis, err := ParseImageAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, "Beach Sunset", analysis.Location.Name)
	assert.Equal(t, []string{"white", "beige"}, analysis.Outfit.Colors)
	assert.Equal(t, "Carefree", analysis.Pose.Mood)
}

func TestParseImageAnalysisNoJSON(t *testing.T) {
	_, err := ParseImageAnalysis("I cannot analyze this image.")
	var parseErr *AnalysisParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "I cannot analyze this image.", parseErr.RawText)
}

func TestParseImageAnalysisBrokenJSON(t *testing.T) {
	_, err := ParseImageAnalysis(`{"location": {"name": "Cafe"`)
	var parseErr *AnalysisParseError
	assert.ErrorAs(t, err, &parseErr)

	_, err = ParseImageAnalysis(`{"location": {"name": }}`)
	assert.ErrorAs(t, err, &parseErr)
}
