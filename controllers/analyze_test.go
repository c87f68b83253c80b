package controllers

import (
	"net/http"
	"testing"
	"time"

	"selfieapi/models"
	"selfieapi/services"
	"selfieapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzerWith(p services.Provider) *services.ImageAnalyzer {
	registry := services.NewProviderRegistry()
	if p != nil {
		registry.Register(services.ProviderGemini, p)
	}
	return &services.ImageAnalyzer{Registry: registry, ProviderName: services.ProviderGemini, CallTimeout: time.Second}
}

func TestAnalyzeImage(t *testing.T) {
	fake := &test.FakeProvider{AskText: "Here you go:\n```json\n" + `{
		"location": {"name": "Santorini", "description": "white houses", "setting": "outdoor", "atmosphere": "sunny"},
		"outfit": {"name": "Linen set", "description": "loose linen", "style": "casual", "colors": ["white", "beige"]},
		"pose": {"name": "Leaning", "description": "against a wall", "mood": "relaxed"}
	}` + "\n```"}
	e := SetupServer(Dependencies{Analyzer: analyzerWith(fake)})

	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", models.AnalyzeImageIn{Image: test.JPEGDataURL}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, test.JPEGDataURL, body["image"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Santorini", data["location"].(map[string]interface{})["name"])
	assert.Equal(t, []interface{}{"white", "beige"}, data["outfit"].(map[string]interface{})["colors"])
	assert.Equal(t, "relaxed", data["pose"].(map[string]interface{})["mood"])
}

func TestAnalyzeImageMissingImage(t *testing.T) {
	e := SetupServer(Dependencies{Analyzer: analyzerWith(&test.FakeProvider{})})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", map[string]string{}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required parameter: image", body["error"])
}

func TestAnalyzeImageNotConfigured(t *testing.T) {
	e := SetupServer(Dependencies{Analyzer: analyzerWith(nil)})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", models.AnalyzeImageIn{Image: test.JPEGDataURL}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Gemini API key not configured", body["error"])
}

func TestAnalyzeImageUnparsable(t *testing.T) {
	fake := &test.FakeProvider{AskText: "I cannot tell where this is."}
	e := SetupServer(Dependencies{Analyzer: analyzerWith(fake)})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", models.AnalyzeImageIn{Image: test.JPEGDataURL}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to parse analysis result", body["error"])
	assert.Equal(t, "I cannot tell where this is.", body["rawText"])
	assert.Equal(t, "The AI response was not in the expected JSON format", body["suggestion"])
}

func TestAnalyzeImageUpstreamError(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	fake := &test.FakeProvider{AskErr: &services.UpstreamError{Provider: services.ProviderGemini, StatusCode: 403, Body: string(long)}}
	e := SetupServer(Dependencies{Analyzer: analyzerWith(fake)})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", models.AnalyzeImageIn{Image: test.JPEGDataURL}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Image analysis failed", body["error"])
	assert.Len(t, body["details"], 200)
}

func TestAnalyzeImageNoText(t *testing.T) {
	fake := &test.FakeProvider{AskErr: &services.DataShapeError{Provider: services.ProviderGemini, Reason: "No text in response"}}
	e := SetupServer(Dependencies{Analyzer: analyzerWith(fake)})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/analyze-image", models.AnalyzeImageIn{Image: test.JPEGDataURL}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "No analysis text in response", body["error"])
}
