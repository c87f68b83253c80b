package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"selfieapi/models"
	"selfieapi/services"
	"selfieapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithGemini(t *testing.T) {
	fake := &test.FakeProvider{ModelName: "gemini-2.5-flash-image", Rewritten: "Golden hour portrait"}
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderGemini: newOrchestrator(t, services.GeminiPipeline, map[string]services.Provider{services.ProviderGemini: fake}),
		},
	})

	req := test.NewJSONRequest(http.MethodPost, "/api/generate", models.GenerationRequest{
		Selfie:      test.PNGDataURL,
		Prompt:      "in a red dress",
		OutfitImage: test.JPEGDataURL,
	})
	rec, body := test.Do(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Len(t, body["images"], 4)
	assert.Equal(t, "Golden hour portrait", body["rewrittenPrompt"])
	assert.Equal(t, true, body["generated"])
	assert.Equal(t, "gemini-2.5-flash-image", body["model"])
	assert.True(t, strings.HasPrefix(body["note"].(string), "Successfully generated 4/4 images"))
	assert.Equal(t, []services.ReferenceKind{services.ReferenceOutfit}, fake.DescribeCalls)
}

func TestGenerateWithBytePlus(t *testing.T) {
	text := &test.FakeProvider{Rewritten: "Subject 1 on a rooftop"}
	seedream := &test.FakeBatchProvider{FakeProvider: &test.FakeProvider{ProviderName: services.ProviderBytePlus, ModelName: "seedream-4-0-250828"}}
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderBytePlus: newOrchestrator(t,
				func(c *services.VariationCatalog) services.Pipeline {
					return services.BytePlusPipeline(c, []string{services.ProviderGemini})
				},
				map[string]services.Provider{services.ProviderGemini: text, services.ProviderBytePlus: seedream}),
		},
	})

	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/generate-byteplus", models.GenerationRequest{
		Selfie: test.PNGDataURL,
		Prompt: "rooftop party",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["images"], 4)
	assert.Equal(t, "BytePlus Seedream", body["provider"])
	assert.Equal(t, "seedream-4-0-250828", body["model"])
	assert.Equal(t, 1, seedream.BatchCalls)
}

func TestGenerateMissingParameters(t *testing.T) {
	e := SetupServer(Dependencies{Orchestrators: map[string]Generator{}})
	for _, route := range []string{"/api/generate", "/api/generate-byteplus"} {
		rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, route, map[string]string{"prompt": "only a prompt"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required parameters: selfie and prompt", body["error"])
	}
}

func TestGenerateMissingKey(t *testing.T) {
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderGemini: newOrchestrator(t, services.GeminiPipeline, nil),
		},
	})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/generate", models.GenerationRequest{Selfie: test.PNGDataURL, Prompt: "hi"}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Gemini API key not configured", body["error"])
}

func TestGenerateInvalidSelfie(t *testing.T) {
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderGemini: newOrchestrator(t, services.GeminiPipeline, map[string]services.Provider{services.ProviderGemini: &test.FakeProvider{}}),
		},
	})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/generate", models.GenerationRequest{Selfie: "data:image/gif;base64,R0lGODlh", Prompt: "hi"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(body["error"].(string), "Invalid selfie image"))
}

func TestGenerateAllVariationsFailed(t *testing.T) {
	fake := &test.FakeProvider{
		ModelName: "gemini-2.5-flash-image",
		GenerateFunc: func(call int, in services.VariationInput) (string, error) {
			return "", &services.UpstreamError{Provider: services.ProviderGemini, StatusCode: 400, Body: "bad request"}
		},
	}
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderGemini: newOrchestrator(t, services.GeminiPipeline, map[string]services.Provider{services.ProviderGemini: fake}),
		},
	})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/generate", models.GenerationRequest{Selfie: test.PNGDataURL, Prompt: "hi"}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Image generation failed", body["error"])
	assert.Equal(t, "gemini-2.5-flash-image", body["model"])
	assert.Contains(t, body["suggestion"], "API Key is valid")
	assert.Len(t, body["details"], 4)
}

func TestGenerateException(t *testing.T) {
	e := SetupServer(Dependencies{
		Orchestrators: map[string]Generator{
			services.ProviderGemini: generatorFunc(func(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error) {
				return nil, errors.New("connection reset")
			}),
		},
	})
	rec, body := test.Do(e, test.NewJSONRequest(http.MethodPost, "/api/generate", models.GenerationRequest{Selfie: test.PNGDataURL, Prompt: "hi"}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Exception occurred during image generation", body["error"])
	assert.Equal(t, "connection reset", body["details"])
	assert.Equal(t, exceptionSuggestion, body["suggestion"])
}

func TestGenerateInvalidBody(t *testing.T) {
	e := SetupServer(Dependencies{})
	req := test.NewJSONRequest(http.MethodPost, "/api/generate", "not an object")
	rec, body := test.Do(e, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}
