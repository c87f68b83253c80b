package services

import (
	"context"
	"errors"
	"testing"

	"selfieapi/config"
	"selfieapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextProviderOrder(t *testing.T) {
	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, TextProviderOrder(""))
	assert.Equal(t, []string{ProviderOpenAI}, TextProviderOrder(" OpenAI "))
	assert.Equal(t, []string{ProviderBytePlus}, TextProviderOrder("byteplus"))
	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, TextProviderOrder("claude"))
}

func TestRuntimeWithoutKeys(t *testing.T) {
	rt, err := NewRuntime(context.Background(), config.Config{ProviderRPS: 5, ProviderBurst: 4}, nil)
	require.NoError(t, err)
	assert.Empty(t, rt.Registry.Names())
	require.Contains(t, rt.Orchestrators, ProviderGemini)
	require.Contains(t, rt.Orchestrators, ProviderBytePlus)

	_, err = rt.Orchestrators[ProviderBytePlus].Generate(context.Background(), models.GenerationRequest{Selfie: "x", Prompt: "y"})
	var configErr *ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "BytePlus API key not configured", configErr.Message)
}

func TestRuntimeRegistersConfiguredProviders(t *testing.T) {
	rt, err := NewRuntime(context.Background(), config.Config{
		BytePlusAPIKey:  "bp-key",
		BytePlusBaseURL: config.DefaultBytePlusBaseURL,
		BytePlusModel:   config.DefaultBytePlusModel,
		OpenAIAPIKey:    "sk-test",
		TextProvider:    "openai",
		ProviderRPS:     5,
		ProviderBurst:   4,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderBytePlus, ProviderOpenAI}, rt.Registry.Names())
	assert.False(t, rt.Registry.Has(ProviderGemini))
	assert.True(t, rt.Registry.Has(ProviderOpenAI))
	assert.Equal(t, []string{ProviderOpenAI}, rt.Orchestrators[ProviderBytePlus].Pipeline.TextProviders)
	assert.Equal(t, config.DefaultBytePlusModel, mustModel(t, rt, ProviderBytePlus))
}

func TestRuntimeLimiterNeverBlocksOnBadPacing(t *testing.T) {
	rt, err := NewRuntime(context.Background(), config.Config{ProviderRPS: 0, ProviderBurst: 0}, nil)
	require.NoError(t, err)

	for _, name := range []string{ProviderGemini, ProviderBytePlus} {
		limiter := rt.Orchestrators[name].Generator.Limiter
		require.NotNil(t, limiter)
		assert.Equal(t, 1, limiter.Burst())
		for i := 0; i < 4; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
		}
	}
}

func mustModel(t *testing.T, rt *Runtime, name string) string {
	t.Helper()
	p, err := rt.Registry.Get(name)
	require.NoError(t, err)
	return p.Model()
}
