package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBytePlusTestProvider(t *testing.T, handler http.HandlerFunc) *BytePlusProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p, err := NewBytePlusProvider(BytePlusConfig{APIKey: "test-key", BaseURL: server.URL, Model: "seedream-test"})
	require.NoError(t, err)
	return p
}

func TestBytePlusGenerateBatch(t *testing.T) {
	var captured bytePlusImagesRequest
	p := newBytePlusTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"AAA"},{"url":"https://cdn.example.com/2.jpg"},{"b64_json":"CCC"},{"b64_json":"DDD"}]}`))
	})

	selfie := ImageData{MIMEType: "image/png", Data: []byte{1}}
	images, err := p.GenerateBatch(context.Background(), VariationInput{Prompt: "a portrait", Subjects: []ImageData{selfie}}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"data:image/jpeg;base64,AAA",
		"https://cdn.example.com/2.jpg",
		"data:image/jpeg;base64,CCC",
		"data:image/jpeg;base64,DDD",
	}, images)

	assert.Equal(t, "seedream-test", captured.Model)
	assert.Equal(t, 4, captured.N)
	assert.Equal(t, "1152x1536", captured.Size)
	assert.Equal(t, "b64_json", captured.ResponseFormat)
	assert.InDelta(t, 0.85, captured.ImageStrength, 0.0001)
	assert.False(t, captured.Watermark)
	assert.Equal(t, []string{"data:image/png;base64,AQ=="}, captured.Image)
}

func TestBytePlusSingleOmitsN(t *testing.T) {
	var raw map[string]any
	p := newBytePlusTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"AAA"}]}`))
	})
	image, err := p.GenerateVariation(context.Background(), VariationInput{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAA", image)
	assert.NotContains(t, raw, "n")
}

func TestBytePlusUpstreamError(t *testing.T) {
	p := newBytePlusTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})
	_, err := p.GenerateVariation(context.Background(), VariationInput{Prompt: "x"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, `API error (429): {"error":{"message":"rate limited"}}`, err.Error())
}

func TestBytePlusEmptyData(t *testing.T) {
	p := newBytePlusTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	_, err := p.GenerateVariation(context.Background(), VariationInput{Prompt: "x"})
	var shape *DataShapeError
	require.ErrorAs(t, err, &shape)
}

func TestBytePlusTextTasksNeedChatModel(t *testing.T) {
	p, err := NewBytePlusProvider(BytePlusConfig{APIKey: "k", BaseURL: "http://unused"})
	require.NoError(t, err)
	_, err = p.RewritePrompt(context.Background(), RewriteInput{UserIntent: "x"})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestBytePlusChatRewrite(t *testing.T) {
	p, err := NewBytePlusProvider(BytePlusConfig{APIKey: "k", Model: "seedream", ChatModel: "skylark"})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "skylark", body["model"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  A detailed caption.  "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()
	p.chat = newChatClient(ProviderBytePlus, "k", server.URL, "skylark", server.Client())

	text, err := p.RewritePrompt(context.Background(), RewriteInput{UserIntent: "on a beach", Style: RewriteCaption})
	require.NoError(t, err)
	assert.Equal(t, "A detailed caption.", text)
}
