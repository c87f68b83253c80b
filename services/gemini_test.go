package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func contentResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestDecodeGeminiImage(t *testing.T) {
	result := contentResponse(
		&genai.Part{Text: "here you go"},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	)
	image, err := DecodeGeminiImage(result)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", image)
}

func TestDecodeGeminiImageTextOnly(t *testing.T) {
	long := "I cannot create that image because it would require depicting a real person in a situation they have not consented to."
	_, err := DecodeGeminiImage(contentResponse(&genai.Part{Text: long}))
	require.Error(t, err)

	var shape *DataShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "API returned text instead of image: "+long[:100], shape.Reason)
}

func TestDecodeGeminiImageEmpty(t *testing.T) {
	_, err := DecodeGeminiImage(&genai.GenerateContentResponse{})
	assert.EqualError(t, err, "No image data found in response")
}

func TestDecodeGeminiBlocked(t *testing.T) {
	result := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}
	_, err := DecodeGeminiText(result)
	assert.ErrorContains(t, err, "Content blocked")
}

func TestDecodeGeminiTextSkipsThoughts(t *testing.T) {
	result := contentResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "  A sunlit rooftop terrace.  "},
	)
	text, err := DecodeGeminiText(result)
	require.NoError(t, err)
	assert.Equal(t, "A sunlit rooftop terrace.", text)
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Gemini API key not configured", cfgErr.Message)
}

func TestLLMModelNameDefaults(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", Flash20.String())
	assert.Equal(t, "gemini-2.5-flash-image", Flash25Image.String())
}

type geminiWirePart struct {
	Text       string `json:"text"`
	InlineData *struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData"`
}

type geminiWireRequest struct {
	Contents []struct {
		Parts []geminiWirePart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

// newGeminiTestProvider answers text calls with a rewritten prompt and IMAGE calls with a tiny PNG.
func newGeminiTestProvider(t *testing.T) (*GeminiProvider, func() []geminiWireRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []geminiWireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiWireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		captured = append(captured, req)
		mu.Unlock()

		part := map[string]interface{}{"text": "Subject A and subject B on a rooftop"}
		if len(req.GenerationConfig.ResponseModalities) > 0 {
			part = map[string]interface{}{"inlineData": map[string]string{
				"mimeType": "image/png",
				"data":     base64.StdEncoding.EncodeToString(pngHeader),
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{map[string]interface{}{
				"content": map[string]interface{}{"role": "model", "parts": []interface{}{part}},
			}},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return p, func() []geminiWireRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]geminiWireRequest(nil), captured...)
	}
}

// labelBeforeImage asserts that the part right after the one mentioning label carries image.
func labelBeforeImage(t *testing.T, parts []geminiWirePart, label string, image ImageData) {
	t.Helper()
	want := base64.StdEncoding.EncodeToString(image.Data)
	for i, part := range parts {
		if !strings.Contains(part.Text, label) || i+1 >= len(parts) {
			continue
		}
		next := parts[i+1].InlineData
		require.NotNil(t, next, "no image after %q", label)
		assert.Equal(t, image.MIMEType, next.MIMEType)
		assert.Equal(t, want, next.Data)
		return
	}
	t.Fatalf("no part labels %q", label)
}

func TestGeminiSubjectOrderMatchesAcrossCalls(t *testing.T) {
	p, requests := newGeminiTestProvider(t)
	selfie := ImageData{MIMEType: "image/png", Data: pngHeader}
	friend := ImageData{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}}
	subjects := []ImageData{selfie, friend}

	rewritten, err := p.RewritePrompt(context.Background(), RewriteInput{
		UserIntent: "two friends on a rooftop",
		Subjects:   subjects,
		Style:      RewritePhotographer,
	})
	require.NoError(t, err)
	assert.Equal(t, "Subject A and subject B on a rooftop", rewritten)

	image, err := p.GenerateVariation(context.Background(), VariationInput{Prompt: rewritten, Subjects: subjects})
	require.NoError(t, err)
	assert.Equal(t, ToDataURL("image/png", pngHeader), image)

	captured := requests()
	require.Len(t, captured, 2)
	for _, req := range captured {
		require.Len(t, req.Contents, 1)
		labelBeforeImage(t, req.Contents[0].Parts, "SUBJECT A", selfie)
		labelBeforeImage(t, req.Contents[0].Parts, "SUBJECT B", friend)
	}
	assert.Empty(t, captured[0].GenerationConfig.ResponseModalities)
	assert.Equal(t, []string{"IMAGE"}, captured[1].GenerationConfig.ResponseModalities)
}
