package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ReferenceKind is the category of an optional reference image.
type ReferenceKind string

const (
	ReferenceOutfit   ReferenceKind = "outfit"
	ReferencePose     ReferenceKind = "pose"
	ReferenceLocation ReferenceKind = "location"
)

// ReferenceDescription is the text a describer produced for one reference image.
type ReferenceDescription struct {
	Kind ReferenceKind
	Text string
}

// RewriteStyle selects the instruction used to rewrite the user intent.
type RewriteStyle string

const (
	RewritePhotographer RewriteStyle = "photographer"
	RewriteCaption      RewriteStyle = "caption"
)

// RewriteInput carries everything a provider needs to rewrite one prompt.
// Subjects[0] is the primary selfie, the rest are co-create images in order.
type RewriteInput struct {
	UserIntent   string
	Descriptions []ReferenceDescription
	Subjects     []ImageData
	Style        RewriteStyle
}

func (in RewriteInput) MultiSubject() bool {
	return len(in.Subjects) > 1
}

// VariationInput is one image generation attempt.
type VariationInput struct {
	Prompt   string
	Subjects []ImageData
}

func (in VariationInput) MultiSubject() bool {
	return len(in.Subjects) > 1
}

// TextOptions tunes a text completion.
type TextOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// Provider is the capability set every generative backend offers to the orchestrator.
// GenerateVariation returns a data URL or an https URL of the produced image.
type Provider interface {
	Name() string
	Model() string
	DescribeImage(ctx context.Context, kind ReferenceKind, image ImageData) (string, error)
	RewritePrompt(ctx context.Context, in RewriteInput) (string, error)
	GenerateVariation(ctx context.Context, in VariationInput) (string, error)
}

// BatchGenerator is implemented by providers that can return n images from a single call.
type BatchGenerator interface {
	GenerateBatch(ctx context.Context, in VariationInput, n int) ([]string, error)
}

// Vision is implemented by providers that answer a free-form instruction about one image.
type Vision interface {
	AskImage(ctx context.Context, image ImageData, instruction string, opts TextOptions) (string, error)
}

// Provider names used by the registry and the routes.
const (
	ProviderGemini   = "gemini"
	ProviderBytePlus = "byteplus"
	ProviderOpenAI   = "openai"
)

var providerLabels = map[string]string{
	ProviderGemini:   "Gemini",
	ProviderBytePlus: "BytePlus",
	ProviderOpenAI:   "OpenAI",
}

// ProviderRegistry resolves configured providers by name.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: map[string]Provider{}}
}

func (r *ProviderRegistry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Get returns a ConfigurationError when name has no configured provider.
func (r *ProviderRegistry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok || p == nil {
		label, known := providerLabels[name]
		if !known {
			label = name
		}
		return nil, &ConfigurationError{Message: fmt.Sprintf("%s API key not configured", label)}
	}
	return p, nil
}

func (r *ProviderRegistry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
