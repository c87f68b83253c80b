package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// VariationCount is the fixed number of images every generation returns.
const VariationCount = 4

// Variation is one slot of the per-variation strategy.
type Variation struct {
	Name     string `yaml:"name"`
	Modifier string `yaml:"modifier"`
}

// Apply decorates the shared prompt with this variation's modifier and an optional suffix.
func (v Variation) Apply(prompt, suffix string) string {
	parts := []string{strings.TrimSpace(prompt)}
	if v.Modifier != "" {
		parts = append(parts, v.Modifier)
	}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, ", ")
}

type VariationCatalog struct {
	Styles         []Variation `yaml:"styles"`
	Angles         []Variation `yaml:"angles"`
	IdentitySuffix string      `yaml:"identity_suffix"`
	BatchSuffix    string      `yaml:"batch_suffix"`
}

//go:embed variations.yaml
var variationsYAML []byte

// LoadVariationCatalog parses the embedded catalog. Both lists must hold exactly VariationCount entries.
func LoadVariationCatalog() (*VariationCatalog, error) {
	return ParseVariationCatalog(variationsYAML)
}

func ParseVariationCatalog(raw []byte) (*VariationCatalog, error) {
	var catalog VariationCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse variation catalog: %w", err)
	}
	if len(catalog.Styles) != VariationCount {
		return nil, fmt.Errorf("variation catalog: expected %d styles, got %d", VariationCount, len(catalog.Styles))
	}
	if len(catalog.Angles) != VariationCount {
		return nil, fmt.Errorf("variation catalog: expected %d angles, got %d", VariationCount, len(catalog.Angles))
	}
	return &catalog, nil
}
