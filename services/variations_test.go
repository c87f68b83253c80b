package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVariationCatalog(t *testing.T) {
	catalog, err := LoadVariationCatalog()
	require.NoError(t, err)

	require.Len(t, catalog.Styles, VariationCount)
	require.Len(t, catalog.Angles, VariationCount)
	assert.Equal(t, "Instagram Realistic", catalog.Styles[0].Name)
	assert.Equal(t, "front view, eye level, centered composition", catalog.Angles[0].Modifier)
	assert.Contains(t, catalog.BatchSuffix, "varied camera angles")
}

func TestParseVariationCatalogRejectsShortLists(t *testing.T) {
	_, err := ParseVariationCatalog([]byte("styles:\n  - name: only\n    modifier: one\n"))
	assert.Error(t, err)
}

func TestVariationApply(t *testing.T) {
	v := Variation{Name: "Variation 1", Modifier: "front view"}
	assert.Equal(t, "a cat, front view, sharp", v.Apply(" a cat ", "sharp"))
	assert.Equal(t, "a cat, front view", v.Apply("a cat", ""))
}
