package languageutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TitleCaser keeps existing capitals ("NYC rooftop" -> "NYC Rooftop").
var TitleCaser = cases.Title(language.Und, cases.NoLower)
var LowerCaser = cases.Lower(language.Und)

var spaces = regexp.MustCompile(`\s+`)
var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// DisplayName trims and collapses whitespace and title-cases the result.
func DisplayName(name string) string {
	name = spaces.ReplaceAllString(strings.TrimSpace(name), " ")
	return TitleCaser.String(name)
}

// FoldDiacritics strips combining marks: "Café Zürich" -> "Cafe Zurich".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Slug renders name as a lowercase ascii object key segment.
func Slug(name string) string {
	slug := LowerCaser.String(FoldDiacritics(name))
	slug = nonSlug.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
