package utils

import (
	"regexp"
	"sort"
	"strings"
)

// AmenityMatcher finds amenity mentions in free text and reports them
// under their canonical names (e.g. "elevator" -> "Lift").
type AmenityMatcher struct {
	aliases []amenityAlias
}

type amenityAlias struct {
	canonical string
	re        *regexp.Regexp
}

// NewAmenityMatcher builds a matcher from canonical name -> aliases.
// The canonical name itself always counts as an alias.
func NewAmenityMatcher(vocab map[string][]string) *AmenityMatcher {
	m := &AmenityMatcher{}
	for canonical, aliases := range vocab {
		name := NormalizeAmenity(canonical)
		terms := append([]string{canonical}, aliases...)
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			m.aliases = append(m.aliases, amenityAlias{
				canonical: name,
				re:        regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			})
		}
	}
	return m
}

// Match returns the canonical names mentioned in text, deduplicated and sorted
func (m *AmenityMatcher) Match(text string) []string {
	return m.MatchFunc(text, nil)
}

// MatchFunc is Match restricted to mentions for which keep(start) is true.
// A nil keep accepts every mention.
func (m *AmenityMatcher) MatchFunc(text string, keep func(start int) bool) []string {
	found := make(map[string]bool)
	for _, a := range m.aliases {
		if found[a.canonical] {
			continue
		}
		for _, loc := range a.re.FindAllStringIndex(text, -1) {
			if keep == nil || keep(loc[0]) {
				found[a.canonical] = true
				break
			}
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeAmenity trims and capitalizes an amenity name: "swimming pool" -> "Swimming pool"
func NormalizeAmenity(amenity string) string {
	s := strings.Join(strings.Fields(amenity), " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
