package service

import (
	"context"
	"regexp"
	"strings"

	"propertyagent/internal/model"
	"propertyagent/internal/utils"
)

var (
	priceRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:lakhs?|crores?|cr\b|rs\b|₹)|₹\s*\d+(?:,\d+)*(?:\.\d+)?`)
	areaRe  = regexp.MustCompile(`(?i)\b\d{3,5}\s*(?:sqft|sq\.?\s?ft|square\s*feet)`)
	titleRe = regexp.MustCompile(`(?i)\b\d+\s*bhk`)
	// "in <place>" up to a clause break or a price/amenity cue
	locationRe = regexp.MustCompile(`(?i)\bin\s+([a-z0-9][a-z0-9\s\-]*?)\s*(?:[,.;]|\s(?:for|priced|price|asking|at|with|having|has|under|near|of)\b|$)`)
	imageURLRe = regexp.MustCompile(`(?i)https?://[^\s,]+`)
	imageWords = regexp.MustCompile(`(?i)\b(?:images?|photos?|pictures?|pics)\b`)
	phraseRe   = regexp.MustCompile(`[.!?;,\n]`)
)

// a negation does not reach across these
var conjunctions = map[string]bool{
	"and": true, "but": true, "or": true, "though": true, "although": true, "however": true, "plus": true,
}

var negations = map[string]bool{
	"no": true, "not": true, "without": true, "never": true, "dont": true, "don't": true,
	"haven't": true, "havent": true, "cannot": true, "can't": true, "won't": true, "later": true,
}

// PatternLayer extracts fields with fixed regular expressions and an amenity vocabulary
type PatternLayer struct {
	name      string
	amenities *utils.AmenityMatcher
	locations bool
}

// PatternOption configures a PatternLayer
type PatternOption func(*PatternLayer)

// WithLocationRule enables the loose "in <place>" rule. It guesses at
// anything following "in", so it only suits a last-resort layer.
func WithLocationRule() PatternOption {
	return func(l *PatternLayer) { l.locations = true }
}

// NewPatternLayer builds a pattern layer; amenities maps canonical names to aliases
func NewPatternLayer(name string, amenities map[string][]string, opts ...PatternOption) *PatternLayer {
	l := &PatternLayer{name: name, amenities: utils.NewAmenityMatcher(amenities)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *PatternLayer) Name() string { return l.name }

func (l *PatternLayer) Extract(_ context.Context, text string) model.Fields {
	out := model.Fields{}

	if m := priceRe.FindString(text); m != "" {
		out[model.FieldPrice] = strings.TrimSpace(m)
	}
	if m := areaRe.FindString(text); m != "" {
		out[model.FieldArea] = strings.TrimSpace(m)
	}
	if m := titleRe.FindString(text); m != "" {
		out[model.FieldTitle] = strings.ToUpper(strings.Join(strings.Fields(m), ""))
	}
	affirmed := func(start int) bool { return !negatedBefore(text, start) }
	if names := l.amenities.MatchFunc(text, affirmed); len(names) > 0 {
		out[model.FieldAmenities] = model.JoinSet(names)
	}
	if l.locations {
		if loc := matchLocation(text); loc != "" {
			out[model.FieldLocation] = loc
		}
	}
	if images := matchImages(text); images != "" {
		out[model.FieldImages] = images
	}

	return out
}

func matchLocation(text string) string {
	for _, m := range locationRe.FindAllStringSubmatch(text, -1) {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			return loc
		}
	}
	return ""
}

// matchImages returns the image URLs in text, or "Provided" when the user
// says they are sending images without being negated ("no photos yet").
func matchImages(text string) string {
	if urls := imageURLRe.FindAllString(text, -1); len(urls) > 0 {
		cleaned := make([]string, 0, len(urls))
		for _, u := range urls {
			cleaned = append(cleaned, strings.TrimRight(u, ".)];:!?"))
		}
		return strings.Join(dedupe(cleaned), ", ")
	}

	for _, loc := range imageWords.FindAllStringIndex(text, -1) {
		if !negatedBefore(text, loc[0]) && !negatedAfter(text, loc[1]) {
			return "Provided"
		}
	}
	return ""
}

// negatedBefore looks at up to four words before pos within the same phrase.
// "no lift but photos attached" negates the lift, not the photos.
func negatedBefore(text string, pos int) bool {
	phrase := text[:pos]
	if idx := phraseRe.FindAllStringIndex(phrase, -1); len(idx) > 0 {
		phrase = phrase[idx[len(idx)-1][1]:]
	}
	words := strings.Fields(strings.ToLower(phrase))
	for i := len(words) - 1; i >= 0 && i >= len(words)-4; i-- {
		if conjunctions[words[i]] {
			return false
		}
		if negations[words[i]] {
			return true
		}
	}
	return false
}

// negatedAfter catches "photos later" and "images not yet"
func negatedAfter(text string, pos int) bool {
	words := strings.Fields(strings.ToLower(text[pos:]))
	if len(words) > 2 {
		words = words[:2]
	}
	for _, w := range words {
		w = strings.Trim(w, ",.!?;")
		if w == "later" || w == "not" || w == "pending" {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
