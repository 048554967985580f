package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"propertyagent/internal/model"
)

// Entity labels produced by an EntityRecognizer
const (
	LabelPlace    = "PLACE"
	LabelMoney    = "MONEY"
	LabelQuantity = "QUANTITY"
)

// Entity is one labelled span of the input text
type Entity struct {
	Label string
	Text  string
	Start int
	End   int
}

// EntityRecognizer tags spans of text with entity labels
type EntityRecognizer interface {
	Recognize(text string) []Entity
}

var labelField = map[string]string{
	LabelPlace:    model.FieldLocation,
	LabelMoney:    model.FieldPrice,
	LabelQuantity: model.FieldArea,
}

var (
	moneyRe = regexp.MustCompile(`(?i)(?:₹\s*|\b(?:rs\.?|inr)\s*)\d+(?:,\d+)*(?:\.\d+)?(?:\s*(?:lakhs?|lacs?|crores?|cr)\b)?` +
		`|\b\d+(?:,\d+)*(?:\.\d+)?\s*(?:lakhs?|lacs?|crores?|cr)\b`)
	quantityRe = regexp.MustCompile(`(?i)\b\d+(?:,\d+)*(?:\.\d+)?\s*(?:sq\.?\s*ft\.?|sqft|square\s+(?:feet|foot|yards?|met(?:er|re)s?)|sq\.?\s*yds?\b|sqm\b|sq\.?\s*m\b|acres?\b|gaj\b)`)
)

// GazetteerRecognizer is a deterministic tagger: places come from a fixed
// gazetteer (optionally prefixed by "Sector N"), money and quantity spans
// from a small grammar of Indian price and area expressions.
type GazetteerRecognizer struct {
	placeRe   *regexp.Regexp
	canonical map[string]string
}

// NewGazetteerRecognizer builds a recognizer over the given place names
func NewGazetteerRecognizer(places []string) *GazetteerRecognizer {
	names := make([]string, 0, len(places))
	canonical := make(map[string]string, len(places))
	for _, p := range places {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, dup := canonical[key]; dup {
			continue
		}
		canonical[key] = p
		names = append(names, p)
	}
	// longest first so "Greater Noida" wins over "Noida"
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	r := &GazetteerRecognizer{canonical: canonical}
	if len(names) == 0 {
		return r
	}

	alts := make([]string, len(names))
	for i, n := range names {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(n), " ", `\s+`)
	}
	r.placeRe = regexp.MustCompile(`(?i)\b(sec(?:tor)?[\s-]*\d+[a-z]?,?\s+)?(` + strings.Join(alts, "|") + `)\b`)
	return r
}

// Recognize returns all entities ordered by position
func (r *GazetteerRecognizer) Recognize(text string) []Entity {
	var out []Entity

	if r.placeRe != nil {
		for _, m := range r.placeRe.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, Entity{Label: LabelPlace, Text: r.placeText(text, m), Start: m[0], End: m[1]})
		}
	}
	for _, m := range moneyRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Label: LabelMoney, Text: strings.TrimSpace(text[m[0]:m[1]]), Start: m[0], End: m[1]})
	}
	for _, m := range quantityRe.FindAllStringIndex(text, -1) {
		out = append(out, Entity{Label: LabelQuantity, Text: strings.TrimSpace(text[m[0]:m[1]]), Start: m[0], End: m[1]})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// placeText renders "sector 76 noida" as "Sector 76 Noida"
func (r *GazetteerRecognizer) placeText(text string, m []int) string {
	place := text[m[4]:m[5]]
	if c, ok := r.canonical[strings.ToLower(strings.Join(strings.Fields(place), " "))]; ok {
		place = c
	}
	if m[2] < 0 {
		return place
	}
	prefix := strings.Fields(strings.NewReplacer(",", " ", "-", " ").Replace(text[m[2]:m[3]]))
	if len(prefix) == 0 {
		return place
	}
	// "sec76" splits into a single field
	num := strings.TrimLeft(strings.ToLower(strings.Join(prefix, "")), "sector")
	return "Sector " + strings.ToUpper(num) + " " + place
}

// StructuredLayer maps recognized entities to fields: PLACE -> location,
// MONEY -> price, QUANTITY -> area. The first span for each field wins.
type StructuredLayer struct {
	recognizer EntityRecognizer
}

func NewStructuredLayer(recognizer EntityRecognizer) *StructuredLayer {
	return &StructuredLayer{recognizer: recognizer}
}

func (l *StructuredLayer) Name() string { return "structured" }

func (l *StructuredLayer) Extract(_ context.Context, text string) model.Fields {
	out := model.Fields{}
	for _, ent := range l.recognizer.Recognize(text) {
		field, ok := labelField[ent.Label]
		if !ok || ent.Text == "" {
			continue
		}
		if _, taken := out[field]; !taken {
			out[field] = ent.Text
		}
	}
	return out
}
