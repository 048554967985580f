package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"propertyagent/internal/model"
	"propertyagent/internal/observability"
	"propertyagent/internal/utils"
)

// GenerativeFields are the fields the language model is asked for
var GenerativeFields = []string{
	model.FieldTitle,
	model.FieldLocation,
	model.FieldPrice,
	model.FieldArea,
	model.FieldAmenities,
}

const extractionPrompt = `
You are an extraction assistant. Extract property listing fields from the user's text and return ONLY valid JSON.
Fields to extract (if present):
- title (e.g., "3BHK Apartment", "2BHK Flat")
- location (city/area)
- price (string, include units like 'Lakh' or 'Crore' if present)
- area (string, include units like 'sqft' if present)
- amenities (comma-separated string or list, e.g., "Lift, Parking")

Example 1:
Text: "I want to list my 2BHK flat in Sector 76 Noida, 950 sqft, price around 75 lakh, has parking and lift."
Output JSON:
{
  "title": "2BHK Flat",
  "location": "Sector 76 Noida",
  "price": "75 lakh",
  "area": "950 sqft",
  "amenities": "Parking, Lift"
}

Example 2:
Text: "Selling a 4BHK villa in Gurugram near Golf Course Road. Asking 2.1 Crore, 2200 sq ft, garden and pool."
Output JSON:
{
  "title": "4BHK Villa",
  "location": "Gurugram, Golf Course Road",
  "price": "2.1 Crore",
  "area": "2200 sqft",
  "amenities": "Garden, Pool"
}

Now extract from this text:
"""%s"""

Return JSON only.
`

// GenerativeLayer asks a language model for the fields the cheaper layers missed.
// When the answer cannot be parsed it falls back to a pattern layer; when the
// model cannot be reached it contributes nothing.
type GenerativeLayer struct {
	llm      Completer
	fallback *PatternLayer
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewGenerativeLayer(llm Completer, fallback *PatternLayer, timeout time.Duration, metrics *observability.Metrics) *GenerativeLayer {
	return &GenerativeLayer{llm: llm, fallback: fallback, timeout: timeout, metrics: metrics}
}

func (l *GenerativeLayer) Name() string { return "generative" }

// Needed reports whether the model could add anything to known
func (l *GenerativeLayer) Needed(known model.Fields) bool {
	if l.llm == nil || !l.llm.IsEnabled() {
		return false
	}
	for _, f := range GenerativeFields {
		if !known.Has(f) {
			return true
		}
	}
	return false
}

func (l *GenerativeLayer) Extract(ctx context.Context, text string) model.Fields {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	raw, err := l.llm.Complete(ctx, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		reason := "transport"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		log.Printf("⚠️  [Extractor] LLM extraction skipped (%s): %v", reason, err)
		l.metrics.LayerError(l.Name(), reason)
		return model.Fields{}
	}

	fields, err := parseGenerative(raw)
	if err != nil {
		log.Printf("⚠️  [Extractor] LLM answer not parseable, using fallback rules: %v", err)
		l.metrics.LayerError(l.Name(), "parse")
		if l.fallback == nil {
			return model.Fields{}
		}
		return keepFields(l.fallback.Extract(ctx, text), GenerativeFields)
	}
	return fields
}

// parseGenerative decodes the model's JSON object, flattening lists and
// keeping only the generative vocabulary
func parseGenerative(raw string) (model.Fields, error) {
	var parsed map[string]interface{}
	if err := utils.ParseAIJSON(raw, &parsed); err != nil {
		return nil, err
	}

	values := model.Fields{}
	for k, v := range parsed {
		if s := utils.FlattenJSONValue(v); s != "" {
			values[strings.ToLower(strings.TrimSpace(k))] = s
		}
	}
	return keepFields(values, GenerativeFields), nil
}

func keepFields(in model.Fields, names []string) model.Fields {
	out := model.Fields{}
	for _, n := range names {
		if v := strings.TrimSpace(in[n]); v != "" {
			out[n] = v
		}
	}
	return out
}
