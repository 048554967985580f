package service

import (
	"context"
	"strings"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"
	"propertyagent/internal/observability"
)

// Layer turns text into a partial set of fields. Layers never fail: a layer
// that cannot contribute returns an empty result.
type Layer interface {
	Name() string
	Extract(ctx context.Context, text string) model.Fields
}

// conditionalLayer is a layer that can be skipped given what earlier layers found
type conditionalLayer interface {
	Layer
	Needed(known model.Fields) bool
}

// FieldExtractor is what the orchestrator needs from extraction
type FieldExtractor interface {
	Extract(ctx context.Context, text string) model.Fields
}

// Extractor runs its layers in order and merges their results first-writer-wins
type Extractor struct {
	layers  []Layer
	metrics *observability.Metrics
}

func NewExtractor(metrics *observability.Metrics, layers ...Layer) *Extractor {
	return &Extractor{layers: layers, metrics: metrics}
}

// NewDefaultExtractor wires structured recognizer -> pattern rules -> language model
func NewDefaultExtractor(vocab config.Vocabulary, llm Completer, llmTimeout time.Duration, metrics *observability.Metrics) *Extractor {
	return NewExtractor(metrics,
		NewStructuredLayer(NewGazetteerRecognizer(vocab.Places)),
		NewPatternLayer("patterns", vocab.Amenities),
		NewGenerativeLayer(llm, NewPatternLayer("fallback", vocab.Fallback, WithLocationRule()), llmTimeout, metrics),
	)
}

// Extract returns every field any layer recognized. It never fails.
func (e *Extractor) Extract(ctx context.Context, text string) model.Fields {
	if strings.TrimSpace(text) == "" {
		return model.Fields{}
	}

	results := make([]model.Fields, 0, len(e.layers))
	for _, layer := range e.layers {
		if c, ok := layer.(conditionalLayer); ok && !c.Needed(model.MergeFirstWins(results...)) {
			continue
		}

		fields := layer.Extract(ctx, text)
		for name := range fields {
			e.metrics.Extracted(layer.Name(), name)
		}
		results = append(results, fields)
	}

	return model.MergeFirstWins(results...)
}
