package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"
	"propertyagent/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestExtractor(llm Completer) *Extractor {
	return NewDefaultExtractor(config.DefaultVocabulary(), llm, 0, nil)
}

func TestExtractSingleUtterance(t *testing.T) {
	llm := &fakeCompleter{}
	got := newTestExtractor(llm).Extract(context.Background(), "2BHK flat in Noida for 75 lakh, 950 sqft, parking and lift")

	assert.Equal(t, model.Fields{
		model.FieldTitle:     "2BHK",
		model.FieldLocation:  "Noida",
		model.FieldPrice:     "75 lakh",
		model.FieldArea:      "950 sqft",
		model.FieldAmenities: "Lift, Parking",
	}, got)
	assert.Zero(t, llm.calls(), "model is not consulted when rules found everything it could add")
}

func TestExtractFirstLayerWins(t *testing.T) {
	llm := &fakeCompleter{answer: `{"location": "Indirapuram", "title": "House"}`}
	got := newTestExtractor(llm).Extract(context.Background(), "house in Indirapuram Ghaziabad for 50 lakh")

	assert.Equal(t, "Ghaziabad", got[model.FieldLocation], "recognizer beats pattern rules and the model")
	assert.Equal(t, "50 lakh", got[model.FieldPrice])
	assert.Equal(t, "House", got[model.FieldTitle], "model fills what earlier layers missed")
}

func TestExtractModelLocationBeatsLooseRule(t *testing.T) {
	llm := &fakeCompleter{answer: `{"title": "2BHK Flat", "location": "Kharghar", "price": "90 lakh"}`}
	got := newTestExtractor(llm).Extract(context.Background(), "2BHK flat in excellent condition at Kharghar for 90 lakh")

	assert.Equal(t, 1, llm.calls())
	assert.Equal(t, "Kharghar", got[model.FieldLocation])
	assert.Equal(t, "2BHK", got[model.FieldTitle])
}

func TestExtractUnparseableModelAnswerUsesLocationRule(t *testing.T) {
	llm := &fakeCompleter{answer: "I am not sure."}
	got := newTestExtractor(llm).Extract(context.Background(), "2BHK in Kharghar for 90 lakh")

	assert.Equal(t, "Kharghar", got[model.FieldLocation])
}

func TestExtractModelFailureKeepsRuleResults(t *testing.T) {
	for name, llm := range map[string]*fakeCompleter{
		"error":   {err: errors.New("503 from upstream")},
		"timeout": {block: true},
	} {
		t.Run(name, func(t *testing.T) {
			e := NewDefaultExtractor(config.DefaultVocabulary(), llm, 20*time.Millisecond, nil)
			got := e.Extract(context.Background(), "flat in Pune for 60 lakh")

			assert.Equal(t, model.Fields{
				model.FieldLocation: "Pune",
				model.FieldPrice:    "60 lakh",
			}, got)
		})
	}
}

func TestExtractEmptyText(t *testing.T) {
	llm := &fakeCompleter{}
	got := newTestExtractor(llm).Extract(context.Background(), "   ")
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, llm.calls())
}

func TestExtractRecordsLayerMetrics(t *testing.T) {
	m := observability.NewMetrics("extract_test")
	e := NewDefaultExtractor(config.DefaultVocabulary(), &fakeCompleter{err: errors.New("down")}, 0, m)

	e.Extract(context.Background(), "flat in Pune for 60 lakh")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractedFields.WithLabelValues("structured", model.FieldPrice)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractedFields.WithLabelValues("structured", model.FieldLocation)))
	assert.Zero(t, testutil.ToFloat64(m.ExtractedFields.WithLabelValues("patterns", model.FieldLocation)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LayerErrors.WithLabelValues("generative", "transport")))
}

type staticLayer struct {
	name   string
	fields model.Fields
}

func (s staticLayer) Name() string { return s.name }
func (s staticLayer) Extract(context.Context, string) model.Fields {
	return s.fields.Clone()
}

func TestExtractorPrecedenceIsLayerOrder(t *testing.T) {
	e := NewExtractor(nil,
		staticLayer{"a", model.Fields{model.FieldPrice: "", model.FieldArea: "900 sqft"}},
		staticLayer{"b", model.Fields{model.FieldPrice: "80 lakh", model.FieldArea: "1000 sqft"}},
	)
	got := e.Extract(context.Background(), "anything")
	assert.Equal(t, model.Fields{model.FieldPrice: "80 lakh", model.FieldArea: "900 sqft"}, got)
}
