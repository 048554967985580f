package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the word lists used by the upload conversation.
// Every list can be overridden from a YAML file; omitted keys keep their defaults.
type Vocabulary struct {
	ResetPhrases []string            `yaml:"reset_phrases"`
	Amenities    map[string][]string `yaml:"amenities"`          // canonical name -> aliases
	Fallback     map[string][]string `yaml:"fallback_amenities"` // used when LLM output cannot be parsed
	Places       []string            `yaml:"places"`
}

// DefaultVocabulary returns the built-in word lists
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ResetPhrases: []string{
			"start over", "reset", "clear all", "forget it", "restart",
			"begin again", "new property", "delete previous", "discard",
		},
		Amenities: map[string][]string{
			"Parking":  {"parking", "car park", "car parking"},
			"Lift":     {"lift", "elevator"},
			"Gym":      {"gym", "gymnasium", "fitness center"},
			"Pool":     {"pool", "swimming pool"},
			"Garden":   {"garden", "lawn"},
			"Security": {"security", "24x7 security", "gated"},
		},
		Fallback: map[string][]string{
			"Parking":  {"parking"},
			"Lift":     {"lift"},
			"Gym":      {"gym"},
			"Pool":     {"pool"},
			"Garden":   {"garden"},
			"Security": {"security"},
			"Balcony":  {"balcony"},
		},
		Places: []string{
			"Noida", "Greater Noida", "Gurugram", "Gurgaon", "Delhi", "New Delhi",
			"Ghaziabad", "Faridabad", "Mumbai", "Navi Mumbai", "Thane", "Pune",
			"Bangalore", "Bengaluru", "Hyderabad", "Chennai", "Kolkata", "Ahmedabad",
			"Jaipur", "Lucknow", "Chandigarh", "Mohali", "Indore", "Kochi",
			"Goa", "Dwarka", "Whitefield", "Powai", "Andheri", "Bandra",
		},
	}
}

// LoadVocabulary returns the defaults merged with the YAML file at path.
// An empty path returns the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return vocab, fmt.Errorf("read vocabulary file: %w", err)
	}

	var override Vocabulary
	if err := yaml.Unmarshal(data, &override); err != nil {
		return vocab, fmt.Errorf("parse vocabulary file %s: %w", path, err)
	}

	if len(override.ResetPhrases) > 0 {
		vocab.ResetPhrases = override.ResetPhrases
	}
	if len(override.Amenities) > 0 {
		vocab.Amenities = override.Amenities
	}
	if len(override.Fallback) > 0 {
		vocab.Fallback = override.Fallback
	}
	if len(override.Places) > 0 {
		vocab.Places = override.Places
	}
	return vocab, nil
}
