package service

import (
	"fmt"
	"strings"

	"propertyagent/internal/model"
)

// MissingFields lists the required fields that are absent or blank, in order
func MissingFields(record model.Fields) []string {
	var missing []string
	for _, name := range model.RequiredFields {
		if !record.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsComplete reports whether every required field has a value
func IsComplete(record model.Fields) bool {
	return len(MissingFields(record)) == 0
}

// Prompt asks the user for what is still missing
func Prompt(record model.Fields, missing []string) string {
	return fmt.Sprintf("I've captured the following details: %s. Please provide the missing details: %s.",
		describe(record), strings.Join(missing, ", "))
}

func describe(record model.Fields) string {
	parts := make([]string, 0, len(record))
	for _, k := range record.Keys() {
		if record.Has(k) {
			parts = append(parts, fmt.Sprintf("%s: %s", k, record[k]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
