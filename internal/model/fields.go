package model

import (
	"sort"
	"strings"
)

// Field names shared by the extractor, the session record and the catalog row
const (
	FieldTitle     = "title"
	FieldLocation  = "location"
	FieldPrice     = "price"
	FieldArea      = "area"
	FieldAmenities = "amenities"
	FieldImages    = "images"
)

// RequiredFields is the ordered list of fields a listing needs before upload
var RequiredFields = []string{
	FieldTitle,
	FieldLocation,
	FieldPrice,
	FieldArea,
	FieldAmenities,
	FieldImages,
}

// Fields maps a field name to its value.
// A field that was not mentioned is absent, never present with an empty value.
type Fields map[string]string

// Clone returns an independent copy
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether name is present with a non-blank value
func (f Fields) Has(name string) bool {
	return strings.TrimSpace(f[name]) != ""
}

// Merge returns {..f, ..partial}: keys in partial overwrite, everything else is kept.
func (f Fields) Merge(partial Fields) Fields {
	out := f.Clone()
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Keys returns required fields first in their fixed order, then any others sorted
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]bool, len(f))
	for _, name := range RequiredFields {
		if _, ok := f[name]; ok {
			keys = append(keys, name)
			seen[name] = true
		}
	}
	var extra []string
	for k := range f {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// MergeFirstWins combines layer results in precedence order.
// A field is taken from the first result that holds a non-blank value for it.
func MergeFirstWins(results ...Fields) Fields {
	out := Fields{}
	for _, r := range results {
		for k, v := range r {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, taken := out[k]; taken {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// JoinSet collapses a set of values into a sorted ", "-joined string
func JoinSet(values []string) string {
	seen := make(map[string]bool, len(values))
	uniq := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		uniq = append(uniq, v)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, ", ")
}

// SplitList splits a ", "-joined field value back into its items
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
