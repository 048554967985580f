package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountRe   = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([a-zA-Z.]*(?:\s+[a-zA-Z.]+)?)`)
	currencyRe = regexp.MustCompile(`₹|\brs\.?|\binr\b`)
)

var priceMultipliers = map[string]float64{
	"k":        1e3,
	"thousand": 1e3,
	"lakh":     1e5,
	"lakhs":    1e5,
	"lac":      1e5,
	"lacs":     1e5,
	"l":        1e5,
	"crore":    1e7,
	"crores":   1e7,
	"cr":       1e7,
}

var areaMultipliers = map[string]float64{
	"sqft":          1,
	"sq ft":         1,
	"sq.ft":         1,
	"sq.ft.":        1,
	"sq. ft":        1,
	"sq. ft.":       1,
	"square feet":   1,
	"square foot":   1,
	"ft":            1,
	"sqm":           10.7639,
	"sq m":          10.7639,
	"sq.m":          10.7639,
	"square meter":  10.7639,
	"square meters": 10.7639,
	"square metre":  10.7639,
	"square metres": 10.7639,
	"sqyd":          9,
	"sq yd":         9,
	"sq yards":      9,
	"square yard":   9,
	"square yards":  9,
	"gaj":           9,
	"acre":          43560,
	"acres":         43560,
}

// PriceToINR normalizes a spoken price ("75 lakh", "1.2 crore", "₹45,00,000") to rupees.
// It returns false when no amount can be read.
func PriceToINR(price string) (float64, bool) {
	s := currencyRe.ReplaceAllString(strings.ToLower(price), " ")

	value, unit, ok := readAmount(s)
	if !ok {
		return 0, false
	}
	if unit == "" {
		return value, true
	}
	for _, word := range []string{unit, firstWord(unit)} {
		if mult, found := priceMultipliers[word]; found {
			return value * mult, true
		}
	}
	return value, true
}

// AreaToSqft normalizes an area ("950 sqft", "120 sq yd", "1 acre") to square feet.
// A bare number is taken as square feet.
func AreaToSqft(area string) (float64, bool) {
	value, unit, ok := readAmount(strings.ToLower(area))
	if !ok {
		return 0, false
	}
	if unit == "" {
		return value, true
	}
	for _, word := range []string{unit, firstWord(unit)} {
		if mult, found := areaMultipliers[word]; found {
			return value * mult, true
		}
	}
	return value, true
}

func readAmount(s string) (float64, string, bool) {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	return value, strings.TrimSpace(m[2]), true
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
