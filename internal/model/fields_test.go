package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverwritesOnlyGivenKeys(t *testing.T) {
	current := Fields{FieldTitle: "2BHK", FieldPrice: "75 lakh"}
	merged := current.Merge(Fields{FieldPrice: "80 lakh", FieldArea: "950 sqft"})

	assert.Equal(t, Fields{FieldTitle: "2BHK", FieldPrice: "80 lakh", FieldArea: "950 sqft"}, merged)
	assert.Equal(t, "75 lakh", current[FieldPrice], "receiver must not be mutated")
}

func TestMergeIsIdempotent(t *testing.T) {
	current := Fields{FieldTitle: "2BHK"}
	partial := Fields{FieldLocation: "Noida", FieldPrice: "75 lakh"}

	once := current.Merge(partial)
	twice := once.Merge(partial)

	assert.Equal(t, once, twice)
}

func TestMergeNeverRemovesKeys(t *testing.T) {
	record := Fields{}
	for _, name := range RequiredFields {
		record[name] = "x"
	}
	for _, partial := range []Fields{{}, {FieldTitle: "3BHK"}, {"notes": "corner unit"}} {
		record = record.Merge(partial)
		for _, name := range RequiredFields {
			assert.True(t, record.Has(name), "field %s dropped", name)
		}
	}
}

func TestMergeFirstWins(t *testing.T) {
	structured := Fields{FieldLocation: "Ghaziabad"}
	patterns := Fields{FieldLocation: "Indirapuram Ghaziabad", FieldTitle: "3BHK", FieldPrice: "  "}
	generative := Fields{FieldTitle: "3BHK Flat", FieldPrice: "50 lakh"}

	got := MergeFirstWins(structured, patterns, generative)

	assert.Equal(t, Fields{
		FieldLocation: "Ghaziabad",
		FieldTitle:    "3BHK",
		FieldPrice:    "50 lakh",
	}, got)
}

func TestKeysOrder(t *testing.T) {
	f := Fields{"zeta": "1", FieldImages: "a", FieldTitle: "b", "alpha": "2"}
	assert.Equal(t, []string{FieldTitle, FieldImages, "alpha", "zeta"}, f.Keys())
}

func TestJoinSetAndSplitList(t *testing.T) {
	joined := JoinSet([]string{"Parking", "Lift", "Parking", " "})
	assert.Equal(t, "Lift, Parking", joined)
	assert.Equal(t, []string{"Lift", "Parking"}, SplitList(joined))
	assert.Nil(t, SplitList(""))
}

func TestNewListing(t *testing.T) {
	record := Fields{
		FieldTitle:     "2BHK",
		FieldLocation:  "Noida",
		FieldPrice:     "75 lakh",
		FieldArea:      "950 sqft",
		FieldAmenities: "Lift, Parking",
		FieldImages:    "https://cdn.example.com/a.jpg, https://cdn.example.com/b.jpg",
	}

	l, err := NewListing("s1", record)
	require.NoError(t, err)

	assert.Equal(t, "s1", l.SessionID)
	require.NotNil(t, l.PriceValue)
	assert.InDelta(t, 7_500_000, *l.PriceValue, 0.001)
	require.NotNil(t, l.AreaSqft)
	assert.InDelta(t, 950, *l.AreaSqft, 0.001)
	assert.Equal(t, JSONArray{"Lift", "Parking"}, l.Amenities)
	assert.Len(t, l.Images, 2)
}

func TestNewListingRejectsIncompleteRecord(t *testing.T) {
	_, err := NewListing("s1", Fields{FieldTitle: "2BHK"})
	assert.ErrorContains(t, err, "location")
}

func TestJSONArrayRoundTripThroughDriver(t *testing.T) {
	v, err := JSONArray{"Lift", "Parking"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Lift","Parking"]`, v)

	var got JSONArray
	require.NoError(t, got.Scan([]byte(`["Gym"]`)))
	assert.Equal(t, JSONArray{"Gym"}, got)
	assert.Error(t, got.Scan(42))
}
