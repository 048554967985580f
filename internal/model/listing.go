package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"propertyagent/internal/utils"

	"github.com/pgvector/pgvector-go"
)

// Listing represents a property listing saved to the catalog
type Listing struct {
	ID         int64           `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	Title      string          `json:"title" db:"title"`
	Location   string          `json:"location" db:"location"`
	Price      string          `json:"price" db:"price"`
	PriceValue *float64        `json:"price_value,omitempty" db:"price_value"` // INR
	Area       string          `json:"area" db:"area"`
	AreaSqft   *float64        `json:"area_sqft,omitempty" db:"area_sqft"`
	Amenities  JSONArray       `json:"amenities" db:"amenities"`
	Images     JSONArray       `json:"images" db:"images"`
	Embedding  pgvector.Vector `json:"-" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// NewListing builds a catalog row from a complete session record
func NewListing(sessionID string, record Fields) (*Listing, error) {
	for _, name := range RequiredFields {
		if !record.Has(name) {
			return nil, fmt.Errorf("record is missing %s", name)
		}
	}

	l := &Listing{
		SessionID: sessionID,
		Title:     strings.TrimSpace(record[FieldTitle]),
		Location:  strings.TrimSpace(record[FieldLocation]),
		Price:     strings.TrimSpace(record[FieldPrice]),
		Area:      strings.TrimSpace(record[FieldArea]),
		Amenities: JSONArray(SplitList(record[FieldAmenities])),
		Images:    JSONArray(SplitList(record[FieldImages])),
		CreatedAt: time.Now().UTC(),
	}
	if v, ok := utils.PriceToINR(l.Price); ok {
		l.PriceValue = &v
	}
	if v, ok := utils.AreaToSqft(l.Area); ok {
		l.AreaSqft = &v
	}
	return l, nil
}

// EmbeddingText is the text an embedding model sees for this listing
func (l *Listing) EmbeddingText() string {
	return fmt.Sprintf("%s in %s, %s, %s. Amenities: %s",
		l.Title, l.Location, l.Price, l.Area, strings.Join(l.Amenities, ", "))
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONArray source %T", value)
	}
}
