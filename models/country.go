package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Country is the stored, derived country record. Nullable fields are
// pointers so that "absent" and zero stay distinguishable in both BSON and JSON.
type Country struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Capital         *string            `bson:"capital" json:"capital"`
	Region          *string            `bson:"region" json:"region"`
	Population      float64            `bson:"population" json:"population"`
	CurrencyCode    *string            `bson:"currency_code" json:"currency_code"`
	ExchangeRate    *float64           `bson:"exchange_rate" json:"exchange_rate"`
	EstimatedGDP    *float64           `bson:"estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string            `bson:"flag_url" json:"flag_url"`
	LastRefreshedAt time.Time          `bson:"last_refreshed_at" json:"last_refreshed_at"`
}

// SourceCountry is one record from the external country source, already
// normalized: a non-numeric population is reported as 0 and every
// currency entry is reduced to its code (possibly empty).
type SourceCountry struct {
	Name       string
	Capital    string
	Region     string
	Population float64
	Flag       string
	Currencies []string
}

// Sort fields accepted by CountryFilter.
const (
	SortName            = "name"
	SortCapital         = "capital"
	SortRegion          = "region"
	SortPopulation      = "population"
	SortCurrencyCode    = "currency_code"
	SortExchangeRate    = "exchange_rate"
	SortEstimatedGDP    = "estimated_gdp"
	SortLastRefreshedAt = "last_refreshed_at"
)

var sortableFields = map[string]bool{
	SortName:            true,
	SortCapital:         true,
	SortRegion:          true,
	SortPopulation:      true,
	SortCurrencyCode:    true,
	SortExchangeRate:    true,
	SortEstimatedGDP:    true,
	SortLastRefreshedAt: true,
}

// IsSortable reports whether field can be used as a list sort key.
func IsSortable(field string) bool {
	return sortableFields[field]
}

// CountryFilter narrows and orders a country listing. Region and Currency
// are exact, case-insensitive matches; empty means no filter.
type CountryFilter struct {
	Region     string
	Currency   string
	SortField  string
	Descending bool
}

// FieldError reports an invalid field in a partial update.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

type fieldKind int

const (
	kindRequiredString fieldKind = iota
	kindOptionalString
	kindRequiredNumber
	kindOptionalNumber
	kindTimestamp
)

var updatableFields = map[string]fieldKind{
	"name":              kindRequiredString,
	"capital":           kindOptionalString,
	"region":            kindOptionalString,
	"population":        kindRequiredNumber,
	"currency_code":     kindOptionalString,
	"exchange_rate":     kindOptionalNumber,
	"estimated_gdp":     kindOptionalNumber,
	"flag_url":          kindOptionalString,
	"last_refreshed_at": kindTimestamp,
}

// NormalizeUpdate checks a decoded JSON patch body and converts it into the
// field set to store. Only field names and value types are checked; the
// refresh-time invariants (positive population, GDP/rate consistency) are
// not enforced on manual edits.
func NormalizeUpdate(raw map[string]interface{}) (map[string]interface{}, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(raw))
	for _, field := range keys {
		value := raw[field]
		kind, ok := updatableFields[field]
		if !ok {
			return nil, &FieldError{Field: field, Reason: "cannot be updated"}
		}

		switch kind {
		case kindRequiredString:
			s, ok := value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, &FieldError{Field: field, Reason: "must be a non-empty string"}
			}
			out[field] = strings.TrimSpace(s)
		case kindOptionalString:
			if value == nil {
				out[field] = nil
				continue
			}
			s, ok := value.(string)
			if !ok {
				return nil, &FieldError{Field: field, Reason: "must be a string or null"}
			}
			out[field] = s
		case kindRequiredNumber:
			n, ok := value.(float64)
			if !ok {
				return nil, &FieldError{Field: field, Reason: "must be a number"}
			}
			out[field] = n
		case kindOptionalNumber:
			if value == nil {
				out[field] = nil
				continue
			}
			n, ok := value.(float64)
			if !ok {
				return nil, &FieldError{Field: field, Reason: "must be a number or null"}
			}
			out[field] = n
		case kindTimestamp:
			s, ok := value.(string)
			if !ok {
				return nil, &FieldError{Field: field, Reason: "must be an RFC 3339 timestamp"}
			}
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, &FieldError{Field: field, Reason: "must be an RFC 3339 timestamp"}
			}
			out[field] = ts.UTC()
		}
	}
	return out, nil
}
