package country

import (
	"strings"
	"time"
)

// Country is the persistent per-country record. Name is the sole external
// identity, matched case-insensitively; NameKey holds the folded form the
// repositories key on. Seq is the insertion sequence assigned on first
// sighting and is never exposed directly — responses carry a display id
// assigned per response (see WithDisplayIDs).
type Country struct {
	Seq             int64      `json:"-" bson:"seq"`
	Name            string     `json:"name" bson:"name"`
	NameKey         string     `json:"-" bson:"name_key"`
	Capital         *string    `json:"capital" bson:"capital,omitempty"`
	Region          *string    `json:"region" bson:"region,omitempty"`
	Population      int64      `json:"population" bson:"population"`
	CurrencyCode    *string    `json:"currency_code" bson:"currency_code,omitempty"`
	ExchangeRate    *float64   `json:"exchange_rate" bson:"exchange_rate,omitempty"`
	EstimatedGDP    *float64   `json:"estimated_gdp" bson:"estimated_gdp,omitempty"`
	FlagURL         *string    `json:"flag_url" bson:"flag_url,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at" bson:"last_refreshed_at,omitempty"`
}

// FoldName lowercases a country name for identity comparison.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RawCurrency is one entry of a raw country's currency list.
type RawCurrency struct {
	Code string `json:"code"`
}

// RawCountry is a country entry as returned by the external directory
// (REST Countries v2 field selection). Population is a pointer because the
// source may omit it entirely.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population *int64        `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

// Display wraps a Country with the response-only sequential id. The
// renumbering is assigned per response and never written back.
type Display struct {
	ID int `json:"id"`
	*Country
}

// WithDisplayIDs renumbers a result set 1..N in its current order.
func WithDisplayIDs(cs []*Country) []Display {
	out := make([]Display, 0, len(cs))
	for i, c := range cs {
		out = append(out, Display{ID: i + 1, Country: c})
	}
	return out
}
