package repository

import (
	"context"
	"errors"

	"github.com/countrydata/country-service/internal/country"
)

var (
	ErrNotFound = errors.New("country not found")
)

// CountryRepository defines persistence operations for country records.
// All reads keyed by name are case-insensitive. All() returns records in
// insertion-sequence order, the stable order the query engine builds on.
type CountryRepository interface {
	All(ctx context.Context) ([]*country.Country, error)
	GetByName(ctx context.Context, name string) (*country.Country, error)
	DeleteByName(ctx context.Context, name string) error
	Count(ctx context.Context) (int64, error)

	// BulkUpsert applies one refresh batch atomically: either every insert
	// and every update lands, or none do.
	BulkUpsert(ctx context.Context, inserts, updates []*country.Country) error
}
