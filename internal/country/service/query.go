package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/countrydata/country-service/internal/country"
	"github.com/countrydata/country-service/internal/country/repository"
)

// allowedFilters is the fixed set of query keys; "currency" aliases
// "currency_code". Anything else is a validation error naming the key.
var allowedFilters = map[string]string{
	"name":          "name",
	"capital":       "capital",
	"region":        "region",
	"population":    "population",
	"currency_code": "currency_code",
	"currency":      "currency_code",
	"exchange_rate": "exchange_rate",
	"estimated_gdp": "estimated_gdp",
}

type predicate func(*country.Country) bool

// Query validates the filter and sort parameters, then returns the
// matching records in a fully deterministic order. An empty result set is
// reported as ErrNotFound rather than an empty list.
func (s *Service) Query(ctx context.Context, filters map[string]string, sortBy string) ([]*country.Country, error) {
	preds, err := buildPredicates(filters)
	if err != nil {
		return nil, err
	}
	less, err := buildOrder(sortBy)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*country.Country, 0, len(all))
	for _, c := range all {
		match := true
		for _, p := range preds {
			if !p(c) {
				match = false
				break
			}
		}
		if match {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	if less != nil {
		sort.SliceStable(out, less(out))
	}
	return out, nil
}

func buildPredicates(filters map[string]string) ([]predicate, error) {
	var preds []predicate
	for key, value := range filters {
		field, ok := allowedFilters[key]
		if !ok {
			return nil, &country.ValidationError{Details: map[string]string{key: "unknown filter"}}
		}
		if value == "" {
			return nil, &country.ValidationError{Details: map[string]string{key: "must not be empty"}}
		}
		switch field {
		case "name":
			v := value
			preds = append(preds, func(c *country.Country) bool { return strings.EqualFold(c.Name, v) })
		case "capital":
			v := value
			preds = append(preds, func(c *country.Country) bool { return c.Capital != nil && strings.EqualFold(*c.Capital, v) })
		case "region":
			v := value
			preds = append(preds, func(c *country.Country) bool { return c.Region != nil && strings.EqualFold(*c.Region, v) })
		case "currency_code":
			v := value
			preds = append(preds, func(c *country.Country) bool { return c.CurrencyCode != nil && strings.EqualFold(*c.CurrencyCode, v) })
		case "population":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, &country.ValidationError{Details: map[string]string{key: "must be an integer"}}
			}
			preds = append(preds, func(c *country.Country) bool { return c.Population == n })
		case "exchange_rate":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &country.ValidationError{Details: map[string]string{key: "must be a number"}}
			}
			preds = append(preds, func(c *country.Country) bool { return c.ExchangeRate != nil && *c.ExchangeRate == f })
		case "estimated_gdp":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &country.ValidationError{Details: map[string]string{key: "must be a number"}}
			}
			preds = append(preds, func(c *country.Country) bool { return c.EstimatedGDP != nil && *c.EstimatedGDP == f })
		}
	}
	return preds, nil
}

// buildOrder parses the sort directive. Absent sort keeps the insertion
// sequence the repository already returns. All orders tie-break by the
// insertion sequence so repeated calls agree. Nil values compare below any
// present value.
func buildOrder(directive string) (func([]*country.Country) func(int, int) bool, error) {
	if directive == "" {
		return nil, nil
	}
	field, desc := "", false
	switch {
	case directive == "gdp_desc":
		field, desc = "estimated_gdp", true
	case strings.HasSuffix(directive, "_desc"):
		field, desc = strings.TrimSuffix(directive, "_desc"), true
	case strings.HasSuffix(directive, "_asc"):
		field = strings.TrimSuffix(directive, "_asc")
	default:
		return nil, &country.ValidationError{Details: map[string]string{"sort": "must be gdp_desc or <field>_asc|_desc"}}
	}
	canonical, ok := allowedFilters[field]
	if !ok {
		return nil, &country.ValidationError{Details: map[string]string{"sort": "unknown sort field " + field}}
	}

	cmp := comparatorFor(canonical)
	return func(items []*country.Country) func(int, int) bool {
		return func(i, j int) bool {
			c := cmp(items[i], items[j])
			if c == 0 {
				return items[i].Seq < items[j].Seq
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
	}, nil
}

func comparatorFor(field string) func(a, b *country.Country) int {
	switch field {
	case "name":
		return func(a, b *country.Country) int { return strings.Compare(a.NameKey, b.NameKey) }
	case "capital":
		return func(a, b *country.Country) int { return compareStrPtr(a.Capital, b.Capital) }
	case "region":
		return func(a, b *country.Country) int { return compareStrPtr(a.Region, b.Region) }
	case "currency_code":
		return func(a, b *country.Country) int { return compareStrPtr(a.CurrencyCode, b.CurrencyCode) }
	case "population":
		return func(a, b *country.Country) int {
			switch {
			case a.Population < b.Population:
				return -1
			case a.Population > b.Population:
				return 1
			}
			return 0
		}
	case "exchange_rate":
		return func(a, b *country.Country) int { return compareFloatPtr(a.ExchangeRate, b.ExchangeRate) }
	default: // estimated_gdp
		return func(a, b *country.Country) int { return compareFloatPtr(a.EstimatedGDP, b.EstimatedGDP) }
	}
}

func compareStrPtr(a, b *string) int {
	if a == nil || b == nil {
		if a == b {
			return 0
		}
		if a == nil {
			return -1
		}
		return 1
	}
	return strings.Compare(strings.ToLower(*a), strings.ToLower(*b))
}

func compareFloatPtr(a, b *float64) int {
	if a == nil || b == nil {
		if a == b {
			return 0
		}
		if a == nil {
			return -1
		}
		return 1
	}
	switch {
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
