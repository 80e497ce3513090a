package country

// ValidationError carries a field -> reason map suitable for the JSON
// error body's "details" object.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

// WriteMode selects which validation regime applies to a write.
type WriteMode int

const (
	// RefreshMode is used by the refresh pipeline: currency_code may be
	// null because the external source legitimately has countries with
	// no currency entry.
	RefreshMode WriteMode = iota
	// DirectMode is the stricter contract for client-initiated writes:
	// name, population and currency_code must all be present.
	DirectMode
)

// Validate checks field presence for the given write mode. Returns nil or
// a *ValidationError naming every missing field.
func (c *Country) Validate(mode WriteMode) error {
	details := map[string]string{}
	if FoldName(c.Name) == "" {
		details["name"] = "is required"
	}
	if c.Population < 0 {
		details["population"] = "must be non-negative"
	}
	if mode == DirectMode && (c.CurrencyCode == nil || *c.CurrencyCode == "") {
		details["currency_code"] = "is required"
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}
