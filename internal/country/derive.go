package country

import (
	"math"
	"math/rand"
	"time"
)

// MultiplierSource supplies the pseudo-random GDP multiplier drawn once per
// record per refresh run. Injected so tests can fix the value.
type MultiplierSource interface {
	Multiplier() int
}

type randMultiplier struct {
	r *rand.Rand
}

// NewRandMultiplier returns the production multiplier source: uniform
// integers in [1000, 2000] inclusive.
func NewRandMultiplier() MultiplierSource {
	return &randMultiplier{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (m *randMultiplier) Multiplier() int {
	return 1000 + m.r.Intn(1001)
}

// FixedMultiplier always yields the same value; used in tests.
type FixedMultiplier int

func (f FixedMultiplier) Multiplier() int { return int(f) }

// Normalize turns one raw country plus the USD rate table into a stored
// record. Returns ok=false when the raw entry has no usable name, in which
// case the record is dropped before reconciliation.
//
// Currency rules, in order:
//   - empty currency list: code nil, rate nil, gdp exactly 0
//   - first code present in the rate table with a finite positive rate:
//     gdp = population * multiplier / rate
//   - otherwise: rate nil, gdp nil (code still recorded when present)
func Normalize(raw RawCountry, rates map[string]float64, mult MultiplierSource, asOf time.Time) (*Country, bool) {
	name := raw.Name
	if FoldName(name) == "" {
		return nil, false
	}

	var population int64
	if raw.Population != nil && *raw.Population > 0 {
		population = *raw.Population
	}

	c := &Country{
		Name:            name,
		NameKey:         FoldName(name),
		Population:      population,
		LastRefreshedAt: &asOf,
	}
	if raw.Capital != "" {
		c.Capital = strptr(raw.Capital)
	}
	if raw.Region != "" {
		c.Region = strptr(raw.Region)
	}
	if raw.Flag != "" {
		c.FlagURL = strptr(raw.Flag)
	}

	if len(raw.Currencies) == 0 {
		// no currency data at all: gdp is explicitly zero, not null
		zero := 0.0
		c.EstimatedGDP = &zero
		return c, true
	}

	code := raw.Currencies[0].Code
	if code != "" {
		c.CurrencyCode = strptr(code)
	}
	rate, found := rates[code]
	if code == "" || !found || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return c, true
	}

	c.ExchangeRate = &rate
	gdp := float64(population) * float64(mult.Multiplier()) / rate
	c.EstimatedGDP = &gdp
	return c, true
}

func strptr(s string) *string { return &s }
