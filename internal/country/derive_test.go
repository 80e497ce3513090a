package country

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func TestNormalize_MatchedRate(t *testing.T) {
	asOf := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawCountry{
		Name:       "Wonderland",
		Capital:    "Heart City",
		Region:     "Fiction",
		Population: i64(1000000),
		Flag:       "https://flags.example/won.png",
		Currencies: []RawCurrency{{Code: "WON"}},
	}
	rates := map[string]float64{"WON": 2.5}

	c, ok := Normalize(raw, rates, FixedMultiplier(1500), asOf)
	require.True(t, ok)
	require.Equal(t, "Wonderland", c.Name)
	require.Equal(t, "wonderland", c.NameKey)
	require.Equal(t, int64(1000000), c.Population)
	require.NotNil(t, c.CurrencyCode)
	require.Equal(t, "WON", *c.CurrencyCode)
	require.NotNil(t, c.ExchangeRate)
	require.Equal(t, 2.5, *c.ExchangeRate)
	require.NotNil(t, c.EstimatedGDP)
	require.Equal(t, 600000000.0, *c.EstimatedGDP)
	require.NotNil(t, c.LastRefreshedAt)
	require.Equal(t, asOf, *c.LastRefreshedAt)
}

func TestNormalize_EmptyCurrencies(t *testing.T) {
	raw := RawCountry{Name: "Nowhere", Population: i64(500)}
	c, ok := Normalize(raw, map[string]float64{"USD": 1}, FixedMultiplier(1500), time.Now().UTC())
	require.True(t, ok)
	require.Nil(t, c.CurrencyCode)
	require.Nil(t, c.ExchangeRate)
	// explicitly zero, not null: distinguishes "no currency data" from
	// "currency present but unmatched"
	require.NotNil(t, c.EstimatedGDP)
	require.Equal(t, 0.0, *c.EstimatedGDP)
}

func TestNormalize_UnknownCurrencyCode(t *testing.T) {
	raw := RawCountry{
		Name:       "Atlantis",
		Population: i64(42),
		Currencies: []RawCurrency{{Code: "ATL"}},
	}
	c, ok := Normalize(raw, map[string]float64{"USD": 1}, FixedMultiplier(1200), time.Now().UTC())
	require.True(t, ok)
	require.NotNil(t, c.CurrencyCode)
	require.Equal(t, "ATL", *c.CurrencyCode)
	require.Nil(t, c.ExchangeRate)
	require.Nil(t, c.EstimatedGDP)
}

func TestNormalize_NonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -3.2} {
		raw := RawCountry{
			Name:       "Erewhon",
			Population: i64(10),
			Currencies: []RawCurrency{{Code: "EWH"}},
		}
		c, ok := Normalize(raw, map[string]float64{"EWH": rate}, FixedMultiplier(1000), time.Now().UTC())
		require.True(t, ok)
		require.Nil(t, c.ExchangeRate, "rate %v must not be stored", rate)
		require.Nil(t, c.EstimatedGDP)
	}
}

func TestNormalize_MissingPopulationDefaultsToZero(t *testing.T) {
	raw := RawCountry{Name: "Laputa", Currencies: []RawCurrency{{Code: "USD"}}}
	c, ok := Normalize(raw, map[string]float64{"USD": 1}, FixedMultiplier(1000), time.Now().UTC())
	require.True(t, ok)
	require.Equal(t, int64(0), c.Population)
	require.NotNil(t, c.EstimatedGDP)
	require.Equal(t, 0.0, *c.EstimatedGDP)
}

func TestNormalize_DropsNamelessRecords(t *testing.T) {
	for _, name := range []string{"", "   "} {
		_, ok := Normalize(RawCountry{Name: name, Population: i64(1)}, nil, FixedMultiplier(1000), time.Now().UTC())
		require.False(t, ok)
	}
}

func TestRandMultiplier_Range(t *testing.T) {
	m := NewRandMultiplier()
	for i := 0; i < 5000; i++ {
		v := m.Multiplier()
		require.GreaterOrEqual(t, v, 1000)
		require.LessOrEqual(t, v, 2000)
	}
}

func TestValidate_Modes(t *testing.T) {
	c := &Country{Name: "Freedonia", Population: 120}
	require.NoError(t, c.Validate(RefreshMode))

	err := c.Validate(DirectMode)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, verr.Details, "currency_code")

	empty := &Country{Name: "  "}
	err = empty.Validate(RefreshMode)
	require.Error(t, err)
	verr = err.(*ValidationError)
	require.Contains(t, verr.Details, "name")
}
