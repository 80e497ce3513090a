package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/countrydata/country-service/internal/country"
)

// ErrSourceUnavailable marks any failure to obtain data from an external
// source: network error, timeout, non-2xx status or an undecodable body.
// Handlers map it to 503.
var ErrSourceUnavailable = errors.New("external data source unavailable")

const (
	DefaultCountriesURL = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	DefaultRatesURL     = "https://open.er-api.com/v6/latest/USD"
	DefaultTimeout      = 15 * time.Second
)

// Client wraps the two outbound calls the refresh pipeline depends on.
// Single attempt, bounded timeout, no retries: a failed fetch aborts the
// whole refresh before any store mutation.
type Client struct {
	http         *http.Client
	countriesURL string
	ratesURL     string
}

func NewClient(countriesURL, ratesURL string, timeout time.Duration) *Client {
	if countriesURL == "" {
		countriesURL = DefaultCountriesURL
	}
	if ratesURL == "" {
		ratesURL = DefaultRatesURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		countriesURL: countriesURL,
		ratesURL:     ratesURL,
	}
}

// FetchCountries returns the raw country directory.
func (c *Client) FetchCountries(ctx context.Context) ([]country.RawCountry, error) {
	var out []country.RawCountry
	if err := c.getJSON(ctx, c.countriesURL, &out); err != nil {
		return nil, fmt.Errorf("countries API: %w", err)
	}
	return out, nil
}

// FetchRates returns the USD-based rate table. The source wraps it in a
// "rates" envelope.
func (c *Client) FetchRates(ctx context.Context) (map[string]float64, error) {
	var envelope struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.ratesURL, &envelope); err != nil {
		return nil, fmt.Errorf("exchange rates API: %w", err)
	}
	if envelope.Rates == nil {
		return nil, fmt.Errorf("exchange rates API: missing rates envelope: %w", ErrSourceUnavailable)
	}
	return envelope.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrSourceUnavailable, err)
	}
	return nil
}
