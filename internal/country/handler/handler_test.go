package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/countrydata/country-service/internal/country"
	"github.com/countrydata/country-service/internal/country/repository"
	"github.com/countrydata/country-service/internal/country/service"
	"github.com/countrydata/country-service/internal/gateway"
	"github.com/countrydata/country-service/internal/report"
)

type stubGateway struct {
	countries    []country.RawCountry
	rates        map[string]float64
	countriesErr error
}

func (g *stubGateway) FetchCountries(ctx context.Context) ([]country.RawCountry, error) {
	if g.countriesErr != nil {
		return nil, g.countriesErr
	}
	return g.countries, nil
}

func (g *stubGateway) FetchRates(ctx context.Context) (map[string]float64, error) {
	return g.rates, nil
}

func i64(v int64) *int64 { return &v }

func testRouter(t *testing.T, gw *stubGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	store := report.NewLocalStore(t.TempDir())
	svc := service.New(repo, gw, report.NewGenerator(store), nil, country.FixedMultiplier(1500))
	g := gin.New()
	New(svc, store).Register(g)
	return g
}

func defaultGateway() *stubGateway {
	return &stubGateway{
		countries: []country.RawCountry{
			{Name: "Wonderland", Capital: "Heart City", Region: "Fiction", Population: i64(1000000),
				Flag: "https://flags.example/won.png", Currencies: []country.RawCurrency{{Code: "WON"}}},
			{Name: "Nowhere", Population: i64(500)},
			{Name: "Freedonia", Region: "Fiction", Population: i64(2000), Currencies: []country.RawCurrency{{Code: "FRD"}}},
		},
		rates: map[string]float64{"WON": 2.5, "FRD": 2},
	}
}

func do(g *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	g.ServeHTTP(w, req)
	return w
}

func TestRefreshThenListFlow(t *testing.T) {
	g := testRouter(t, defaultGateway())

	w := do(g, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Message         string   `json:"message"`
		LastRefreshedAt string   `json:"last_refreshed_at"`
		ValidCount      int      `json:"valid_count"`
		Errors          []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, "Refresh successful", res.Message)
	require.Equal(t, 3, res.ValidCount)
	require.NotEmpty(t, res.LastRefreshedAt)
	require.Empty(t, res.Errors)

	w = do(g, http.MethodGet, "/countries")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	// display ids renumber 1..N in returned order
	require.Equal(t, float64(1), list[0]["id"])
	require.Equal(t, float64(2), list[1]["id"])
	require.Equal(t, float64(3), list[2]["id"])
	require.Equal(t, "Wonderland", list[0]["name"])
	require.Equal(t, float64(600000000), list[0]["estimated_gdp"])
	require.Nil(t, list[1]["currency_code"])
	require.Equal(t, float64(0), list[1]["estimated_gdp"])
}

func TestListFilterAndSort(t *testing.T) {
	g := testRouter(t, defaultGateway())
	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w := do(g, http.MethodGet, "/countries?region=fiction&sort=population_desc")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	require.Equal(t, "Wonderland", list[0]["name"])
	require.Equal(t, "Freedonia", list[1]["name"])
	// renumbering is applied after sorting
	require.Equal(t, float64(1), list[0]["id"])
	require.Equal(t, float64(2), list[1]["id"])
}

func TestListUnknownFilterKey(t *testing.T) {
	g := testRouter(t, defaultGateway())
	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w := do(g, http.MethodGet, "/countries?bogus=1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Validation failed", body.Error)
	require.Contains(t, body.Details, "bogus")
}

func TestListNoMatchReturns404(t *testing.T) {
	g := testRouter(t, defaultGateway())
	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w := do(g, http.MethodGet, "/countries?region=Mars")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAndDeleteByName(t *testing.T) {
	g := testRouter(t, defaultGateway())
	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w := do(g, http.MethodGet, "/countries/WONDERLAND")
	require.Equal(t, http.StatusOK, w.Code)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Equal(t, "Wonderland", rec["name"])

	require.Equal(t, http.StatusNoContent, do(g, http.MethodDelete, "/countries/wonderland").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/countries/Wonderland").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodDelete, "/countries/Wonderland").Code)
}

func TestStatusEndpoint(t *testing.T) {
	g := testRouter(t, defaultGateway())

	w := do(g, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		TotalCountries  int64       `json:"total_countries"`
		LastRefreshedAt interface{} `json:"last_refreshed_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, int64(0), st.TotalCountries)
	require.Nil(t, st.LastRefreshedAt)

	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w = do(g, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, int64(3), st.TotalCountries)
	require.NotNil(t, st.LastRefreshedAt)
}

func TestSummaryImageLifecycle(t *testing.T) {
	g := testRouter(t, defaultGateway())

	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/countries/image").Code)

	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/countries/refresh").Code)

	w := do(g, http.MethodGet, "/countries/image")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Body.Bytes())
}

func TestRefreshSourceUnavailable(t *testing.T) {
	gw := defaultGateway()
	gw.countriesErr = gateway.ErrSourceUnavailable
	g := testRouter(t, gw)

	w := do(g, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "External data source unavailable", body["error"])
}

func TestRefreshAllRecordsInvalid(t *testing.T) {
	gw := &stubGateway{
		countries: []country.RawCountry{{Name: "", Population: i64(10)}},
		rates:     map[string]float64{},
	}
	g := testRouter(t, gw)

	w := do(g, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// nothing was written
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/countries/anything").Code)
}
