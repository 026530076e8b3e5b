package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobfeldgoise/country-comparison/internal/colorscale"
	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
	"github.com/jacobfeldgoise/country-comparison/internal/refresh"
	"github.com/jacobfeldgoise/country-comparison/internal/selection"
	"github.com/jacobfeldgoise/country-comparison/internal/viewport"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	data    *refresh.Data
	status  refresh.Status
	catalog *metric.Catalog
}

func (f *fakeSource) Data() (*refresh.Data, error) {
	if f.data == nil {
		return nil, refresh.ErrNoData
	}
	return f.data, nil
}

func (f *fakeSource) Status() refresh.Status   { return f.status }
func (f *fakeSource) Catalog() *metric.Catalog { return f.catalog }

func testCatalog(t *testing.T) *metric.Catalog {
	t.Helper()
	cat, err := metric.Parse([]byte(`
metrics:
  - field: gdp
    label: GDP
    code: NY.GDP.MKTP.CD
    format: currency
    category: Economy
  - field: gini
    label: Gini index
    code: SI.POV.GINI
    format: decimal
    min_coverage: 0.5
    category: Inequality
`))
	require.NoError(t, err)
	return cat
}

func testRecords() []dataset.CountryRecord {
	return []dataset.CountryRecord{
		{ISO3: "FRA", ISO2: "FR", Name: "France", Latest: map[string]float64{"gdp": 2.9e12}, Year: map[string]int{"gdp": 2022}},
		{ISO3: "DEU", ISO2: "DE", Name: "Germany", Latest: map[string]float64{"gdp": 4.1e12}, Year: map[string]int{"gdp": 2022}},
		{ISO3: "USA", ISO2: "US", Name: "United States", Latest: map[string]float64{"gdp": 25.4e12, "gini": 39.8}, Year: map[string]int{"gdp": 2022, "gini": 2021}},
		{ISO3: "GBR", ISO2: "GB", Name: "United Kingdom", Latest: map[string]float64{"gdp": 3.1e12}, Year: map[string]int{"gdp": 2022}},
		{ISO3: "ATA", Name: "Antarctica"},
	}
}

func newTestServer(t *testing.T, loaded bool) (*httptest.Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{catalog: testCatalog(t), status: refresh.Status{LastRefresh: testNow.Add(-3 * time.Hour)}}
	if loaded {
		src.data = &refresh.Data{ID: uuid.New(), RefreshedAt: testNow, Index: dataset.NewIndex(testRecords())}
		src.status.Records = 5
	}
	frame := viewport.NewFrame("equirectangular",
		orb.Bound{Min: orb.Point{-10, 35}, Max: orb.Point{30, 60}}, 960, 500, viewport.DefaultLimits)

	h := New(src, Options{Frame: frame, Now: func() time.Time { return testNow }})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, src
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatus(t *testing.T) {
	srv, src := newTestServer(t, true)
	src.status.LastError = "refresh: fetch gdp: 502"

	var body statusResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/status", &body))
	assert.Equal(t, 5, body.Records)
	assert.Equal(t, "3 hours ago", body.Updated)
	assert.Equal(t, "refresh: fetch gdp: 502", body.LastError)
}

func TestMetrics_CoverageGate(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body metricsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/metrics", &body))
	assert.Equal(t, []string{"Economy", "Inequality"}, body.Categories)
	require.Len(t, body.Metrics, 2)
	assert.True(t, body.Metrics[0].Visible)
	assert.InDelta(t, 0.8, body.Metrics[0].Coverage, 1e-9)
	assert.False(t, body.Metrics[1].Visible, "gini covers 1 of 5")
}

func TestSearchCountries(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body searchResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/countries?q=united", &body))
	require.Len(t, body.Countries, 2)
	assert.Equal(t, "GBR", body.Countries[0].ISO3)
	assert.Equal(t, "🇬🇧", body.Countries[0].Flag)
	assert.Equal(t, "USA", body.Countries[1].ISO3)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/countries?limit=2", &body))
	assert.Len(t, body.Countries, 2)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/countries?limit=abc", nil))
}

func TestSearchCountries_NoData(t *testing.T) {
	srv, src := newTestServer(t, false)
	src.status.Loading = true

	var body errorBody
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/countries", &body))
	assert.Equal(t, "no_data", body.Error.Code)
	assert.Equal(t, true, body.Error.Details["loading"])
}

func TestGetCountry(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body countryResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/countries/usa", &body))
	assert.Equal(t, "United States", body.Name)
	require.Len(t, body.Values, 2)
	assert.Equal(t, "$25.4T", body.Values[0].Text)
	assert.Equal(t, "39.80", body.Values[1].Text)
	assert.Equal(t, 2021, body.Values[1].Year)

	var missing countryResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/countries/ATA", &missing))
	assert.Nil(t, missing.Values[0].Value)
	assert.Equal(t, "N/A", missing.Values[0].Text)

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/countries/XXX", &errBody))
	assert.Equal(t, "not_found", errBody.Error.Code)
}

func TestCompare(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body compareResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/compare?a=USA&b=FRA", &body))
	assert.Equal(t, "USA", body.A.ISO3)
	assert.Equal(t, "FRA", body.B.ISO3)
	require.Len(t, body.Rows, 1, "gini hidden by coverage")
	assert.Equal(t, "$25.4T", body.Rows[0].AText)
	assert.Equal(t, "$2.9T", body.Rows[0].BText)
	assert.Equal(t, "+$22.5T", body.Rows[0].DiffText)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/compare?a=USA&b=FRA&all=true", &body))
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "N/A", body.Rows[1].DiffText)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/compare?a=USA", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/compare?a=USA&b=ZZZ", nil))
}

func TestChoropleth_Quantile(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body choroplethResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/choropleth?metric=gdp", &body))
	assert.Equal(t, colorscale.Quantile, body.Mode)
	assert.False(t, body.InsufficientData)
	assert.Len(t, body.Legend, colorscale.Buckets)
	assert.Len(t, body.Colors, 5)
	assert.Equal(t, colorscale.DefaultNoData, body.Colors["ATA"])
	assert.NotEqual(t, body.Colors["FRA"], body.Colors["USA"])
	assert.Equal(t, "$2.9T", body.Legend[0].FromText)
}

func TestChoropleth_Linear(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body choroplethResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/choropleth?metric=gdp&mode=linear", &body))
	assert.Equal(t, colorscale.Linear, body.Mode)
	require.Len(t, body.Legend, 2)
	assert.Equal(t, body.Legend[0].Color, body.Colors["FRA"])
	assert.Equal(t, body.Legend[1].Color, body.Colors["USA"])
}

func TestChoropleth_InsufficientData(t *testing.T) {
	srv, _ := newTestServer(t, true)

	var body choroplethResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/choropleth?metric=gini", &body))
	assert.True(t, body.InsufficientData)
	assert.Empty(t, body.Legend)
	for _, c := range body.Colors {
		assert.Equal(t, colorscale.DefaultNoData, c)
	}
}

func TestChoropleth_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, true)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/choropleth?metric=nope", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/choropleth?metric=gdp&mode=log", nil))
}

func TestSelection(t *testing.T) {
	srv, _ := newTestServer(t, true)
	url := srv.URL + "/api/selection"

	var body selectionResponse
	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"select","iso3":"usa"}`, &body))
	assert.Equal(t, "USA", body.State.A.ISO3)
	assert.True(t, testNow.Equal(body.State.A.AssignedAt))

	state, err := json.Marshal(selection.State{
		A: selection.Slot{ISO3: "USA", AssignedAt: testNow.Add(-time.Minute)},
		B: selection.Slot{ISO3: "FRA", AssignedAt: testNow.Add(-time.Second)},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"select","iso3":"DEU","state":`+string(state)+`}`, &body))
	assert.Equal(t, "DEU", body.State.A.ISO3)
	assert.Equal(t, "FRA", body.State.B.ISO3)

	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"swap","state":`+string(state)+`}`, &body))
	assert.Equal(t, "FRA", body.State.A.ISO3)
	assert.Equal(t, "USA", body.State.B.ISO3)

	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"clear","state":`+string(state)+`}`, &body))
	assert.Equal(t, selection.State{}, body.State)

	assert.Equal(t, http.StatusNotFound, postJSON(t, url, `{"action":"select","iso3":"ZZZ"}`, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"action":"toggle"}`, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `not json`, nil))
}

func TestView(t *testing.T) {
	srv, _ := newTestServer(t, true)
	url := srv.URL + "/api/view"

	var body viewResponse
	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"reset"}`, &body))
	assert.Equal(t, 1.0, body.View.Zoom)
	assert.InDelta(t, 10, body.View.Center[0], 1e-6)
	assert.InDelta(t, 47.5, body.View.Center[1], 1e-6)

	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"zoom","factor":100,"view":{"center":[10,47.5],"zoom":2}}`, &body))
	assert.Equal(t, 8.0, body.View.Zoom)

	// far-off center at zoom 1 snaps back to the centered map
	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"set","view":{"center":[120,-40],"zoom":0.5}}`, &body))
	assert.Equal(t, 1.0, body.View.Zoom)
	assert.InDelta(t, 10, body.View.Center[0], 1e-6)
	assert.InDelta(t, 0, body.Translate[0], 1e-6)

	assert.Equal(t, http.StatusOK, postJSON(t, url, `{"action":"pan","dx":20,"view":{"center":[10,47.5],"zoom":4}}`, &body))
	assert.Equal(t, 4.0, body.View.Zoom)
	assert.Less(t, body.View.Center[0], 10.0)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"action":"spin"}`, nil))
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestParseLimit(t *testing.T) {
	n, err := parseLimit("")
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, n)

	n, err = parseLimit("5000")
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, n)

	for _, raw := range []string{"abc", "0", "-3"} {
		_, err = parseLimit(raw)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "api: limit must be a positive integer")
	}
}
