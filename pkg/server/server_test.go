package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/de-tools/wasteops/pkg/store/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchReports(ctx context.Context, endpoint string, query url.Values, env client.Envelope) (*client.Payload, error) {
	args := m.Called(ctx, endpoint, query, env)
	payload, _ := args.Get(0).(*client.Payload)
	return payload, args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ListCities(ctx context.Context) ([]domain.City, error) {
	args := m.Called(ctx)
	cities, _ := args.Get(0).([]domain.City)
	return cities, args.Error(1)
}

func (m *mockCatalog) ListReportTypes(ctx context.Context) ([]domain.ReportType, error) {
	args := m.Called(ctx)
	types, _ := args.Get(0).([]domain.ReportType)
	return types, args.Error(1)
}

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	fetcher *mockFetcher
	catalog *mockCatalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry, err := reports.NewDefaultRegistry()
	require.NoError(t, err)

	fetcher := new(mockFetcher)
	catalog := new(mockCatalog)
	clock := func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	manager, err := session.NewManager(session.NewMemoryBackend(), registry, fetcher, "https://dash.example.com", session.WithClock(clock))
	require.NoError(t, err)

	router := ConfigureRouter(zerolog.Nop(), Dependencies{Sessions: manager, Catalog: catalog})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		fetcher: fetcher,
		catalog: catalog,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body string, out any) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestWebAPI_SessionContext(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.On("FetchReports", mock.Anything, "/mobile-api/fuel-validation-reports/",
		url.Values{"city": {"Pune"}}, client.EnvelopeReports).
		Return(&client.Payload{}, nil).Once()

	resp := env.do(t, http.MethodGet, "/api/v1/reports/fuel-validation?city=Pune", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the cookie keeps the session, so the city survives a URL without it
	var got api.Context
	resp = env.do(t, http.MethodGet, "/api/v1/context", "", &got)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotNil(t, got.City)
	assert.Equal(t, "Pune", got.City.City)

	// only report pages sync the query into the context
	got = api.Context{}
	env.do(t, http.MethodGet, "/api/v1/context?city=Nagpur", "", &got)
	require.NotNil(t, got.City)
	assert.Equal(t, "Pune", got.City.City)

	// a fresh client is a fresh tab
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/context", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var other api.Context
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&other))
	assert.Nil(t, other.City)
}

func TestWebAPI_UpdateContext(t *testing.T) {
	env := newTestEnv(t)

	var got api.Context
	resp := env.do(t, http.MethodPut, "/api/v1/context", `{"city":"Nagpur","date":"2024-02-20","startDate":"2024-02-01","endDate":"2024-02-07"}`, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Nagpur", got.City.City)
	assert.Equal(t, "2024-02-20", got.Date)
	assert.Equal(t, api.DateRange{Start: "2024-02-01", End: "2024-02-07"}, got.DateRange)

	var apiErr api.Error
	resp = env.do(t, http.MethodPut, "/api/v1/context", `{"startDate":"2024-03-01"}`, &apiErr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, apiErr.Retryable)

	resp = env.do(t, http.MethodPut, "/api/v1/context", `{"date":"20-02-2024"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got = api.Context{}
	env.do(t, http.MethodGet, "/api/v1/context", "", &got)
	assert.Equal(t, "2024-02-20", got.Date)
	assert.Equal(t, "2024-02-01", got.DateRange.Start)

	got = api.Context{}
	resp = env.do(t, http.MethodDelete, "/api/v1/context", "", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, got.City)
	assert.Empty(t, got.Date)
	assert.Equal(t, api.DateRange{}, got.DateRange)
}

func TestWebAPI_ListReports(t *testing.T) {
	env := newTestEnv(t)

	var got []api.Report
	resp := env.do(t, http.MethodGet, "/api/v1/reports", "", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got, 7)
	assert.Equal(t, "driver-trip-summary", got[0].Name)
	assert.Equal(t, "today", got[0].DefaultDate)
}

func TestWebAPI_GetReport(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.On("FetchReports", mock.Anything, "/mobile-api/fuel-validation-reports/",
		url.Values{"city": {"Pune"}, "date": {"2024-02-28"}}, client.EnvelopeReports).
		Return(&client.Payload{
			Records: []domain.Record{
				{"driver_name": "Ravi", "driver_number": "98765 43210", "amount_match": true, "volume_match": false},
				{"driver_name": "John", "driver_number": "", "amount_match": true, "volume_match": true},
			},
			Stats: domain.Stats{"total": 2.0},
		}, nil).Once()

	var got api.ReportView
	resp := env.do(t, http.MethodGet, "/api/v1/reports/fuel-validation?city=Pune&date=2024-02-28&driver=ravi&tab=2", "", &got)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fuel-validation", got.Report)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Ravi", got.Records[0].Data["driver_name"])
	assert.Equal(t, map[string]string{"driver_number": "tel:9876543210"}, got.Records[0].CallLinks)
	assert.Equal(t, 1, got.Summary.Failing)
	assert.Equal(t, "/fuel-validation-report?city=Pune&date=2024-02-28&driver=ravi&tab=2", got.Location)
	assert.Equal(t, "https://dash.example.com/fuel-validation-report?city=Pune&date=2024-02-28&driver=ravi", got.ShareURL)
	assert.Nil(t, got.Error)
	assert.Equal(t, "Pune", got.Context.City.City)

	env.fetcher.AssertExpectations(t)
}

func TestWebAPI_GetReportErrors(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.On("FetchReports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("report api returned 503: %w", client.ErrNetwork))

	var got api.ReportView
	resp := env.do(t, http.MethodGet, "/api/v1/reports/fuel-validation", "", &got)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NotNil(t, got.Error)
	assert.True(t, got.Error.Retryable)
	assert.Empty(t, got.Records)

	resp = env.do(t, http.MethodGet, "/api/v1/reports/payroll", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebAPI_NavigateAndShare(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPut, "/api/v1/context", `{"city":"Pune","date":"2024-02-20"}`, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/navigate?path=/skipline-validation-report&ward=12", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/skipline-validation-report?city=Pune&date=2024-02-20&ward=12", resp.Header.Get("Location"))

	var link api.Link
	resp = env.do(t, http.MethodGet, "/api/v1/share?path=/duty-on-off-report&date=2024-02-21", "", &link)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://dash.example.com/duty-on-off-report?city=Pune&date=2024-02-21", link.URL)

	resp = env.do(t, http.MethodGet, "/api/v1/navigate?path=/trip-validation-report&city=Nagpur&date=2024-02-22", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/trip-validation-report?city=Nagpur&date=2024-02-22", resp.Header.Get("Location"))

	// local overrides apply to the generated link only
	var got api.Context
	env.do(t, http.MethodGet, "/api/v1/context", "", &got)
	require.NotNil(t, got.City)
	assert.Equal(t, "Pune", got.City.City)
	assert.Equal(t, "2024-02-20", got.Date)

	resp = env.do(t, http.MethodGet, "/api/v1/navigate?path=//evil.example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebAPI_Catalog(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.On("ListCities", mock.Anything).Return([]domain.City{{City: "Pune"}, {City: "Nagpur"}}, nil)
	env.catalog.On("ListReportTypes", mock.Anything).Return(nil, fmt.Errorf("decode: %w", client.ErrResponseFormat))

	var cities []api.City
	resp := env.do(t, http.MethodGet, "/api/v1/cities", "", &cities)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []api.City{{City: "Pune"}, {City: "Nagpur"}}, cities)

	var apiErr api.Error
	resp = env.do(t, http.MethodGet, "/api/v1/report-types", "", &apiErr)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.True(t, apiErr.Retryable)
}
