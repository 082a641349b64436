package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "127.0.0.1:8000"})
	assert.Error(t, err)
}

func TestFetchReports_Envelopes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     Envelope
		want    *Payload
		wantErr error
	}{
		{
			name: "reports envelope",
			body: `{"reports":[{"driver_name":"A"}],"stats":{"total":1}}`,
			env:  EnvelopeReports,
			want: &Payload{
				Records: []domain.Record{{"driver_name": "A"}},
				Stats:   domain.Stats{"total": float64(1)},
				Meta:    map[string]any{},
			},
		},
		{
			name: "success envelope with extras",
			body: `{"success":true,"reports":[],"zone_stats":[{"city":"Pune"}]}`,
			env:  EnvelopeSuccess,
			want: &Payload{
				Records: []domain.Record{},
				Stats:   domain.Stats{},
				Meta:    map[string]any{"zone_stats": []any{map[string]any{"city": "Pune"}}},
			},
		},
		{
			name: "bare array",
			body: `[{"driver_id":1,"incorrect_trips":3}]`,
			env:  EnvelopeBare,
			want: &Payload{
				Records: []domain.Record{{"driver_id": float64(1), "incorrect_trips": float64(3)}},
				Stats:   domain.Stats{},
				Meta:    map[string]any{},
			},
		},
		{
			name:    "missing reports field",
			body:    `{"stats":{}}`,
			env:     EnvelopeReports,
			wantErr: ErrResponseFormat,
		},
		{
			name:    "success false",
			body:    `{"success":false,"reports":[]}`,
			env:     EnvelopeSuccess,
			wantErr: ErrResponseFormat,
		},
		{
			name:    "success envelope without success flag",
			body:    `{"reports":[]}`,
			env:     EnvelopeSuccess,
			wantErr: ErrResponseFormat,
		},
		{
			name:    "not json",
			body:    `<html>oops</html>`,
			env:     EnvelopeReports,
			wantErr: ErrResponseFormat,
		},
		{
			name:    "object where array expected",
			body:    `{"reports":[]}`,
			env:     EnvelopeBare,
			wantErr: ErrResponseFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.FetchReports(context.Background(), "/mobile-api/x/", nil, tt.env)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchReports_SendsQuery(t *testing.T) {
	var got url.Values
	var path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"reports":[]}`))
	})

	query := url.Values{"city": {"Pune"}, "date": {"2024-01-01"}}
	_, err := c.FetchReports(context.Background(), "/mobile-api/duty-on-off-reports/", query, EnvelopeReports)
	require.NoError(t, err)

	assert.Equal(t, "/mobile-api/duty-on-off-reports/", path)
	assert.Equal(t, query, got)
}

func TestFetchReports_NonSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.FetchReports(context.Background(), "/mobile-api/x/", nil, EnvelopeReports)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchReports_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.FetchReports(context.Background(), "/mobile-api/x/", nil, EnvelopeReports)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchReports_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.FetchReports(context.Background(), "/mobile-api/x/", nil, EnvelopeReports)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchReports_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"reports":[]}`))
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchReports(ctx, "/mobile-api/x/", nil, EnvelopeReports)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchReports_CoalescesIdenticalRequests(t *testing.T) {
	var calls int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"reports":[{"id":"a"}]}`))
	})

	var wg sync.WaitGroup
	results := make([]*Payload, 2)
	fetch := func(i int) {
		defer wg.Done()
		p, err := c.FetchReports(context.Background(), "/mobile-api/x/", url.Values{"city": {"Pune"}}, EnvelopeReports)
		assert.NoError(t, err)
		results[i] = p
	}

	wg.Add(1)
	go fetch(0)
	<-arrived

	wg.Add(1)
	go fetch(1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, results[0], results[1])
}

func TestListCities(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mobile-api/cities/", r.URL.Path)
		_, _ = w.Write([]byte(`[{"city":"Pune","name":"Pune"},{"city":"Nagpur"}]`))
	})

	cities, err := c.ListCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.City{{City: "Pune", Name: "Pune"}, {City: "Nagpur"}}, cities)
}

func TestListReportTypes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"report_types":[{"id":1,"name":"Fuel Validation Report"}]}`))
		})

		types, err := c.ListReportTypes(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.ReportType{{ID: float64(1), Name: "Fuel Validation Report"}}, types)
	})

	t.Run("success false", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		})

		_, err := c.ListReportTypes(context.Background())
		assert.ErrorIs(t, err, ErrResponseFormat)
	})
}
