package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNetwork covers requests that could not complete, timed out or got a non-2xx status.
	ErrNetwork = errors.New("report api request failed")
	// ErrResponseFormat covers bodies that are not JSON or lack the expected envelope.
	ErrResponseFormat = errors.New("unexpected report api response")
)

// Envelope names the response shape an endpoint uses.
type Envelope string

const (
	// EnvelopeReports is {"reports": [...], "stats": {...}}.
	EnvelopeReports Envelope = "reports"
	// EnvelopeSuccess is {"success": true, "reports": [...], ...}.
	EnvelopeSuccess Envelope = "success"
	// EnvelopeBare is a top level JSON array.
	EnvelopeBare Envelope = "bare"
)

const (
	citiesEndpoint      = "/mobile-api/cities/"
	reportTypesEndpoint = "/mobile-api/reports/"
)

// Payload is a decoded report response. Meta holds the top level keys the
// envelope does not consume, such as zone_stats.
type Payload struct {
	Records []domain.Record
	Stats   domain.Stats
	Meta    map[string]any
}

type Options struct {
	BaseURL string
	// Timeout bounds a single fetch including retries; zero means no timeout.
	Timeout    time.Duration
	RetryMax   int
	HTTPClient *http.Client
}

// Client talks to the upstream report API. Identical concurrent requests
// share one round trip.
type Client struct {
	base    *url.URL
	http    *retryablehttp.Client
	timeout time.Duration
	group   singleflight.Group
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid report api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("report api url %q must be absolute", opts.BaseURL)
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}

	return &Client{
		base:    base,
		http:    rc,
		timeout: opts.Timeout,
	}, nil
}

// URL returns the absolute upstream URL for endpoint and query.
func (c *Client) URL(endpoint string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + endpoint
	u.RawQuery = query.Encode()
	return u.String()
}

// FetchReports fetches endpoint with query and decodes it according to env.
// The caller's context only controls how long it waits; a fetch shared with
// other callers keeps running until its own timeout.
func (c *Client) FetchReports(ctx context.Context, endpoint string, query url.Values, env Envelope) (*Payload, error) {
	target := c.URL(endpoint, query)
	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	return decode(body, env, "reports")
}

func (c *Client) ListCities(ctx context.Context) ([]domain.City, error) {
	body, err := c.get(ctx, c.URL(citiesEndpoint, nil))
	if err != nil {
		return nil, err
	}

	var cities []domain.City
	if err := json.Unmarshal(body, &cities); err != nil {
		return nil, fmt.Errorf("%w: cities: %v", ErrResponseFormat, err)
	}
	return cities, nil
}

func (c *Client) ListReportTypes(ctx context.Context) ([]domain.ReportType, error) {
	body, err := c.get(ctx, c.URL(reportTypesEndpoint, nil))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success     bool                `json:"success"`
		ReportTypes []domain.ReportType `json:"report_types"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: report types: %v", ErrResponseFormat, err)
	}
	if !resp.Success || resp.ReportTypes == nil {
		return nil, fmt.Errorf("%w: report types: success=false or missing report_types", ErrResponseFormat)
	}
	return resp.ReportTypes, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	ch := c.group.DoChan(target, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.timeout)
			defer cancel()
		}
		return c.do(fetchCtx, target)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			logger.Warn().Err(res.Err).Str("url", target).Msg("report api fetch failed")
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug().Str("url", target).Msg("shared in-flight report api fetch")
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d from %s", ErrNetwork, resp.StatusCode, req.URL.Path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return body, nil
}
