package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
)

// DefaultEndpoint is the Google PageSpeed Insights v5 endpoint.
const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// DefaultTimeout bounds a single analysis request. PageSpeed runs a full
// Lighthouse pass server-side, so responses routinely take tens of seconds.
const DefaultTimeout = 60 * time.Second

// Metrics holds the normalized fields extracted from one analysis response.
// Score is nil when the response carries no performance category score;
// absent audits degrade to empty display strings.
type Metrics struct {
	Score *int // 0-100
	FCP   string
	LCP   string
	TBT   string
	CLS   string
}

// ClientOpts configures a Client. Zero values fall back to the public
// endpoint and the default timeout.
type ClientOpts struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Client calls the PageSpeed API. One Fetch is one synchronous request;
// retry policy lives in the runner, not here.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(opts ClientOpts) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     opts.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch runs one analysis for (pageURL, device). Non-2xx statuses come back
// as *APIError; transport and decode failures come back as plain errors.
func (c *Client) Fetch(ctx context.Context, pageURL string, device Device) (*Metrics, error) {
	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(device))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling pagespeed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("pagespeed response",
		"url", pageURL, "device", device,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return body.metrics(), nil
}

// apiResponse mirrors the slice of the PageSpeed JSON we care about.
// Everything is optional: absent keys must never fail the decode.
type apiResponse struct {
	LighthouseResult *lighthouseResult `json:"lighthouseResult"`
}

type lighthouseResult struct {
	Categories categories       `json:"categories"`
	Audits     map[string]audit `json:"audits"`
}

type categories struct {
	Performance *category `json:"performance"`
}

type category struct {
	Score *float64 `json:"score"` // fraction in [0,1]
}

type audit struct {
	DisplayValue string `json:"displayValue"`
}

func (r *apiResponse) metrics() *Metrics {
	m := &Metrics{}
	lh := r.LighthouseResult
	if lh == nil {
		return m
	}
	if perf := lh.Categories.Performance; perf != nil && perf.Score != nil {
		score := int(math.Round(*perf.Score * 100))
		m.Score = &score
	}
	m.FCP = lh.Audits["first-contentful-paint"].DisplayValue
	m.LCP = lh.Audits["largest-contentful-paint"].DisplayValue
	m.TBT = lh.Audits["total-blocking-time"].DisplayValue
	m.CLS = lh.Audits["cumulative-layout-shift"].DisplayValue
	return m
}

// newAPIError reads the error envelope Google wraps failures in. The body is
// best-effort: an unreadable or non-JSON body still yields a usable error.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
