package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	// DefaultOpenSkyURL is the public OpenSky REST API root
	DefaultOpenSkyURL = "https://opensky-network.org/api"

	// DefaultOpenSkyTokenURL issues client-credentials tokens for API clients
	DefaultOpenSkyTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"

	// DefaultRequestTimeout bounds a single state query
	DefaultRequestTimeout = 10 * time.Second

	// DefaultMinRequestInterval is the anonymous-access resolution of /states/all
	DefaultMinRequestInterval = 10 * time.Second
)

// OpenSkyOptions configures an OpenSkyClient. Zero values select defaults.
type OpenSkyOptions struct {
	// BaseURL is the API root (default: DefaultOpenSkyURL)
	BaseURL string

	// TokenURL is the OAuth2 token endpoint (default: DefaultOpenSkyTokenURL)
	TokenURL string

	// ClientID and ClientSecret enable authenticated access when both are set
	ClientID     string
	ClientSecret string

	// Timeout bounds each HTTP request (default: DefaultRequestTimeout)
	Timeout time.Duration

	// MinRequestInterval spaces consecutive requests.
	// Zero selects DefaultMinRequestInterval; negative disables pacing.
	MinRequestInterval time.Duration
}

// OpenSkyClient implements the DataSource interface for the OpenSky Network REST API.
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
type OpenSkyClient struct {
	// baseURL is the API root without a trailing slash
	baseURL string

	// httpClient performs requests; it injects bearer tokens when authenticated
	httpClient *http.Client

	// limiter spaces requests so polling never exceeds the API resolution
	limiter *rate.Limiter

	// authenticated is true when OAuth2 credentials were configured
	authenticated bool
}

// NewOpenSkyClient creates a new OpenSky API client.
func NewOpenSkyClient(opts OpenSkyOptions) *OpenSkyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenSkyURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultOpenSkyTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.MinRequestInterval == 0 {
		opts.MinRequestInterval = DefaultMinRequestInterval
	}

	limit := rate.Inf
	if opts.MinRequestInterval > 0 {
		limit = rate.Every(opts.MinRequestInterval)
	}

	client := &OpenSkyClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}

	if opts.ClientID != "" && opts.ClientSecret != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		// Token requests share the bounded transport
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, client.httpClient)
		client.httpClient = cc.Client(tokenCtx)
		client.httpClient.Timeout = opts.Timeout
		client.authenticated = true
	}

	return client
}

// Authenticated reports whether requests carry an OAuth2 bearer token.
func (c *OpenSkyClient) Authenticated() bool {
	return c.authenticated
}

// FetchStates returns all state vectors inside box.
// Uses the /states/all endpoint with extended=1 so the emitter category is included.
func (c *OpenSkyClient) FetchStates(ctx context.Context, box BoundingBox) ([]RawState, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("lamin", strconv.FormatFloat(box.MinLatitude, 'f', 4, 64))
	query.Set("lomin", strconv.FormatFloat(box.MinLongitude, 'f', 4, 64))
	query.Set("lamax", strconv.FormatFloat(box.MaxLatitude, 'f', 4, 64))
	query.Set("lomax", strconv.FormatFloat(box.MaxLongitude, 'f', 4, 64))
	query.Set("extended", "1")

	reqURL := c.baseURL + "/states/all?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch states: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp openSkyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	// OpenSky sends "states": null when nothing is in the box
	if apiResp.States == nil {
		return []RawState{}, nil
	}
	return apiResp.States, nil
}

// Close cleanly shuts down the client.
func (c *OpenSkyClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// openSkyResponse represents the JSON response from /states/all.
type openSkyResponse struct {
	// Time is the Unix timestamp the states are associated with
	Time int64 `json:"time"`

	// States is the list of state vectors, null when empty
	States []RawState `json:"states"`
}
