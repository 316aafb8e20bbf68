package adsb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statesPayload = `{
	"time": 1700000000,
	"states": [
		["4ca2bf", "BAW123  ", "United Kingdom", 1700000000, 1700000000, -0.05, 51.50, 3000.0, false, 200.0, 90.0, 5.0, null, 3100.0, "7700", false, 0, 4],
		["400abc", null, "United Kingdom", 1700000000, 1700000000, null, null, null, true, 0.0, null, null, null, null, null, false, 0]
	]
}`

var londonBox = BoundingBox{
	MinLatitude:  51.2868,
	MaxLatitude:  51.6918,
	MinLongitude: -0.5103,
	MaxLongitude: 0.3340,
}

func newTestClient(url string) *OpenSkyClient {
	return NewOpenSkyClient(OpenSkyOptions{BaseURL: url, MinRequestInterval: -1})
}

func TestNewOpenSkyClient(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		client := NewOpenSkyClient(OpenSkyOptions{})
		assert.Equal(t, DefaultOpenSkyURL, client.baseURL)
		assert.Equal(t, DefaultRequestTimeout, client.httpClient.Timeout)
		assert.False(t, client.Authenticated())
		assert.InDelta(t, 0.1, float64(client.limiter.Limit()), 1e-9)
	})

	t.Run("Trailing slash trimmed", func(t *testing.T) {
		client := NewOpenSkyClient(OpenSkyOptions{BaseURL: "https://api.test.com/api/"})
		assert.Equal(t, "https://api.test.com/api", client.baseURL)
	})

	t.Run("Credentials enable OAuth2", func(t *testing.T) {
		client := NewOpenSkyClient(OpenSkyOptions{ClientID: "id", ClientSecret: "secret", Timeout: 5 * time.Second})
		assert.True(t, client.Authenticated())
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})
}

func TestFetchStates(t *testing.T) {
	t.Run("Successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/states/all", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "51.2868", q.Get("lamin"))
			assert.Equal(t, "-0.5103", q.Get("lomin"))
			assert.Equal(t, "51.6918", q.Get("lamax"))
			assert.Equal(t, "0.3340", q.Get("lomax"))
			assert.Equal(t, "1", q.Get("extended"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(statesPayload))
		}))
		defer server.Close()

		states, err := newTestClient(server.URL).FetchStates(context.Background(), londonBox)
		require.NoError(t, err)
		require.Len(t, states, 2)

		rec, err := NormalizeState(states[0])
		require.NoError(t, err)
		assert.Equal(t, "4CA2BF", rec.ICAO)
		assert.Equal(t, "BAW123", rec.Callsign)
		assert.Equal(t, 9843, rec.AltitudeFeet())
		assert.Equal(t, "7700", rec.Squawk)
		require.NotNil(t, rec.Category)
		assert.Equal(t, 4, *rec.Category)

		rec, err = NormalizeState(states[1])
		require.NoError(t, err)
		assert.Nil(t, rec.Position)
		assert.True(t, rec.OnGround)
		assert.Equal(t, UnknownSquawk, rec.Squawk)
		assert.Nil(t, rec.Category)
	})

	t.Run("Null states yields empty slice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"time": 1700000000, "states": null}`))
		}))
		defer server.Close()

		states, err := newTestClient(server.URL).FetchStates(context.Background(), londonBox)
		require.NoError(t, err)
		assert.NotNil(t, states)
		assert.Empty(t, states)
	})

	t.Run("Handles rate limit error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Rate-Limit-Retry-After-Seconds", "120")
			w.Header().Set("X-Rate-Limit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Too many requests"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchStates(context.Background(), londonBox)
		require.Error(t, err)

		rle, ok := IsRateLimitError(err)
		require.True(t, ok, "expected RateLimitError, got %T", err)
		assert.Equal(t, 120*time.Second, rle.RetryAfter)
		assert.Equal(t, 0, rle.Headers.Remaining)
	})

	t.Run("Handles server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream down"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchStates(context.Background(), londonBox)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
		_, ok := IsRateLimitError(err)
		assert.False(t, ok)
	})

	t.Run("Handles malformed JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"states": [`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchStates(context.Background(), londonBox)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to parse API response"))
	})

	t.Run("Respects context timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := newTestClient(server.URL).FetchStates(ctx, londonBox)
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestFetchStatesWithOAuth2(t *testing.T) {
	var tokenRequests atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":1800}`))
	})
	mux.HandleFunc("/api/states/all", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(statesPayload))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOpenSkyClient(OpenSkyOptions{
		BaseURL:            server.URL + "/api",
		TokenURL:           server.URL + "/token",
		ClientID:           "display",
		ClientSecret:       "secret",
		MinRequestInterval: -1,
	})

	for i := 0; i < 2; i++ {
		states, err := client.FetchStates(context.Background(), londonBox)
		require.NoError(t, err)
		assert.Len(t, states, 2)
	}

	// The token is cached until it expires
	assert.Equal(t, int32(1), tokenRequests.Load())
}

func TestFetchStatesPacing(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"time": 0, "states": []}`))
	}))
	defer server.Close()

	client := NewOpenSkyClient(OpenSkyOptions{BaseURL: server.URL, MinRequestInterval: time.Hour})

	_, err := client.FetchStates(context.Background(), londonBox)
	require.NoError(t, err)

	// The second request would have to wait an hour, past the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = client.FetchStates(ctx, londonBox)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, int32(1), requests.Load())
}

func TestClose(t *testing.T) {
	client := NewOpenSkyClient(OpenSkyOptions{})
	assert.NoError(t, client.Close())
}
