package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarket/api/internal/config"
	"bookmarket/api/internal/domain"
)

func testConfig(baseURL string) config.ListingConfig {
	return config.ListingConfig{
		BaseURL:               baseURL,
		RequestTimeout:        2,
		MaxRetries:            0,
		MaxRequestsPerSecond:  100,
		CircuitBreakerMinutes: 1,
	}
}

func testDraft() domain.ListingDraft {
	draft := domain.NewListingDraft()
	draft.Details.Title = "Dune"
	draft.Details.Author = "Frank Herbert"
	draft.Pricing.Price = decimal.RequireFromString("14.99")
	return draft
}

func TestPublishListing_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/listings", r.URL.Path)
		assert.Equal(t, "ticket-1", r.Header.Get("Idempotency-Key"))

		var body publishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ticket-1", body.Ticket)
		assert.Equal(t, "Dune", body.Draft.Details.Title)
		assert.True(t, body.Draft.Pricing.Price.Equal(decimal.RequireFromString("14.99")))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"listing_id":"lst-42","status":"published"}`))
	}))
	defer server.Close()

	c := NewListingClient(testConfig(server.URL), nil)

	result, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	require.NoError(t, err)
	assert.Equal(t, "lst-42", result.ListingID)
	assert.Equal(t, "published", result.Status)
}

func TestPublishListing_RejectedDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "title is required", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := NewListingClient(testConfig(server.URL), nil)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorContains(t, err, "title is required")
}

func TestPublishListing_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewListingClient(testConfig(server.URL), nil)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrCircuitOpen)
}

func withFastRetries(t *testing.T, cfg config.ListingConfig) ListingClient {
	t.Helper()
	c := NewListingClient(cfg, nil).(*listingClient)
	c.httpClient.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(2 * time.Millisecond)
	return c
}

func TestPublishListing_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ticket-1", r.Header.Get("Idempotency-Key"))
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"listing_id":"lst-7","status":"published"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	c := withFastRetries(t, cfg)

	result, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	require.NoError(t, err)
	assert.Equal(t, "lst-7", result.ListingID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPublishListing_RetriesAreBounded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 2
	c := withFastRetries(t, cfg)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	assert.ErrorContains(t, err, "listing service error: 503 Service Unavailable")
	assert.NotContains(t, err.Error(), "503 503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPublishListing_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "price is required", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	c := withFastRetries(t, cfg)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPublishListing_ThrottlingOpensCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewListingClient(testConfig(server.URL), nil)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	seen := calls.Load()

	_, err = c.PublishListing(context.Background(), "ticket-2", testDraft())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, seen, calls.Load(), "no request is sent while the breaker is open")
}

func TestPublishListing_CircuitBreakerExpires(t *testing.T) {
	c := NewListingClient(testConfig("http://127.0.0.1:1"), nil).(*listingClient)

	c.circuitBreakerMutex.Lock()
	c.blockedUntil = time.Now().Add(-time.Second)
	c.circuitBreakerMutex.Unlock()

	assert.False(t, c.isCircuitBreakerOpen())
	assert.Zero(t, c.getRemainingCircuitBreakerTime())
}

func TestPublishListing_MissingListingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"published"}`))
	}))
	defer server.Close()

	c := NewListingClient(testConfig(server.URL), nil)

	_, err := c.PublishListing(context.Background(), "ticket-1", testDraft())
	assert.ErrorContains(t, err, "no listing id")
}

func TestPublishListing_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewListingClient(testConfig(server.URL), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.PublishListing(ctx, "ticket-1", testDraft())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
