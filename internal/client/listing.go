package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bookmarket/api/internal/config"
	"bookmarket/api/internal/domain"
	"bookmarket/api/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var (
	// ErrCircuitOpen is returned without contacting the service while the
	// breaker is open after a 429.
	ErrCircuitOpen = errors.New("listing service circuit breaker is open")
	// ErrRejected means the service refused the draft itself; retrying the
	// same draft will not help.
	ErrRejected = errors.New("listing rejected by listing service")
)

// ListingClient talks to the external listing service.
type ListingClient interface {
	PublishListing(ctx context.Context, ticket string, draft domain.ListingDraft) (*PublishResult, error)
}

type publishRequest struct {
	Ticket string              `json:"ticket"`
	Draft  domain.ListingDraft `json:"draft"`
}

// PublishResult is the listing service's answer to a publish request.
type PublishResult struct {
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

type listingClient struct {
	rl             ratelimit.Limiter
	httpClient     *resty.Client
	proxySupplier  proxy.ProxySupplier
	requestTimeout time.Duration

	// Circuit breaker for 429 responses
	circuitBreakerMutex sync.RWMutex
	blockedUntil        time.Time
	circuitBreakerDelay time.Duration
}

func NewListingClient(cfg config.ListingConfig, proxySupplier proxy.ProxySupplier) ListingClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.RequestTimeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		// The service deduplicates on Idempotency-Key, so POSTs may be retried.
		SetAllowNonIdempotentRetry(true).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "bookmarket-api")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial egress proxy: %s", proxyURL)
		}
	}

	delay := time.Duration(cfg.CircuitBreakerMinutes) * time.Minute
	if delay <= 0 {
		delay = time.Minute
	}

	return &listingClient{
		rl:                  ratelimit.New(cfg.MaxRequestsPerSecond),
		httpClient:          client,
		proxySupplier:       proxySupplier,
		requestTimeout:      time.Duration(cfg.RequestTimeout) * time.Second,
		circuitBreakerDelay: delay,
	}
}

func (c *listingClient) PublishListing(ctx context.Context, ticket string, draft domain.ListingDraft) (*PublishResult, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Publish blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return nil, fmt.Errorf("%w for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	c.rl.Take()

	reqCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var result PublishResult
	resp, err := c.httpClient.R().
		SetContext(reqCtx).
		SetHeader("Idempotency-Key", ticket).
		SetBody(publishRequest{Ticket: ticket, Draft: draft}).
		SetResult(&result).
		Post("/listings")

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("publish cancelled: %w", ctx.Err())
		}
		if reqCtx.Err() != nil {
			return nil, fmt.Errorf("publish request timed out: %w", reqCtx.Err())
		}
		return nil, fmt.Errorf("failed to reach listing service: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		c.rotateProxy()
		c.triggerCircuitBreaker()
		return nil, fmt.Errorf("%w: listing service is throttling requests", ErrCircuitOpen)
	case resp.StatusCode() >= 400 && resp.StatusCode() < 500:
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode(), strings.TrimSpace(resp.String()))
	case resp.IsError():
		return nil, fmt.Errorf("listing service error: %s", resp.Status())
	}

	if result.ListingID == "" {
		return nil, fmt.Errorf("listing service response for ticket %s carried no listing id", ticket)
	}

	log.Debugf("Listing service accepted ticket %s as listing %s", ticket, result.ListingID)
	return &result, nil
}

func (c *listingClient) rotateProxy() {
	if c.proxySupplier == nil || c.proxySupplier.Len() < 2 {
		return
	}
	if next := c.proxySupplier.Get(); next != "" {
		log.Infof("🔄 Switching to egress proxy: %s", next)
		c.httpClient.SetProxy(next)
	}
}

func (c *listingClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	open := now.Before(c.blockedUntil)
	triggered := !c.blockedUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !open && triggered {
		c.circuitBreakerMutex.Lock()
		if !c.blockedUntil.IsZero() && !now.Before(c.blockedUntil) {
			c.blockedUntil = time.Time{}
			log.Infof("✅ Circuit breaker re-enabled - publish requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return open
}

func (c *listingClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.blockedUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Publish requests disabled until %v (%v)",
		c.blockedUntil.Format("15:04:05"), c.circuitBreakerDelay)
}

func (c *listingClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.blockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
