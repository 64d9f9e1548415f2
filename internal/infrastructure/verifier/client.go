package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	domainerrors "github.com/YallaPapi/pubscrape-sub002/internal/domain/errors"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
	"github.com/YallaPapi/pubscrape-sub002/internal/metrics"
)

// Client talks to the remote email-verification service. It applies
// per-(email, level) result caching, inter-call rate limiting, bounded
// retry with exponential backoff, and batch chunking, and maps the
// provider response into the canonical verification.ExternalResult.
type Client struct {
	config      Config
	client      *http.Client
	rateLimiter *rate.Limiter
	cache       *gocache.Cache
	logger      *zap.Logger

	mu sync.RWMutex

	// Availability tracking: consecutive transport failures open the
	// client; the orchestrator then degrades to heuristic validation.
	consecutiveFailures int

	// Telemetry
	requestCount int64
	cacheHits    int64
	errorCount   int64
	totalLatency time.Duration
}

// NewClient creates a verification client with defaults applied
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RateLimitDelay == 0 {
		config.RateLimitDelay = 100 * time.Millisecond
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = time.Hour
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var cache *gocache.Cache
	if config.CacheEnabled {
		cache = gocache.New(config.CacheTTL, 2*config.CacheTTL)
	}

	return &Client{
		config: config,
		client: httpClient,
		// Burst 1 serializes calls process-wide, spaced by the
		// configured delay
		rateLimiter: rate.NewLimiter(rate.Every(config.RateLimitDelay), 1),
		cache:       cache,
		logger:      logger,
	}
}

// Available reports whether the service is still considered reachable
func (c *Client) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consecutiveFailures < c.config.FailureThreshold
}

// Verify validates a single email against the remote service
func (c *Client) Verify(ctx context.Context, email string, level Level) (*verification.ExternalResult, error) {
	if cached := c.cacheGet(email, level); cached != nil {
		return cached, nil
	}

	var resp verifyResponse
	err := c.doWithRetry(ctx, func(ctx context.Context) error {
		body := verifyRequest{
			Email:   email,
			APIKey:  c.config.APIKey,
			Timeout: int(c.config.Timeout.Seconds()),
		}
		return c.post(ctx, c.config.BaseURL+"/v1/verify", body, &resp)
	})
	if err != nil {
		return nil, err
	}

	result := c.canonicalize(email, resp, level)
	c.cacheSet(email, level, result)
	return result, nil
}

// VerifyBatch validates a list of emails, chunked to the provider's
// batch limit. Results are returned in input order; a chunk failure
// aborts with the results accumulated so far.
func (c *Client) VerifyBatch(ctx context.Context, emails []string, level Level) ([]*verification.ExternalResult, error) {
	if len(emails) == 0 {
		return []*verification.ExternalResult{}, nil
	}

	all := make([]*verification.ExternalResult, 0, len(emails))
	for start := 0; start < len(emails); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(emails) {
			end = len(emails)
		}

		results, err := c.verifyChunk(ctx, emails[start:end], level)
		if err != nil {
			return all, err
		}
		all = append(all, results...)
	}

	return all, nil
}

// Stats returns client telemetry
func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		RequestCount: c.requestCount,
		CacheHits:    c.cacheHits,
		ErrorCount:   c.errorCount,
	}
	lookups := c.requestCount + c.cacheHits
	if lookups > 0 {
		stats.CacheHitRate = float64(c.cacheHits) / float64(lookups)
	}
	if c.requestCount > 0 {
		stats.ErrorRate = float64(c.errorCount) / float64(c.requestCount)
		stats.AvgLatency = c.totalLatency / time.Duration(c.requestCount)
	}
	return stats
}

func (c *Client) verifyChunk(ctx context.Context, emails []string, level Level) ([]*verification.ExternalResult, error) {
	// Serve what we can from cache; only ask the provider for the rest
	results := make([]*verification.ExternalResult, len(emails))
	missing := make([]string, 0, len(emails))
	missingIdx := make([]int, 0, len(emails))
	for i, email := range emails {
		if cached := c.cacheGet(email, level); cached != nil {
			results[i] = cached
			continue
		}
		missing = append(missing, email)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	var resp batchVerifyResponse
	err := c.doWithRetry(ctx, func(ctx context.Context) error {
		body := batchVerifyRequest{
			APIKey:          c.config.APIKey,
			Emails:          missing,
			ValidationLevel: string(level),
		}
		return c.post(ctx, c.config.BaseURL+"/v1/verify/batch", body, &resp)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Results) != len(missing) {
		c.recordFailure()
		return nil, domainerrors.NewExternalError("verifier",
			fmt.Sprintf("batch response size mismatch: sent %d, got %d", len(missing), len(resp.Results)))
	}

	for i, raw := range resp.Results {
		email := missing[i]
		result := c.canonicalize(email, raw, level)
		c.cacheSet(email, level, result)
		results[missingIdx[i]] = result
	}

	return results, nil
}

// doWithRetry runs one network operation under the retry/backoff
// policy. Every attempt waits on the rate limiter first, so retries
// keep the configured inter-call spacing. Transient failures and 5xx
// responses retry with exponential backoff; on a 429 the server's
// Retry-After replaces the computed backoff interval; 4xx responses
// are permanent.
func (c *Client) doWithRetry(ctx context.Context, op func(context.Context) error) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.MaxRetries)),
		ctx,
	)

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return domainerrors.NewRateLimitError("rate limiter wait interrupted").WithCause(err)
		}

		err := op(ctx)
		if err == nil {
			c.recordSuccess()
			return nil
		}

		var retryAfter *retryAfterError
		if !errors.As(err, &retryAfter) && !domainerrors.IsRetryable(err) {
			c.recordFailure()
			return err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			c.recordFailure()
			return err
		}
		if retryAfter != nil {
			wait = retryAfter.delay
			c.logger.Debug("verifier rate limited, honoring retry-after",
				zap.Duration("retry_after", wait),
			)
		} else {
			c.logger.Debug("verifier request failed, retrying", zap.Error(err))
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			c.recordFailure()
			return ctx.Err()
		}
	}
}

// post sends a JSON request and decodes a JSON response. Request count
// and latency are recorded together per wire attempt, so the Stats
// denominators stay aligned even when transport fails.
func (c *Client) post(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domainerrors.NewInternalError("marshaling request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domainerrors.NewInternalError("creating request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.mu.Lock()
	c.requestCount++
	c.totalLatency += time.Since(start)
	c.mu.Unlock()

	if err != nil {
		metrics.RecordVerifierRequest("transport_error")
		return domainerrors.NewExternalError("verifier", "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RecordVerifierRequest("rate_limited")
		return &retryAfterError{delay: parseRetryAfter(resp)}
	}

	if resp.StatusCode != http.StatusOK {
		return c.httpError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordVerifierRequest("bad_response")
		return domainerrors.NewExternalError("verifier", "failed to parse response").WithCause(err)
	}

	metrics.RecordVerifierRequest("ok")
	return nil
}

func (c *Client) httpError(status int) error {
	metrics.RecordVerifierRequest("http_error")
	err := domainerrors.NewExternalError("verifier", fmt.Sprintf("HTTP %d", status))
	err.Retryable = status >= 500
	return err
}

// canonicalize maps a raw provider response into the canonical form
func (c *Client) canonicalize(email string, raw verifyResponse, level Level) *verification.ExternalResult {
	result := &verification.ExternalResult{
		Email:         email,
		IsValidFormat: raw.IsValidFormat,
		DomainExists:  raw.DomainExists,
		HasMXRecords:  raw.HasMXRecords,
		IsDisposable:  raw.IsDisposable,
		IsRoleAccount: raw.IsRoleAccount,
		SMTP: verification.SMTPCheck{
			MailboxExists: raw.SMTPCheck.MailboxExists,
			IsCatchAll:    raw.SMTPCheck.IsCatchAll,
			CanConnect:    raw.SMTPCheck.CanConnect,
			AcceptsMail:   raw.SMTPCheck.AcceptsMail,
		},
		Score: raw.Score,
	}
	result.Status = result.DeriveStatus()
	result.Confidence = result.QualityAdjustment()

	// At basic level the provider never probed the mailbox, so a
	// "valid" verdict cannot be stronger than "risky".
	if level == LevelBasic && result.Status == verification.ExternalValid {
		result.Status = verification.ExternalRisky
	}

	return result
}

func (c *Client) cacheKey(email string, level Level) string {
	return string(level) + ":" + email
}

func (c *Client) cacheGet(email string, level Level) *verification.ExternalResult {
	if c.cache == nil {
		return nil
	}
	if cached, ok := c.cache.Get(c.cacheKey(email, level)); ok {
		c.mu.Lock()
		c.cacheHits++
		c.mu.Unlock()
		metrics.RecordCacheLookup("verifier", true)
		return cached.(*verification.ExternalResult)
	}
	metrics.RecordCacheLookup("verifier", false)
	return nil
}

func (c *Client) cacheSet(email string, level Level, result *verification.ExternalResult) {
	if c.cache == nil {
		return
	}
	c.cache.Set(c.cacheKey(email, level), result, gocache.DefaultExpiration)
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
	c.consecutiveFailures++
	if c.consecutiveFailures == c.config.FailureThreshold {
		c.logger.Warn("verification service unavailable, degrading to heuristic validation",
			zap.Int("consecutive_failures", c.consecutiveFailures),
		)
	}
}

// retryAfterError carries the server-specified delay from a 429
type retryAfterError struct {
	delay time.Duration
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.delay)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Second
}
