package validation

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"

	domainerrors "github.com/YallaPapi/pubscrape-sub002/internal/domain/errors"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
	"github.com/YallaPapi/pubscrape-sub002/internal/metrics"
)

// MXLookuper resolves mail-exchange records. *net.Resolver satisfies it.
type MXLookuper interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DNSResolver looks up MX records with a TTL cache and bounded
// per-call timeout. It never returns an error past its boundary: every
// outcome is folded into the result.
type DNSResolver struct {
	resolver   MXLookuper
	cache      *gocache.Cache
	timeout    time.Duration
	maxRetries int
}

// NewDNSResolver creates a resolver. cacheTTL of zero disables caching.
func NewDNSResolver(timeout, cacheTTL time.Duration, maxRetries int) *DNSResolver {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	var cache *gocache.Cache
	if cacheTTL > 0 {
		cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return &DNSResolver{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 10 * time.Second}
				return d.DialContext(ctx, network, address)
			},
		},
		cache:      cache,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// WithLookuper swaps the underlying resolver (used by tests)
func (r *DNSResolver) WithLookuper(lookuper MXLookuper) *DNSResolver {
	r.resolver = lookuper
	return r
}

// Resolve populates the result with the domain's MX records. Empty
// result set is terminal NO_MX_RECORD; a resolution failure after
// retries is terminal DNS_ERROR with the error in the reason.
func (r *DNSResolver) Resolve(ctx context.Context, result *verification.Result) {
	hosts, err := r.lookup(ctx, result.Domain)
	if err != nil {
		reason := err.Error()
		if domainerrors.IsType(err, domainerrors.ErrorTypeDomain) {
			reason = "domain does not exist"
		}
		result.Reject(verification.StatusDNSError, reason)
		return
	}
	if len(hosts) == 0 {
		result.Reject(verification.StatusNoMXRecord, "domain has no MX records")
		return
	}

	result.MXRecords = hosts
	result.Status = verification.StatusDomainChecked
}

func (r *DNSResolver) lookup(ctx context.Context, domain string) ([]string, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(domain); ok {
			metrics.RecordCacheLookup("dns", true)
			return cached.([]string), nil
		}
		metrics.RecordCacheLookup("dns", false)
	}

	var hosts []string
	op := func() error {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		records, err := r.resolver.LookupMX(lookupCtx, domain)
		if err != nil {
			classified := classifyLookupError(domain, err)
			if !domainerrors.IsRetryable(classified) {
				return backoff.Permanent(classified)
			}
			return classified
		}

		hosts = make([]string, 0, len(records))
		for _, mx := range records {
			hosts = append(hosts, mx.Host)
		}
		sort.Strings(hosts)
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(r.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	// Only successful lookups are cached; failures stay retryable on
	// the next sighting of the domain
	if r.cache != nil {
		r.cache.Set(domain, hosts, gocache.DefaultExpiration)
	}
	return hosts, nil
}

// classifyLookupError folds a resolver failure into the error
// taxonomy: NXDOMAIN is a non-retryable domain error, everything else
// is a retryable DNS error.
func classifyLookupError(domain string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return domainerrors.NewDomainError("domain does not exist: " + domain).WithCause(err)
	}
	return domainerrors.NewDNSError("MX lookup failed for " + domain).WithCause(err)
}
