package validation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/contact"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/values"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
	"github.com/YallaPapi/pubscrape-sub002/internal/infrastructure/verifier"
	"github.com/YallaPapi/pubscrape-sub002/internal/metrics"
)

// Weights for fusing heuristic and external verification scores
const (
	heuristicWeight = 0.4
	externalWeight  = 0.6
)

// ServiceConfig configures the orchestrator
type ServiceConfig struct {
	Level          verifier.Level
	EnableDNSCheck bool
	Concurrency    int
	// Lists at least this long are pre-verified through the provider's
	// batch endpoint; shorter lists go one-by-one
	BatchThreshold int
}

// Service sequences the validation stages per email and fans batches
// out across a bounded worker pool. All mutable state lives in the
// injected collaborators, so one Service per run gives a clean session.
type Service struct {
	config    ServiceConfig
	syntax    *SyntaxValidator
	resolver  *DNSResolver
	blacklist *Blacklist
	verifier  Verifier
	dedup     DuplicateChecker
	observer  Observer
	logger    *zap.Logger

	degradeOnce sync.Once
}

// NewService wires the pipeline. verifier may be nil when no external
// service is configured; observer may be nil.
func NewService(
	config ServiceConfig,
	syntax *SyntaxValidator,
	resolver *DNSResolver,
	blacklist *Blacklist,
	verifierClient Verifier,
	dedup DuplicateChecker,
	observer Observer,
	logger *zap.Logger,
) *Service {
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}
	if config.BatchThreshold <= 0 {
		config.BatchThreshold = 10
	}
	if config.Level == "" {
		config.Level = verifier.LevelBasic
	}
	return &Service{
		config:    config,
		syntax:    syntax,
		resolver:  resolver,
		blacklist: blacklist,
		verifier:  verifierClient,
		dedup:     dedup,
		observer:  observer,
		logger:    logger,
	}
}

// Validate runs the full per-email pipeline. It never returns an
// unfinished result: any panic or unexpected failure becomes a
// terminal UNKNOWN_ERROR result.
func (s *Service) Validate(ctx context.Context, raw string, meta contact.Metadata) *verification.Result {
	result := verification.NewResult(raw)

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("validation pipeline panic",
					zap.String("email", result.NormalizedEmail),
					zap.Any("panic", r),
				)
				result.Reject(verification.StatusUnknownError, fmt.Sprintf("unexpected error: %v", r))
				result.SetScore(0)
			}
		}()
		s.runPipeline(ctx, result, meta)
	}()

	result.Finish()
	if s.observer != nil {
		s.observer.Observe(result)
	}
	metrics.RecordValidation(result.Status.String(), result.Grade.String(), result.Latency)
	return result
}

// ValidateBatch fans the per-email pipeline out across a bounded
// worker pool and returns results in input order regardless of
// completion order. metas may be nil or shorter than emails.
func (s *Service) ValidateBatch(ctx context.Context, emails []string, metas []contact.Metadata) ([]*verification.Result, error) {
	results := make([]*verification.Result, len(emails))
	if len(emails) == 0 {
		return results, nil
	}

	s.prefetchExternal(ctx, emails)

	sem := semaphore.NewWeighted(int64(s.config.Concurrency))
	var wg sync.WaitGroup
	for i, raw := range emails {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context canceled mid-batch: fill remaining slots so the
			// output still lines up with the input
			for j := i; j < len(emails); j++ {
				result := verification.NewResult(emails[j])
				result.Reject(verification.StatusUnknownError, "batch canceled: "+err.Error())
				result.Finish()
				results[j] = result
			}
			break
		}

		wg.Add(1)
		go func(idx int, raw string) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = s.Validate(ctx, raw, metaAt(metas, idx))
		}(i, raw)
	}
	wg.Wait()

	return results, nil
}

// runPipeline executes Syntax → (External | DNS) → Blacklist → Dedup
func (s *Service) runPipeline(ctx context.Context, result *verification.Result, meta contact.Metadata) {
	s.syntax.Validate(result)
	if result.Status.Terminal() {
		return
	}

	external := s.verifyExternal(ctx, result)
	if result.Status.Terminal() {
		return
	}

	if external == nil && s.config.EnableDNSCheck && s.resolver != nil {
		s.resolver.Resolve(ctx, result)
		if result.Status.Terminal() {
			return
		}
	}

	s.blacklist.Check(result)
	if result.Status.Terminal() {
		return
	}

	if s.dedup.CheckDuplicate(result.NormalizedEmail, result, meta) {
		return
	}

	result.Accept()
}

// verifyExternal runs the external verification stage when a service
// is configured and still reachable. A per-email verification failure
// falls back to the DNS path; total unavailability degrades the whole
// run to heuristic-only validation, logged once.
func (s *Service) verifyExternal(ctx context.Context, result *verification.Result) *verification.ExternalResult {
	if s.verifier == nil {
		return nil
	}
	if !s.verifier.Available() {
		s.degradeOnce.Do(func() {
			s.logger.Warn("external verification unavailable, run degraded to heuristic validation")
		})
		return nil
	}

	external, err := s.verifier.Verify(ctx, result.NormalizedEmail, s.config.Level)
	if err != nil {
		s.logger.Debug("external verification failed, falling back to heuristics",
			zap.String("email", result.NormalizedEmail),
			zap.Error(err),
		)
		return nil
	}

	s.applyExternal(result, external)
	return external
}

// applyExternal fuses provider signals into the result: the score is a
// weighted blend of the heuristic and the provider-derived quality,
// the status is overridden by the provider verdict, and the reason is
// annotated with API-derived flags.
func (s *Service) applyExternal(result *verification.Result, external *verification.ExternalResult) {
	result.Fused = true
	result.IsDisposable = external.IsDisposable
	result.IsRoleAccount = external.IsRoleAccount
	result.SMTPVerified = external.SMTP.MailboxExists

	fused := heuristicWeight*result.ConfidenceScore + externalWeight*external.QualityAdjustment()
	result.SetScore(fused)

	var flags []string
	if external.IsDisposable {
		flags = append(flags, "disposable")
	}
	if external.SMTP.IsCatchAll {
		flags = append(flags, "catch-all")
	}
	if !external.SMTP.MailboxExists {
		flags = append(flags, "mailbox unverified")
	}
	if external.IsRoleAccount {
		flags = append(flags, "role account")
	}
	if len(flags) > 0 {
		annotation := "api flags: " + strings.Join(flags, ", ")
		if result.Reason == "" {
			result.Reason = annotation
		} else {
			result.Reason += "; " + annotation
		}
	}

	switch external.Status {
	case verification.ExternalValid, verification.ExternalRisky, verification.ExternalCatchAll:
		result.Status = verification.StatusAPIChecked
	case verification.ExternalInvalid:
		s.rejectFromExternal(result, external)
	default:
		// Unknown verdicts fall through to the remaining stages
		result.Status = verification.StatusAPIChecked
	}
}

// rejectFromExternal picks the rejection status matching the provider
// signal that failed
func (s *Service) rejectFromExternal(result *verification.Result, external *verification.ExternalResult) {
	switch {
	case !external.IsValidFormat:
		result.Reject(verification.StatusInvalidSyntax, "provider rejected format")
	case !external.DomainExists:
		result.Reject(verification.StatusInvalidDomain, "provider reports nonexistent domain")
	case !external.HasMXRecords:
		result.Reject(verification.StatusNoMXRecord, "provider reports no MX records")
	default:
		result.Reject(verification.StatusInvalidDomain, "provider rejected address")
	}
}

// prefetchExternal warms the provider cache through the batch endpoint
// for large lists; per-email calls then hit the cache. Failures are
// logged and the per-email path takes over.
func (s *Service) prefetchExternal(ctx context.Context, emails []string) {
	if s.verifier == nil || !s.verifier.Available() || len(emails) < s.config.BatchThreshold {
		return
	}

	normalized := make([]string, len(emails))
	for i, raw := range emails {
		normalized[i] = values.NormalizeAddress(raw)
	}

	if _, err := s.verifier.VerifyBatch(ctx, normalized, s.config.Level); err != nil {
		s.logger.Debug("batch pre-verification failed, continuing per-email", zap.Error(err))
	}
}

func metaAt(metas []contact.Metadata, idx int) contact.Metadata {
	if idx < len(metas) {
		return metas[idx]
	}
	return contact.Metadata{}
}
