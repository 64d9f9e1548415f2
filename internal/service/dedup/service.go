package dedup

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/contact"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
	"github.com/YallaPapi/pubscrape-sub002/internal/metrics"
)

// Deduplicator tracks seen normalized addresses within a run and
// merges contact records sharing identity signals. All state is
// session-scoped: a new Deduplicator starts a fresh run.
type Deduplicator struct {
	logger    *zap.Logger
	threshold float64

	mu sync.Mutex
	// seen grows monotonically within a run
	seen map[string]struct{}
	// byEmail and byDomain always point into records; an index entry
	// never outlives its record
	byEmail  map[string]*contact.Record
	byDomain map[string][]*contact.Record
	records  []*contact.Record
}

// New creates a deduplicator with the given merge similarity threshold
func New(threshold float64, logger *zap.Logger) *Deduplicator {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &Deduplicator{
		logger:    logger,
		threshold: threshold,
		seen:      make(map[string]struct{}),
		byEmail:   make(map[string]*contact.Record),
		byDomain:  make(map[string][]*contact.Record),
	}
}

// CheckDuplicate decides whether a validated email is an exact
// duplicate, merges into an existing identity, or becomes a new
// contact record. An exact repeat is terminal DUPLICATE; its metadata
// still accrues to the existing record. On a new address the search
// for a mergeable identity is restricted to records on the same
// domain.
func (d *Deduplicator) CheckDuplicate(email string, result *verification.Result, meta contact.Metadata) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.seen[email]; dup {
		result.Reject(verification.StatusDuplicate, "email already seen in this run")
		if existing, ok := d.byEmail[email]; ok {
			existing.Merge(email, meta, result.ConfidenceScore)
		}
		return true
	}
	d.seen[email] = struct{}{}

	domain := domainOf(email)
	if match := d.findMergeable(domain, meta); match != nil {
		match.Merge(email, meta, result.ConfidenceScore)
		d.byEmail[email] = match
		metrics.RecordMerge()
		d.logger.Debug("merged contact into existing identity",
			zap.String("email", email),
			zap.String("primary", match.PrimaryEmail),
		)
	} else {
		record := contact.NewRecord(email, meta, result.ConfidenceScore)
		d.records = append(d.records, record)
		d.byEmail[email] = record
		d.byDomain[domain] = append(d.byDomain[domain], record)
	}

	result.Status = verification.StatusDedupChecked
	return false
}

// findMergeable scans only the records on the same domain for a
// name or company similarity above the threshold
func (d *Deduplicator) findMergeable(domain string, meta contact.Metadata) *contact.Record {
	if meta.Name == "" && meta.Company == "" {
		return nil
	}
	for _, candidate := range d.byDomain[domain] {
		if meta.Name != "" {
			for _, name := range candidate.Names {
				if jaccard(meta.Name, name) >= d.threshold {
					return candidate
				}
			}
		}
		if meta.Company != "" {
			for _, company := range candidate.Companies {
				if jaccard(meta.Company, company) >= d.threshold {
					return candidate
				}
			}
		}
	}
	return nil
}

// Records returns the deduplicated contact set in insertion order
func (d *Deduplicator) Records() []*contact.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*contact.Record, len(d.records))
	copy(out, d.records)
	return out
}

// SeenCount returns the number of distinct normalized emails observed
func (d *Deduplicator) SeenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func domainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}
