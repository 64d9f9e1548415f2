package reporting

import (
	"sort"
	"sync"
	"time"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
)

// topNReasons limits the retained frequency tables
const topNReasons = 20

// Reporter accumulates run-level statistics. It observes every result
// as it is produced and never mutates one.
type Reporter struct {
	mu sync.Mutex

	started       time.Time
	total         int
	accepted      int
	byStatus      map[string]int
	byGrade       map[string]int
	reasons       map[string]int
	blacklistHits map[string]int
	totalLatency  time.Duration
	maxLatency    time.Duration
}

// Summary is the run-level report exposed on demand
type Summary struct {
	Total               int            `json:"total"`
	Accepted            int            `json:"accepted"`
	AcceptanceRate      float64        `json:"acceptance_rate"`
	ByStatus            map[string]int `json:"by_status"`
	QualityDistribution map[string]int `json:"quality_distribution"`
	TopRejectionReasons []ReasonCount  `json:"top_rejection_reasons"`
	TopBlacklistMatches []ReasonCount  `json:"top_blacklist_matches"`
	AvgLatency          time.Duration  `json:"avg_latency"`
	MaxLatency          time.Duration  `json:"max_latency"`
	Throughput          float64        `json:"validations_per_second"`
}

// ReasonCount is one frequency-table row
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// NewReporter starts a reporting window
func NewReporter() *Reporter {
	return &Reporter{
		started:       time.Now(),
		byStatus:      make(map[string]int),
		byGrade:       make(map[string]int),
		reasons:       make(map[string]int),
		blacklistHits: make(map[string]int),
	}
}

// Observe records one terminal validation result
func (r *Reporter) Observe(result *verification.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	r.byStatus[result.Status.String()]++
	r.byGrade[result.Grade.String()]++
	if result.IsValid {
		r.accepted++
	} else if result.Reason != "" {
		r.reasons[result.Reason]++
	}
	if result.BlacklistMatch != "" {
		r.blacklistHits[result.BlacklistMatch]++
	}
	r.totalLatency += result.Latency
	if result.Latency > r.maxLatency {
		r.maxLatency = result.Latency
	}
}

// Summary builds the report for everything observed so far
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := Summary{
		Total:               r.total,
		Accepted:            r.accepted,
		ByStatus:            copyCounts(r.byStatus),
		QualityDistribution: copyCounts(r.byGrade),
		TopRejectionReasons: topN(r.reasons, topNReasons),
		TopBlacklistMatches: topN(r.blacklistHits, topNReasons),
		MaxLatency:          r.maxLatency,
	}
	if r.total > 0 {
		summary.AcceptanceRate = float64(r.accepted) / float64(r.total)
		summary.AvgLatency = r.totalLatency / time.Duration(r.total)
	}
	if elapsed := time.Since(r.started).Seconds(); elapsed > 0 {
		summary.Throughput = float64(r.total) / elapsed
	}
	return summary
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func topN(counts map[string]int, n int) []ReasonCount {
	rows := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		rows = append(rows, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Reason < rows[j].Reason
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
