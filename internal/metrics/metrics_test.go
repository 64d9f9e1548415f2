package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidation(t *testing.T) {
	before := testutil.ToFloat64(validationsTotal.WithLabelValues("valid"))
	gradeBefore := testutil.ToFloat64(qualityGrades.WithLabelValues("high"))

	RecordValidation("valid", "high", 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(validationsTotal.WithLabelValues("valid")))
	assert.Equal(t, gradeBefore+1, testutil.ToFloat64(qualityGrades.WithLabelValues("high")))
}

func TestRecordCacheLookup(t *testing.T) {
	hitBefore := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("dns", "hit"))
	missBefore := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("dns", "miss"))

	RecordCacheLookup("dns", true)
	RecordCacheLookup("dns", false)
	RecordCacheLookup("dns", false)

	assert.Equal(t, hitBefore+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("dns", "hit")))
	assert.Equal(t, missBefore+2, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("dns", "miss")))
}

func TestRecordMerge(t *testing.T) {
	before := testutil.ToFloat64(mergesTotal)
	RecordMerge()
	RecordMerge()
	assert.Equal(t, before+2, testutil.ToFloat64(mergesTotal))
}

// The promauto collectors register against the default registry, which is
// what the CLI's -metrics dump gathers. Exercise each recorder and check
// the families a dump would contain.
func TestDefaultRegistryGathersPipelineFamilies(t *testing.T) {
	RecordValidation("invalid_syntax", "reject", time.Millisecond)
	RecordVerifierRequest("success")
	RecordCacheLookup("verifier", true)
	RecordMerge()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	for _, want := range []string{
		"pubscrape_validation_emails_total",
		"pubscrape_validation_duration_seconds",
		"pubscrape_validation_quality_total",
		"pubscrape_verifier_requests_total",
		"pubscrape_cache_lookups_total",
		"pubscrape_dedup_merges_total",
	} {
		assert.True(t, names[want], "expected family %s in gather output", want)
	}
}
