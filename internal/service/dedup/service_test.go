package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/contact"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
)

func newDeduper(threshold float64) *Deduplicator {
	return New(threshold, zap.NewNop())
}

func resultFor(email string, score float64) *verification.Result {
	result := verification.NewResult(email)
	result.Status = verification.StatusBlacklistChecked
	result.SetScore(score)
	return result
}

func TestCheckDuplicate_ExactRepeat(t *testing.T) {
	d := newDeduper(0.8)

	first := resultFor("a@biz.com", 0.7)
	isDup := d.CheckDuplicate("a@biz.com", first, contact.Metadata{})
	require.False(t, isDup)
	assert.Equal(t, verification.StatusDedupChecked, first.Status)

	second := resultFor("a@biz.com", 0.7)
	isDup = d.CheckDuplicate("a@biz.com", second, contact.Metadata{})
	assert.True(t, isDup)
	assert.Equal(t, verification.StatusDuplicate, second.Status)
	assert.False(t, second.IsValid)

	third := resultFor("a@biz.com", 0.7)
	assert.True(t, d.CheckDuplicate("a@biz.com", third, contact.Metadata{}),
		"every subsequent sighting stays a duplicate")
}

func TestCheckDuplicate_ExactRepeatStillAccrues(t *testing.T) {
	d := newDeduper(0.8)

	d.CheckDuplicate("a@biz.com", resultFor("a@biz.com", 0.7), contact.Metadata{})
	d.CheckDuplicate("a@biz.com", resultFor("a@biz.com", 0.7), contact.Metadata{Phone: "+1-555-0100"})

	records := d.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].TotalOccurrences)
	assert.Equal(t, []string{"+1-555-0100"}, records[0].Phones)
}

func TestCheckDuplicate_MergesSimilarIdentity(t *testing.T) {
	d := newDeduper(0.8)

	d.CheckDuplicate("jane.smith@acme.com", resultFor("jane.smith@acme.com", 0.8),
		contact.Metadata{Name: "Jane Smith"})
	d.CheckDuplicate("jsmith@acme.com", resultFor("jsmith@acme.com", 0.6),
		contact.Metadata{Name: "jane smith"})

	records := d.Records()
	require.Len(t, records, 1, "same name on same domain merges")
	assert.Equal(t, "jane.smith@acme.com", records[0].PrimaryEmail)
	assert.Equal(t, []string{"jane.smith@acme.com", "jsmith@acme.com"}, records[0].EmailVariants)
	assert.Equal(t, 0.8, records[0].BestConfidence)
	assert.Equal(t, 2, records[0].TotalOccurrences)
}

func TestCheckDuplicate_BelowThresholdStaysDistinct(t *testing.T) {
	d := newDeduper(0.8)

	d.CheckDuplicate("jane@acme.com", resultFor("jane@acme.com", 0.8),
		contact.Metadata{Name: "Jane Smith"})
	d.CheckDuplicate("bob@acme.com", resultFor("bob@acme.com", 0.6),
		contact.Metadata{Name: "Bob Jones"})

	assert.Len(t, d.Records(), 2)
}

func TestCheckDuplicate_SearchRestrictedToDomain(t *testing.T) {
	d := newDeduper(0.8)

	d.CheckDuplicate("jane.smith@acme.com", resultFor("jane.smith@acme.com", 0.8),
		contact.Metadata{Name: "Jane Smith"})
	d.CheckDuplicate("jane.smith@other.com", resultFor("jane.smith@other.com", 0.8),
		contact.Metadata{Name: "Jane Smith"})

	assert.Len(t, d.Records(), 2, "identical names on different domains do not merge")
}

func TestCheckDuplicate_CompanySimilarityMerges(t *testing.T) {
	d := newDeduper(0.5)

	d.CheckDuplicate("info@acme.com", resultFor("info@acme.com", 0.6),
		contact.Metadata{Company: "Acme Widgets Inc"})
	d.CheckDuplicate("sales@acme.com", resultFor("sales@acme.com", 0.7),
		contact.Metadata{Company: "Acme Widgets"})

	records := d.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Acme Widgets Inc", "Acme Widgets"}, records[0].Companies)
}

func TestCheckDuplicate_NoMetadataNeverMerges(t *testing.T) {
	d := newDeduper(0.8)

	d.CheckDuplicate("a@biz.com", resultFor("a@biz.com", 0.5), contact.Metadata{})
	d.CheckDuplicate("b@biz.com", resultFor("b@biz.com", 0.5), contact.Metadata{})

	assert.Len(t, d.Records(), 2)
}

func TestSeenCount_Monotonic(t *testing.T) {
	d := newDeduper(0.8)

	emails := []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "b@x.com"}
	previous := 0
	for _, email := range emails {
		d.CheckDuplicate(email, resultFor(email, 0.5), contact.Metadata{})
		count := d.SeenCount()
		assert.GreaterOrEqual(t, count, previous)
		previous = count
	}
	assert.Equal(t, 3, d.SeenCount())
}

func TestRecords_InsertionOrder(t *testing.T) {
	d := newDeduper(0.8)

	for _, email := range []string{"c@x.com", "a@y.com", "b@z.com"} {
		d.CheckDuplicate(email, resultFor(email, 0.5), contact.Metadata{})
	}

	records := d.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "c@x.com", records[0].PrimaryEmail)
	assert.Equal(t, "a@y.com", records[1].PrimaryEmail)
	assert.Equal(t, "b@z.com", records[2].PrimaryEmail)
}
