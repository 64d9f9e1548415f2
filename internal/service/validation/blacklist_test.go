package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/values"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
)

func checkedResult(raw string) *verification.Result {
	result := verification.NewResult(raw)
	result.Status = verification.StatusSyntaxChecked
	return result
}

func TestBlacklist_DefaultPatterns(t *testing.T) {
	blacklist, err := NewBlacklist(nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
	}{
		{"no-reply address", "noreply@company.com"},
		{"hyphenated no-reply", "no-reply@company.com"},
		{"bounce address", "bounce@company.com"},
		{"test address", "test@company.com"},
		{"numbered test address", "test123@company.com"},
		{"placeholder", "dummy@company.com"},
		{"system account", "root@company.com"},
		{"mailer daemon", "mailer-daemon@company.com"},
		{"localhost domain", "user@localhost"},
		{"example domain", "user@example.com"},
		{"short local part", "ab@company.com"},
		{"numeric local part", "12345@company.com"},
		{"IP-literal domain", "user@192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkedResult(tt.email)
			blacklist.Check(result)

			assert.Equal(t, verification.StatusBlacklisted, result.Status)
			assert.False(t, result.IsValid)
			assert.Equal(t, values.GradeSpam, result.Grade)
			assert.NotEmpty(t, result.BlacklistMatch)
		})
	}
}

func TestBlacklist_CleanAddressPassesThrough(t *testing.T) {
	blacklist, err := NewBlacklist(nil)
	require.NoError(t, err)

	result := checkedResult("jane.smith@acme.com")
	result.SetScore(0.8)
	blacklist.Check(result)

	assert.Equal(t, verification.StatusBlacklistChecked, result.Status)
	assert.Empty(t, result.BlacklistMatch)
	assert.Equal(t, 0.8, result.ConfidenceScore, "no match leaves the result unchanged")
}

func TestBlacklist_CustomDisposablePattern(t *testing.T) {
	// Scenario: operator supplies a disposable-domain pattern
	blacklist, err := NewBlacklist([]string{`@10minutemail\.com$`})
	require.NoError(t, err)

	result := checkedResult("someone@10minutemail.com")
	blacklist.Check(result)

	assert.Equal(t, verification.StatusBlacklisted, result.Status)
	assert.False(t, result.IsValid)
	assert.Equal(t, values.GradeSpam, result.Grade)
}

func TestBlacklist_PrecedenceOverHighScore(t *testing.T) {
	blacklist, err := NewBlacklist(nil)
	require.NoError(t, err)

	result := checkedResult("noreply@bigcorp.com")
	result.SetScore(0.95)
	blacklist.Check(result)

	assert.Equal(t, verification.StatusBlacklisted, result.Status)
	assert.Equal(t, 0.0, result.ConfidenceScore,
		"a blacklist match rejects regardless of heuristic score")
}

func TestBlacklist_FirstMatchWins(t *testing.T) {
	blacklist, err := NewBlacklist([]string{`^noreply@`})
	require.NoError(t, err)

	result := checkedResult("noreply@company.com")
	blacklist.Check(result)

	// The default no-reply pattern sits before the custom one
	assert.Equal(t, "no-reply address", result.Reason)
}

func TestBlacklist_InvalidCustomPattern(t *testing.T) {
	_, err := NewBlacklist([]string{`[unclosed`})
	assert.Error(t, err)
}
