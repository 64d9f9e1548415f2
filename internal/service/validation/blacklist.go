package validation

import (
	"fmt"
	"regexp"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/values"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
)

// blacklistEntry pairs a compiled pattern with its rejection reason
type blacklistEntry struct {
	pattern *regexp.Regexp
	reason  string
}

// defaultBlacklist covers the address classes that are never worth
// contacting. Order matters: the first matching pattern wins.
var defaultBlacklist = []struct {
	expr   string
	reason string
}{
	{`(?i)^(noreply|no-reply|no\.reply|donotreply|do-not-reply|bounce|bounces|mailer-daemon)@`, "no-reply address"},
	{`(?i)^(test|testing|placeholder|dummy|fake|sample|example)[\d._-]*@`, "test or placeholder address"},
	{`(?i)^(root|daemon|sysadmin|hostmaster|postmaster|webmaster|www|ftp|null|void)@`, "system address"},
	{`(?i)@(localhost|example\.(com|org|net)|test\.(com|org|net)|invalid|local)$`, "local or reserved domain"},
	{`^[a-z0-9]{1,2}@`, "suspiciously short local part"},
	{`^\d+@`, "numeric local part"},
	{`@\[?\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\]?$`, "IP-literal domain"},
}

// Blacklist rejects disposable, placeholder and system addresses by
// ordered pattern matching.
type Blacklist struct {
	entries []blacklistEntry
}

// NewBlacklist compiles the default patterns plus any operator-supplied
// ones, which are checked after the defaults.
func NewBlacklist(customPatterns []string) (*Blacklist, error) {
	entries := make([]blacklistEntry, 0, len(defaultBlacklist)+len(customPatterns))
	for _, def := range defaultBlacklist {
		entries = append(entries, blacklistEntry{
			pattern: regexp.MustCompile(def.expr),
			reason:  def.reason,
		})
	}
	for _, expr := range customPatterns {
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling blacklist pattern %q: %w", expr, err)
		}
		entries = append(entries, blacklistEntry{
			pattern: compiled,
			reason:  "matched custom pattern",
		})
	}
	return &Blacklist{entries: entries}, nil
}

// Check applies the first matching pattern: the result is rejected as
// BLACKLISTED with Spam quality and the matched pattern recorded. No
// match advances the result to BLACKLIST_CHECKED.
func (b *Blacklist) Check(result *verification.Result) {
	for _, entry := range b.entries {
		if entry.pattern.MatchString(result.NormalizedEmail) {
			result.Reject(verification.StatusBlacklisted, entry.reason)
			result.BlacklistMatch = entry.pattern.String()
			result.ConfidenceScore = 0
			result.Grade = values.GradeSpam
			return
		}
	}
	result.Status = verification.StatusBlacklistChecked
}
