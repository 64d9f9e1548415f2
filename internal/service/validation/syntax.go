package validation

import (
	"regexp"
	"strings"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/values"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
)

// Consumer webmail domains classified as personal
var personalDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"aol.com":        {},
	"icloud.com":     {},
	"protonmail.com": {},
	"proton.me":      {},
	"mail.com":       {},
	"live.com":       {},
	"msn.com":        {},
	"gmx.com":        {},
	"yandex.com":     {},
	"zoho.com":       {},
}

// Organizational keywords marking a business domain
var businessKeywords = []string{
	"corp", "inc", "llc", "ltd", "group", "tech", "solutions",
	"consulting", "agency", "company", "enterprises", "industries",
	"ventures", "partners", "global", "labs", "software", "systems",
	"media", "digital", "studio",
}

// Local-part patterns and their score weights
var (
	executivePattern = regexp.MustCompile(`(?i)^(ceo|cto|cfo|coo|founder|cofounder|co-founder|president|director|owner|principal|partner|vp|chief)([._-]|$)`)
	contactPattern   = regexp.MustCompile(`(?i)^(contact|sales|hello|hi|team|marketing|press|media)([._-]|$)`)
	genericPattern   = regexp.MustCompile(`(?i)^(info|support|admin|office|help|service|billing)([._-]|$)`)
	spamPattern      = regexp.MustCompile(`(?i)^(noreply|no-reply|no\.reply|donotreply|do-not-reply|test|testing|webmaster|postmaster|spam|abuse|example|sample|demo)([._-]|$)`)
	namePattern      = regexp.MustCompile(`^[a-z]{2,}\.[a-z]{2,}$`)
	initialPattern   = regexp.MustCompile(`^[a-z]\.?[a-z]{3,}$`)
)

// SyntaxValidator performs the grammar check, TLD allow-list check,
// business/personal classification and heuristic quality scoring.
type SyntaxValidator struct {
	tldSet map[string]struct{}
}

// NewSyntaxValidator creates a validator for the given TLD allow-list
func NewSyntaxValidator(tldWhitelist []string) *SyntaxValidator {
	set := make(map[string]struct{}, len(tldWhitelist))
	for _, tld := range tldWhitelist {
		set[strings.ToLower(tld)] = struct{}{}
	}
	return &SyntaxValidator{tldSet: set}
}

// Validate runs the syntax stage on a fresh result. Malformed input is
// terminal INVALID_SYNTAX with zero confidence; a disallowed TLD is
// terminal INVALID_DOMAIN. Otherwise the result advances to
// SYNTAX_CHECKED carrying the heuristic score.
func (v *SyntaxValidator) Validate(result *verification.Result) {
	email, err := values.NewEmail(result.RawEmail)
	if err != nil {
		result.Reject(verification.StatusInvalidSyntax, err.Error())
		result.SetScore(0)
		return
	}

	result.NormalizedEmail = email.Address()
	result.Domain = email.Domain()
	result.TLD = email.TLD(v.tldSet)

	if _, ok := v.tldSet[result.TLD]; !ok {
		result.Reject(verification.StatusInvalidDomain, "TLD not in allow-list: "+result.TLD)
		result.SetScore(0)
		return
	}

	result.IsBusiness = isBusinessDomain(result.Domain)
	result.IsPersonal = isPersonalDomain(result.Domain)

	result.Status = verification.StatusSyntaxChecked
	result.SetScore(v.score(email.LocalPart(), result))
}

// score computes the pattern-based quality heuristic
func (v *SyntaxValidator) score(localPart string, result *verification.Result) float64 {
	score := 0.5

	switch {
	case executivePattern.MatchString(localPart), contactPattern.MatchString(localPart):
		score += 0.3
	case genericPattern.MatchString(localPart):
		score += 0.1
	case spamPattern.MatchString(localPart):
		score -= 0.4
	}

	if result.IsBusiness {
		score += 0.2
	}
	if result.IsPersonal {
		score -= 0.1
	}

	if namePattern.MatchString(localPart) {
		score += 0.1
	}
	if len(localPart) >= 5 {
		score += 0.05
	}

	// Universal bonuses, applied on every scoring path
	if containsExecutiveKeyword(localPart) {
		score += 0.1
	}
	if looksLikeProfessionalName(localPart) {
		score += 0.05
	}

	return score
}

func isBusinessDomain(domain string) bool {
	base := strings.SplitN(domain, ".", 2)[0]
	for _, keyword := range businessKeywords {
		if strings.Contains(base, keyword) {
			return true
		}
	}
	return false
}

func isPersonalDomain(domain string) bool {
	_, ok := personalDomains[domain]
	return ok
}

var executiveKeywords = []string{"ceo", "founder", "president", "director", "chief", "owner"}

func containsExecutiveKeyword(localPart string) bool {
	lower := strings.ToLower(localPart)
	for _, keyword := range executiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// looksLikeProfessionalName matches shapes like "jsmith" or "j.smith"
// that suggest a named individual rather than a mailbox alias
func looksLikeProfessionalName(localPart string) bool {
	return namePattern.MatchString(localPart) || initialPattern.MatchString(localPart)
}
