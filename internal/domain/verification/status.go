package verification

// Status tracks an email through the validation pipeline
type Status int

const (
	StatusReceived Status = iota
	StatusSyntaxChecked
	StatusDomainChecked
	StatusAPIChecked
	StatusBlacklistChecked
	StatusDedupChecked
	StatusAccepted
	StatusInvalidSyntax
	StatusInvalidDomain
	StatusNoMXRecord
	StatusDNSError
	StatusBlacklisted
	StatusDuplicate
	StatusUnknownError
)

func (s Status) String() string {
	switch s {
	case StatusReceived:
		return "received"
	case StatusSyntaxChecked:
		return "syntax_checked"
	case StatusDomainChecked:
		return "domain_checked"
	case StatusAPIChecked:
		return "api_checked"
	case StatusBlacklistChecked:
		return "blacklist_checked"
	case StatusDedupChecked:
		return "dedup_checked"
	case StatusAccepted:
		return "accepted"
	case StatusInvalidSyntax:
		return "invalid_syntax"
	case StatusInvalidDomain:
		return "invalid_domain"
	case StatusNoMXRecord:
		return "no_mx_record"
	case StatusDNSError:
		return "dns_error"
	case StatusBlacklisted:
		return "blacklisted"
	case StatusDuplicate:
		return "duplicate"
	case StatusUnknownError:
		return "unknown_error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements JSON marshaling
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Terminal reports whether the status ends the pipeline for an email
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusInvalidSyntax, StatusInvalidDomain,
		StatusNoMXRecord, StatusDNSError, StatusBlacklisted,
		StatusDuplicate, StatusUnknownError:
		return true
	default:
		return false
	}
}

// Rejected reports whether the status is a terminal rejection
func (s Status) Rejected() bool {
	return s.Terminal() && s != StatusAccepted
}

// CanTransitionTo validates pipeline state transitions. Any state may
// transition to StatusUnknownError; terminal states accept nothing.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusUnknownError {
		return true
	}
	switch s {
	case StatusReceived:
		return next == StatusSyntaxChecked || next == StatusInvalidSyntax || next == StatusInvalidDomain
	case StatusSyntaxChecked:
		return next == StatusDomainChecked || next == StatusAPIChecked ||
			next == StatusBlacklistChecked || next == StatusInvalidSyntax ||
			next == StatusInvalidDomain || next == StatusNoMXRecord ||
			next == StatusDNSError
	case StatusDomainChecked, StatusAPIChecked:
		return next == StatusBlacklistChecked || next == StatusBlacklisted
	case StatusBlacklistChecked:
		return next == StatusDedupChecked || next == StatusBlacklisted || next == StatusDuplicate
	case StatusDedupChecked:
		return next == StatusAccepted || next == StatusDuplicate
	default:
		return false
	}
}
