package verification

import (
	"time"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/values"
)

// Result captures every signal gathered for a single input email.
// It is treated as immutable once Finish has been called.
type Result struct {
	RawEmail        string        `json:"raw_email"`
	NormalizedEmail string        `json:"normalized_email"`
	Domain          string        `json:"domain"`
	TLD             string        `json:"tld"`
	Status          Status        `json:"status"`
	IsValid         bool          `json:"is_valid"`
	Grade           values.Grade  `json:"quality"`
	ConfidenceScore float64       `json:"confidence_score"`
	Reason          string        `json:"reason"`
	MXRecords       []string      `json:"mx_records,omitempty"`
	IsBusiness      bool          `json:"is_business_domain"`
	IsPersonal      bool          `json:"is_personal_domain"`
	BlacklistMatch  string        `json:"blacklist_match,omitempty"`
	IsDisposable    bool          `json:"is_disposable"`
	IsRoleAccount   bool          `json:"is_role_account"`
	SMTPVerified    bool          `json:"smtp_verified"`
	Fused           bool          `json:"api_verified"`
	Latency         time.Duration `json:"latency"`

	startedAt time.Time
}

// NewResult starts tracking a raw input email
func NewResult(raw string) *Result {
	return &Result{
		RawEmail:        raw,
		NormalizedEmail: values.NormalizeAddress(raw),
		Status:          StatusReceived,
		startedAt:       time.Now(),
	}
}

// SetScore clamps and stores a confidence score and rebuckets quality
func (r *Result) SetScore(score float64) {
	r.ConfidenceScore = values.ClampScore(score)
	r.Grade = values.GradeFor(r.ConfidenceScore, r.Fused)
}

// Reject moves the result into a terminal rejected state
func (r *Result) Reject(status Status, reason string) {
	r.Status = status
	r.IsValid = false
	r.Reason = reason
}

// Accept marks the result deliverable
func (r *Result) Accept() {
	r.Status = StatusAccepted
	r.IsValid = true
}

// Finish stamps the per-record validation latency
func (r *Result) Finish() {
	r.Latency = time.Since(r.startedAt)
}

// SMTPCheck groups the mailbox-level probe signals from the provider
type SMTPCheck struct {
	MailboxExists bool `json:"mailbox_exists"`
	IsCatchAll    bool `json:"is_catch_all"`
	CanConnect    bool `json:"can_connect"`
	AcceptsMail   bool `json:"accepts_mail"`
}

// ExternalStatus is the canonical provider verdict
type ExternalStatus string

const (
	ExternalValid    ExternalStatus = "valid"
	ExternalInvalid  ExternalStatus = "invalid"
	ExternalRisky    ExternalStatus = "risky"
	ExternalCatchAll ExternalStatus = "catch_all"
	ExternalUnknown  ExternalStatus = "unknown"
)

// ExternalResult is the canonical form of a provider response for one
// email. It is consumed by the orchestrator to re-score the Result and
// is not persisted independently.
type ExternalResult struct {
	Email         string         `json:"email"`
	IsValidFormat bool           `json:"is_valid_format"`
	DomainExists  bool           `json:"domain_exists"`
	HasMXRecords  bool           `json:"has_mx_records"`
	IsDisposable  bool           `json:"is_disposable"`
	IsRoleAccount bool           `json:"is_role_account"`
	SMTP          SMTPCheck      `json:"smtp_check"`
	Score         float64        `json:"score"`
	Status        ExternalStatus `json:"status"`
	Confidence    float64        `json:"confidence"`
}

// DeriveStatus combines the raw provider fields into the canonical
// verdict: valid when the mailbox is confirmed, catch_all when the
// domain accepts everything, risky when the mailbox is indeterminate
// but domain and MX are sound, invalid otherwise.
func (e *ExternalResult) DeriveStatus() ExternalStatus {
	if !e.IsValidFormat || !e.DomainExists {
		return ExternalInvalid
	}
	if e.SMTP.IsCatchAll {
		return ExternalCatchAll
	}
	if e.SMTP.MailboxExists {
		return ExternalValid
	}
	if e.HasMXRecords {
		return ExternalRisky
	}
	return ExternalInvalid
}

// QualityAdjustment derives the fused score contribution from the
// provider score: disposable addresses are penalized, role accounts
// get a small bonus when not disposable, confirmed mailboxes a larger
// one, and catch-all domains a penalty.
func (e *ExternalResult) QualityAdjustment() float64 {
	score := e.Score
	if e.IsDisposable {
		score -= 0.3
	} else if e.IsRoleAccount {
		score += 0.1
	}
	if e.SMTP.MailboxExists {
		score += 0.2
	}
	if e.SMTP.IsCatchAll {
		score -= 0.1
	}
	return values.ClampScore(score)
}
