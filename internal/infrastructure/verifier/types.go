package verifier

import (
	"time"
)

// Level selects how deep the provider probes an address
type Level string

const (
	// LevelBasic checks format, domain existence and MX records
	LevelBasic Level = "basic"
	// LevelFull additionally attempts mailbox existence over SMTP
	LevelFull Level = "full"
)

// Config contains configuration for the verification service client
type Config struct {
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"api_key"`
	Timeout        time.Duration `json:"timeout"`
	MaxRetries     int           `json:"max_retries"`
	RateLimitDelay time.Duration `json:"rate_limit_delay"`
	BatchSize      int           `json:"batch_size"`

	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl"`

	// Consecutive transport failures before the client reports
	// itself unavailable and the run degrades to heuristics
	FailureThreshold int `json:"failure_threshold"`
}

// Stats exposes client telemetry for the reporter
type Stats struct {
	RequestCount int64         `json:"request_count"`
	CacheHits    int64         `json:"cache_hits"`
	CacheHitRate float64       `json:"cache_hit_rate"`
	ErrorCount   int64         `json:"error_count"`
	ErrorRate    float64       `json:"error_rate"`
	AvgLatency   time.Duration `json:"avg_latency"`
}

// Wire types for the remote verification service

type verifyRequest struct {
	Email   string `json:"email"`
	APIKey  string `json:"api_key"`
	Timeout int    `json:"timeout,omitempty"`
}

type batchVerifyRequest struct {
	APIKey          string   `json:"api_key"`
	Emails          []string `json:"emails"`
	ValidationLevel string   `json:"validation_level"`
}

type verifyResponse struct {
	Email         string  `json:"email"`
	IsValidFormat bool    `json:"is_valid_format"`
	DomainExists  bool    `json:"domain_exists"`
	HasMXRecords  bool    `json:"has_mx_records"`
	IsDisposable  bool    `json:"is_disposable"`
	IsRoleAccount bool    `json:"is_role_account"`
	SMTPCheck     struct {
		MailboxExists bool `json:"mailbox_exists"`
		IsCatchAll    bool `json:"is_catch_all"`
		CanConnect    bool `json:"can_connect"`
		AcceptsMail   bool `json:"accepts_mail"`
	} `json:"smtp_check"`
	Score      float64 `json:"score"`
	Suggestion string  `json:"suggestion,omitempty"`
}

type batchVerifyResponse struct {
	Results []verifyResponse `json:"results"`
}
