package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	domainerrors "github.com/YallaPapi/pubscrape-sub002/internal/domain/errors"
)

type Config struct {
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Validation ValidationConfig `koanf:"validation"`
	Verifier   VerifierConfig   `koanf:"verifier"`
	Dedup      DedupConfig      `koanf:"dedup"`
}

type ValidationConfig struct {
	Level             string        `koanf:"validation_level" validate:"oneof=basic full"`
	EnableDNSCheck    bool          `koanf:"enable_dns_check"`
	DNSTimeout        time.Duration `koanf:"dns_timeout"`
	EnableCaching     bool          `koanf:"enable_caching"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	QualityThreshold  float64       `koanf:"quality_threshold" validate:"gte=0,lte=1"`
	BlacklistPatterns []string      `koanf:"blacklist_patterns"`
	TLDWhitelist      []string      `koanf:"tld_whitelist" validate:"min=1"`
	Concurrency       int           `koanf:"concurrency" validate:"gte=1"`
}

type VerifierConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	RateLimitDelay time.Duration `koanf:"rate_limit_delay"`
	MaxRetries     int           `koanf:"max_retries" validate:"gte=0"`
	BatchSize      int           `koanf:"batch_size" validate:"gte=1"`
}

type DedupConfig struct {
	SimilarityThreshold float64 `koanf:"similarity_threshold" validate:"gte=0,lte=1"`
}

// DefaultTLDWhitelist covers generic TLDs plus the compound
// country-code suffixes the validator special-cases.
var DefaultTLDWhitelist = []string{
	"com", "org", "net", "edu", "gov", "io", "co", "biz", "info",
	"us", "uk", "ca", "de", "fr", "au", "nl", "se", "ch",
	"co.uk", "org.uk", "ac.uk", "com.au", "co.nz", "co.jp", "co.in",
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Environment: "development",
		LogLevel:    "info",
		Validation: ValidationConfig{
			Level:            "basic",
			EnableDNSCheck:   true,
			DNSTimeout:       5 * time.Second,
			EnableCaching:    true,
			CacheTTL:         time.Hour,
			QualityThreshold: 0.4,
			TLDWhitelist:     DefaultTLDWhitelist,
			Concurrency:      10,
		},
		Verifier: VerifierConfig{
			Timeout:        10 * time.Second,
			RateLimitDelay: 100 * time.Millisecond,
			MaxRetries:     3,
			BatchSize:      100,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.8,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Override with environment variables. Double underscore nests, so
	// PUBSCRAPE_VALIDATION__DNS_TIMEOUT maps to validation.dns_timeout.
	if err := k.Load(env.Provider("PUBSCRAPE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PUBSCRAPE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return nil, domainerrors.NewConfigError(first.Namespace(),
				fmt.Sprintf("validating config: %s failed on '%s'", first.Namespace(), first.Tag())).
				WithCause(err)
		}
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// TLDSet returns the whitelist as a lookup set with lowercased keys
func (c ValidationConfig) TLDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.TLDWhitelist))
	for _, tld := range c.TLDWhitelist {
		set[strings.ToLower(tld)] = struct{}{}
	}
	return set
}
