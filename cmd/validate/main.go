package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/contact"
	"github.com/YallaPapi/pubscrape-sub002/internal/infrastructure/config"
	"github.com/YallaPapi/pubscrape-sub002/internal/infrastructure/telemetry"
	"github.com/YallaPapi/pubscrape-sub002/internal/infrastructure/verifier"
	"github.com/YallaPapi/pubscrape-sub002/internal/service/dedup"
	"github.com/YallaPapi/pubscrape-sub002/internal/service/reporting"
	"github.com/YallaPapi/pubscrape-sub002/internal/service/validation"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		inputPath   = flag.String("input", "", "CSV file with an 'email' column")
		outputPath  = flag.String("output", "", "Write JSON results here instead of stdout")
		metricsPath = flag.String("metrics", "", "Write Prometheus metrics in text format here after the run")
	)
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	emails, metas, err := readContacts(*inputPath)
	if err != nil {
		logger.Fatal("failed to read input", zap.Error(err))
	}
	logger.Info("loaded contacts", zap.Int("count", len(emails)))

	service, deduper, reporter, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	ctx := context.Background()
	results, err := service.ValidateBatch(ctx, emails, metas)
	if err != nil {
		logger.Fatal("batch validation failed", zap.Error(err))
	}

	contacts := deduper.Records()
	if threshold := cfg.Validation.QualityThreshold; threshold > 0 {
		kept := contacts[:0]
		for _, record := range contacts {
			if record.BestConfidence >= threshold {
				kept = append(kept, record)
			}
		}
		if dropped := len(contacts) - len(kept); dropped > 0 {
			logger.Info("filtered low-confidence contacts",
				zap.Int("dropped", dropped),
				zap.Float64("quality_threshold", threshold),
			)
		}
		contacts = kept
	}

	output := struct {
		Summary  reporting.Summary `json:"summary"`
		Results  interface{}       `json:"results"`
		Contacts interface{}       `json:"contacts"`
	}{
		Summary:  reporter.Summary(),
		Results:  results,
		Contacts: contacts,
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode results", zap.Error(err))
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, encoded, 0o644); err != nil {
			logger.Fatal("failed to write output", zap.Error(err))
		}
		logger.Info("results written", zap.String("path", *outputPath))
	} else {
		fmt.Println(string(encoded))
	}

	if *metricsPath != "" {
		if err := dumpMetrics(*metricsPath); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		} else {
			logger.Info("metrics written", zap.String("path", *metricsPath))
		}
	}
}

// dumpMetrics writes the default registry in Prometheus text exposition
// format. A batch run has no scrape endpoint, so the registry is dumped
// once at exit instead.
func dumpMetrics(path string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := expfmt.NewEncoder(file, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}

func buildPipeline(cfg *config.Config, logger *zap.Logger) (*validation.Service, *dedup.Deduplicator, *reporting.Reporter, error) {
	syntax := validation.NewSyntaxValidator(cfg.Validation.TLDWhitelist)

	blacklist, err := validation.NewBlacklist(cfg.Validation.BlacklistPatterns)
	if err != nil {
		return nil, nil, nil, err
	}

	var resolver *validation.DNSResolver
	if cfg.Validation.EnableDNSCheck {
		cacheTTL := cfg.Validation.CacheTTL
		if !cfg.Validation.EnableCaching {
			cacheTTL = 0
		}
		resolver = validation.NewDNSResolver(cfg.Validation.DNSTimeout, cacheTTL, cfg.Verifier.MaxRetries)
	}

	var verifierClient validation.Verifier
	if cfg.Verifier.BaseURL != "" {
		verifierClient = verifier.NewClient(verifier.Config{
			BaseURL:        cfg.Verifier.BaseURL,
			APIKey:         cfg.Verifier.APIKey,
			Timeout:        cfg.Verifier.Timeout,
			MaxRetries:     cfg.Verifier.MaxRetries,
			RateLimitDelay: cfg.Verifier.RateLimitDelay,
			BatchSize:      cfg.Verifier.BatchSize,
			CacheEnabled:   cfg.Validation.EnableCaching,
			CacheTTL:       cfg.Validation.CacheTTL,
		}, logger)
	}

	deduper := dedup.New(cfg.Dedup.SimilarityThreshold, logger)
	reporter := reporting.NewReporter()

	service := validation.NewService(
		validation.ServiceConfig{
			Level:          verifier.Level(cfg.Validation.Level),
			EnableDNSCheck: cfg.Validation.EnableDNSCheck,
			Concurrency:    cfg.Validation.Concurrency,
			BatchThreshold: cfg.Verifier.BatchSize,
		},
		syntax, resolver, blacklist, verifierClient, deduper, reporter, logger,
	)

	return service, deduper, reporter, nil
}

// readContacts parses a CSV with a header row. The email column is
// required; name, title, company, phone, source and discovery_method
// columns feed the deduplicator when present.
func readContacts(path string) ([]string, []contact.Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("input file is empty")
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	emailIdx, ok := columns["email"]
	if !ok {
		return nil, nil, fmt.Errorf("input is missing an 'email' column")
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	emails := make([]string, 0, len(rows)-1)
	metas := make([]contact.Metadata, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if emailIdx >= len(row) {
			continue
		}
		emails = append(emails, row[emailIdx])
		metas = append(metas, contact.Metadata{
			Name:            cell(row, "name"),
			Title:           cell(row, "title"),
			Company:         cell(row, "company"),
			Phone:           cell(row, "phone"),
			SourceURL:       cell(row, "source"),
			DiscoveryMethod: cell(row, "discovery_method"),
		})
	}

	return emails, metas, nil
}
