package validation

import (
	"context"

	"github.com/YallaPapi/pubscrape-sub002/internal/domain/contact"
	"github.com/YallaPapi/pubscrape-sub002/internal/domain/verification"
	"github.com/YallaPapi/pubscrape-sub002/internal/infrastructure/verifier"
)

// Verifier is the external email-verification service client
type Verifier interface {
	Verify(ctx context.Context, email string, level verifier.Level) (*verification.ExternalResult, error)
	VerifyBatch(ctx context.Context, emails []string, level verifier.Level) ([]*verification.ExternalResult, error)
	Available() bool
}

// DuplicateChecker decides identity collisions and owns the
// deduplicated contact set for the run
type DuplicateChecker interface {
	CheckDuplicate(email string, result *verification.Result, meta contact.Metadata) bool
}

// Observer is notified of every terminal validation result
type Observer interface {
	Observe(result *verification.Result)
}
