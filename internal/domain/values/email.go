package values

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Email represents a validated, normalized email address value object
type Email struct {
	address string
}

var (
	// RFC 5322 compliant regex for stricter validation
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// NewEmail creates a new Email value object with validation.
// The stored address is always trimmed and lowercased.
func NewEmail(address string) (Email, error) {
	if strings.TrimSpace(address) == "" {
		return Email{}, fmt.Errorf("email address cannot be empty")
	}

	normalized := NormalizeAddress(address)

	// Validate using Go's mail package (RFC 5322 compliant)
	parsed, err := mail.ParseAddress(normalized)
	if err != nil {
		return Email{}, fmt.Errorf("invalid email format: %w", err)
	}

	// Additional regex validation for stricter rules
	if !emailRegex.MatchString(parsed.Address) {
		return Email{}, fmt.Errorf("email address does not meet format requirements")
	}

	if len(parsed.Address) > 254 {
		return Email{}, fmt.Errorf("email address too long (max 254 characters)")
	}

	return Email{address: parsed.Address}, nil
}

// MustNewEmail creates Email and panics on error (for constants/tests)
func MustNewEmail(address string) Email {
	email, err := NewEmail(address)
	if err != nil {
		panic(err)
	}
	return email
}

// NormalizeAddress trims whitespace and lowercases an address.
// It is idempotent: NormalizeAddress(NormalizeAddress(s)) == NormalizeAddress(s).
func NormalizeAddress(address string) string {
	return strings.TrimSpace(strings.ToLower(address))
}

// String returns the normalized email address
func (e Email) String() string {
	return e.address
}

// Address returns the normalized email address (alias for String)
func (e Email) Address() string {
	return e.address
}

// LocalPart returns the local part of the email (before @)
func (e Email) LocalPart() string {
	parts := strings.Split(e.address, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

// Domain returns the domain part of the email (after @)
func (e Email) Domain() string {
	parts := strings.Split(e.address, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// TLD resolves the top-level domain against an allow-list. Compound
// country-code suffixes ("co.uk") are matched first: when the domain
// has three or more labels and the trailing two-label suffix is in the
// allow-list, that suffix is the TLD. Otherwise the last label is.
// A nil allow-list falls back to the last label.
func (e Email) TLD(allowed map[string]struct{}) string {
	labels := strings.Split(e.Domain(), ".")
	if len(labels) < 2 {
		return ""
	}
	if len(labels) >= 3 && allowed != nil {
		compound := labels[len(labels)-2] + "." + labels[len(labels)-1]
		if _, ok := allowed[compound]; ok {
			return compound
		}
	}
	return labels[len(labels)-1]
}

// IsEmpty checks if the email is empty
func (e Email) IsEmpty() bool {
	return e.address == ""
}

// Equal checks if two Email values are equal
func (e Email) Equal(other Email) bool {
	return e.address == other.address
}

// MarshalJSON implements JSON marshaling
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.address)
}

// UnmarshalJSON implements JSON unmarshaling
func (e *Email) UnmarshalJSON(data []byte) error {
	var address string
	if err := json.Unmarshal(data, &address); err != nil {
		return err
	}

	email, err := NewEmail(address)
	if err != nil {
		return err
	}

	*e = email
	return nil
}
