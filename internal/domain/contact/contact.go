package contact

import (
	"time"

	"github.com/google/uuid"
)

// Metadata carries the optional discovery context for one raw input.
// Fields are explicit so a misspelled key cannot silently vanish in a
// merge; empty string means absent.
type Metadata struct {
	Name            string `json:"name,omitempty"`
	Title           string `json:"title,omitempty"`
	Company         string `json:"company,omitempty"`
	Phone           string `json:"phone,omitempty"`
	SourceURL       string `json:"source_url,omitempty"`
	DiscoveryMethod string `json:"discovery_method,omitempty"`
}

// IsZero reports whether no metadata field is set
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Record is one unique identity after merging. Created on first sight
// of a new normalized email, mutated in place by Merge, never deleted
// during a run.
type Record struct {
	ID               uuid.UUID `json:"id"`
	PrimaryEmail     string    `json:"primary_email"`
	EmailVariants    []string  `json:"email_variants"`
	Names            []string  `json:"names,omitempty"`
	Titles           []string  `json:"titles,omitempty"`
	Companies        []string  `json:"companies,omitempty"`
	Phones           []string  `json:"phones,omitempty"`
	Sources          []string  `json:"sources,omitempty"`
	DiscoveryMethods []string  `json:"discovery_methods,omitempty"`
	Scores           []float64 `json:"confidence_scores"`
	BestConfidence   float64   `json:"best_confidence"`
	TotalOccurrences int       `json:"total_occurrences"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}

// NewRecord creates a record for a newly seen normalized email.
// The primary email is always a member of the variant set.
func NewRecord(email string, meta Metadata, confidence float64) *Record {
	now := time.Now()
	rec := &Record{
		ID:               uuid.New(),
		PrimaryEmail:     email,
		EmailVariants:    []string{email},
		Scores:           []float64{confidence},
		BestConfidence:   confidence,
		TotalOccurrences: 1,
		FirstSeen:        now,
		LastSeen:         now,
	}
	rec.absorbMetadata(meta)
	return rec
}

// Merge folds a later input judged to be the same identity into the
// record: list fields are unioned preserving insertion order, scalars
// aggregate as max/sum/min/max.
func (r *Record) Merge(email string, meta Metadata, confidence float64) {
	r.EmailVariants = appendUnique(r.EmailVariants, email)
	r.absorbMetadata(meta)
	r.Scores = append(r.Scores, confidence)
	if confidence > r.BestConfidence {
		r.BestConfidence = confidence
	}
	r.TotalOccurrences++
	now := time.Now()
	if now.Before(r.FirstSeen) {
		r.FirstSeen = now
	}
	if now.After(r.LastSeen) {
		r.LastSeen = now
	}
}

func (r *Record) absorbMetadata(meta Metadata) {
	if meta.Name != "" {
		r.Names = appendUnique(r.Names, meta.Name)
	}
	if meta.Title != "" {
		r.Titles = appendUnique(r.Titles, meta.Title)
	}
	if meta.Company != "" {
		r.Companies = appendUnique(r.Companies, meta.Company)
	}
	if meta.Phone != "" {
		r.Phones = appendUnique(r.Phones, meta.Phone)
	}
	if meta.SourceURL != "" {
		r.Sources = appendUnique(r.Sources, meta.SourceURL)
	}
	if meta.DiscoveryMethod != "" {
		r.DiscoveryMethods = appendUnique(r.DiscoveryMethods, meta.DiscoveryMethod)
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
