package values

import "fmt"

// Grade buckets a confidence score into a quality tier
type Grade int

const (
	GradeSpam Grade = iota
	GradeLow
	GradeMedium
	GradeHigh
)

func (g Grade) String() string {
	switch g {
	case GradeHigh:
		return "high"
	case GradeMedium:
		return "medium"
	case GradeLow:
		return "low"
	case GradeSpam:
		return "spam"
	default:
		return "unknown"
	}
}

// MarshalJSON implements JSON marshaling
func (g Grade) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", g.String())), nil
}

// Heuristic-only bucket thresholds
const (
	heuristicHigh   = 0.7
	heuristicMedium = 0.4
	heuristicLow    = 0.1
)

// Stricter thresholds when third-party verification data is fused in
const (
	fusedHigh   = 0.75
	fusedMedium = 0.45
	fusedLow    = 0.15
)

// ClampScore clamps a confidence score to [0, 1]
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// GradeFor buckets a confidence score. Fused results (those carrying
// external verification signals) use the stricter threshold set.
func GradeFor(score float64, fused bool) Grade {
	score = ClampScore(score)
	high, medium, low := heuristicHigh, heuristicMedium, heuristicLow
	if fused {
		high, medium, low = fusedHigh, fusedMedium, fusedLow
	}
	switch {
	case score >= high:
		return GradeHigh
	case score >= medium:
		return GradeMedium
	case score >= low:
		return GradeLow
	default:
		return GradeSpam
	}
}
