package errors

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// MaxPanelIDLength bounds panel identifiers accepted from clients.
const MaxPanelIDLength = 128

// ValidatePanelID validates a client-supplied panel identifier.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only ids
//   - No control characters
//   - Maximum length of MaxPanelIDLength bytes
func ValidatePanelID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidPanel, "panel id cannot be empty")
	}

	if len(id) > MaxPanelIDLength {
		return New(ErrCodeInvalidPanel, "panel id too long (max %d characters)", MaxPanelIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPanel, "panel id contains invalid control characters")
		}
	}

	return nil
}

// ValidateStabilityWeight checks that w lies in [0,1].
func ValidateStabilityWeight(w float64) error {
	if math.IsNaN(w) || w < 0 || w > 1 {
		return New(ErrCodeInvalidInput, "stability weight must be in [0,1], got %v", w)
	}
	return nil
}

// ValidateRatio checks a split ratio, which must lie strictly inside (0,1).
func ValidateRatio(r float64) error {
	if math.IsNaN(r) || r <= 0 || r >= 1 {
		return New(ErrCodeInvalidConfig, "split ratio must be in (0,1), got %v", r)
	}
	return nil
}

// ValidateBudget checks an optimization time budget. Zero selects the
// default; budgets above a minute are rejected as a likely unit mistake.
func ValidateBudget(d time.Duration) error {
	if d < 0 {
		return New(ErrCodeInvalidConfig, "budget cannot be negative, got %s", d)
	}
	if d > time.Minute {
		return New(ErrCodeInvalidConfig, "budget too large (max 1m), got %s", d)
	}
	return nil
}

// ValidateCanvas checks that canvas dimensions are finite. A canvas whose
// width or height is zero or negative is valid and yields an empty layout.
func ValidateCanvas(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidRequest, "canvas size must be finite")
		}
	}
	return nil
}
