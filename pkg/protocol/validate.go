package protocol

import (
	"math"

	"github.com/matzehuels/panelgrid/pkg/errors"
)

// Validate rejects structurally invalid requests: bad or duplicate panel
// ids, negative or non-finite weights, a stability weight outside [0,1] and
// a non-finite canvas. A canvas with a zero or negative side and non-positive
// aspect ratios are accepted; the optimizer answers them with an empty
// layout or a clamped ratio.
func Validate(req Request) error {
	if err := errors.ValidateCanvas(req.CanvasWidth, req.CanvasHeight); err != nil {
		return err
	}
	if err := errors.ValidateStabilityWeight(req.StabilityWeight); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, err, "stabilityWeight")
	}

	seen := make(map[string]struct{}, len(req.Panels))
	for i, p := range req.Panels {
		if err := errors.ValidatePanelID(p.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPanel, err, "panels[%d]", i)
		}
		if _, dup := seen[p.ID]; dup {
			return errors.New(errors.ErrCodeInvalidPanel, "duplicate panel id %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Weight != nil {
			w := *p.Weight
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return errors.New(errors.ErrCodeInvalidPanel, "panel %q: weight must be a finite number >= 0", p.ID)
			}
		}
		if p.Kind != nil && !p.Kind.Valid() {
			return errors.New(errors.ErrCodeInvalidPanel, "panel %q: unknown kind", p.ID)
		}
		if p.AspectRatio != nil && (math.IsNaN(*p.AspectRatio) || math.IsInf(*p.AspectRatio, 0)) {
			return errors.New(errors.ErrCodeInvalidPanel, "panel %q: aspect ratio must be finite", p.ID)
		}
	}

	for id, c := range req.PreviousIndex {
		if c.Width < 0 || c.Height < 0 {
			return errors.New(errors.ErrCodeInvalidRequest, "previousIndex[%q]: negative size", id)
		}
	}
	return nil
}
