package scenario

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/model"
)

// VolMode selects how equity volatility reacts to a stress severity.
type VolMode string

const (
	VolModeNone   VolMode = "none"
	VolModeLinear VolMode = "linear"
)

// DefaultGamma is the reference linear volatility sensitivity.
const DefaultGamma = 0.5

const volFloor = 1e-6

// VolShockRule converts a baseline equity volatility and a severity into a
// shocked equity volatility. The mode is fixed at construction.
type VolShockRule struct {
	mode  VolMode
	gamma float64
}

// NewVolShockRule builds a rule, failing with model.ErrConfiguration for an
// unknown mode or a non-finite gamma.
func NewVolShockRule(mode string, gamma float64) (VolShockRule, error) {
	m := VolMode(mode)
	switch m {
	case VolModeNone, VolModeLinear:
	default:
		return VolShockRule{}, eris.Wrapf(model.ErrConfiguration, "scenario: unknown volatility mode %q (want none or linear)", mode)
	}
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return VolShockRule{}, eris.Wrap(model.ErrConfiguration, "scenario: volatility gamma must be finite")
	}
	return VolShockRule{mode: m, gamma: gamma}, nil
}

// DefaultVolShockRule returns the linear rule with gamma 0.5.
func DefaultVolShockRule() VolShockRule {
	return VolShockRule{mode: VolModeLinear, gamma: DefaultGamma}
}

// Mode returns the configured mode.
func (r VolShockRule) Mode() VolMode { return r.mode }

// Gamma returns the configured sensitivity.
func (r VolShockRule) Gamma() float64 { return r.gamma }

// Apply returns the shocked volatility. Negative severities give no uplift.
func (r VolShockRule) Apply(vol float64, severity int) float64 {
	if r.mode != VolModeLinear {
		return vol
	}
	frac := math.Max(float64(severity), 0) / 100.0
	return math.Max(vol*(1.0+r.gamma*frac), volFloor)
}
