// Package scenario maps stress severities to equity and volatility shocks:
// per-scenario impact tables with piecewise-linear interpolation and
// extrapolation, ordered scenario sets, and the volatility shock rule.
package scenario

import (
	"bytes"
	"cmp"
	"encoding/json"
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/credit-stress/internal/model"
)

// Point is one (severity threshold, Impact) pair of a scenario table.
type Point struct {
	Threshold    int `json:"threshold" yaml:"threshold"`
	model.Impact `yaml:",inline"`
}

// ScenarioMap is an impact table ordered ascending by threshold.
// Build one with NewScenarioMap; the zero value is not usable.
type ScenarioMap struct {
	points []Point
}

// NewScenarioMap validates and orders a set of points. It fails with
// model.ErrConfiguration when fewer than two points are given or a
// threshold repeats.
func NewScenarioMap(points []Point) (ScenarioMap, error) {
	if len(points) < 2 {
		return ScenarioMap{}, eris.Wrapf(model.ErrConfiguration, "scenario: table needs at least 2 thresholds, got %d", len(points))
	}

	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b Point) int { return cmp.Compare(a.Threshold, b.Threshold) })

	for i, p := range sorted {
		if !finite(p.ProfitDeclinePct) || !finite(p.MCapDeclinePct) {
			return ScenarioMap{}, eris.Wrapf(model.ErrConfiguration, "scenario: threshold %d has a non-finite impact", p.Threshold)
		}
		if i > 0 && p.Threshold == sorted[i-1].Threshold {
			return ScenarioMap{}, eris.Wrapf(model.ErrConfiguration, "scenario: duplicate threshold %d", p.Threshold)
		}
	}

	return ScenarioMap{points: sorted}, nil
}

// MustScenarioMap is NewScenarioMap for static tables known to be valid.
func MustScenarioMap(points []Point) ScenarioMap {
	m, err := NewScenarioMap(points)
	if err != nil {
		panic(err)
	}
	return m
}

// Points returns a copy of the ordered points.
func (m ScenarioMap) Points() []Point {
	return slices.Clone(m.points)
}

// Thresholds returns the ordered thresholds.
func (m ScenarioMap) Thresholds() []int {
	out := make([]int, len(m.points))
	for i, p := range m.points {
		out[i] = p.Threshold
	}
	return out
}

// Len returns the number of thresholds.
func (m ScenarioMap) Len() int {
	return len(m.points)
}

// Lookup returns the Impact for a severity.
//
// An exact threshold returns the stored Impact unchanged. Severities below
// the smallest or above the largest threshold are extrapolated along the
// line through the two nearest thresholds. Anything else is interpolated
// between the first bracketing pair. Interpolated fields are rounded to
// two decimal places.
func (m ScenarioMap) Lookup(severity int) model.Impact {
	pts := m.points
	n := len(pts)
	if n < 2 {
		// Unreachable through NewScenarioMap.
		return model.Impact{}
	}

	for _, p := range pts {
		if p.Threshold == severity {
			return p.Impact
		}
	}

	var lo, hi Point
	switch {
	case severity < pts[0].Threshold:
		lo, hi = pts[0], pts[1]
	case severity > pts[n-1].Threshold:
		lo, hi = pts[n-2], pts[n-1]
	default:
		for i := 0; i < n-1; i++ {
			if pts[i].Threshold <= severity && severity <= pts[i+1].Threshold {
				lo, hi = pts[i], pts[i+1]
				break
			}
		}
	}

	x := float64(severity)
	return model.Impact{
		ProfitDeclinePct: round2(interp(lo.Threshold, hi.Threshold, lo.ProfitDeclinePct, hi.ProfitDeclinePct, x)),
		MCapDeclinePct:   round2(interp(lo.Threshold, hi.Threshold, lo.MCapDeclinePct, hi.MCapDeclinePct, x)),
	}
}

// Lookup is the free-function form of ScenarioMap.Lookup.
func Lookup(severity int, m ScenarioMap) model.Impact {
	return m.Lookup(severity)
}

// MarshalJSON encodes the table as its ordered point list.
func (m ScenarioMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.points)
}

// UnmarshalJSON decodes and validates an ordered point list.
func (m *ScenarioMap) UnmarshalJSON(data []byte) error {
	var pts []Point
	if err := decodeStrict(data, &pts); err != nil {
		return eris.Wrapf(model.ErrConfiguration, "scenario: decode table: %v", err)
	}
	built, err := NewScenarioMap(pts)
	if err != nil {
		return err
	}
	*m = built
	return nil
}

// decodeStrict unmarshals data rejecting unknown object keys.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// interp evaluates the line through (x0, y0) and (x1, y1) at x.
func interp(x0, x1 int, y0, y1, x float64) float64 {
	return y0 + (y1-y0)*(x-float64(x0))/(float64(x1)-float64(x0))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// exactExp is fine enough to carry the binary value of any realistic
// impact percentage past the second decimal place without re-rounding.
const exactExp = -30

// round2 rounds the binary value of v half-to-even at two decimal places.
// The nearest double to 0.005 lies above the tie and rounds up; the one
// nearest 0.015 lies below it and rounds down.
func round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, exactExp).RoundBank(2).InexactFloat64()
}
