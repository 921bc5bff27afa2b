package engine

import (
	"cmp"
	"slices"

	"github.com/sells-group/credit-stress/internal/model"
)

// Curves groups records into one PD-vs-severity curve per firm and
// scenario. Curves appear in the order their first record does; points
// are sorted by severity.
func Curves(records []model.ResultRecord) []model.PDCurve {
	type key struct{ firm, scenario string }

	baseline := make(map[string]float64)
	index := make(map[key]int)
	var curves []model.PDCurve

	for _, r := range records {
		if r.IsBaseline() {
			baseline[r.Firm] = r.Risk.ProbabilityOfDefault
			continue
		}
		k := key{r.Firm, r.Scenario}
		i, ok := index[k]
		if !ok {
			i = len(curves)
			index[k] = i
			curves = append(curves, model.PDCurve{Firm: r.Firm, Scenario: r.Scenario})
		}
		curves[i].Points = append(curves[i].Points, model.CurvePoint{
			Severity: r.Severity,
			PD:       r.Risk.ProbabilityOfDefault,
		})
	}

	for i := range curves {
		curves[i].BaselinePD = baseline[curves[i].Firm]
		slices.SortStableFunc(curves[i].Points, func(a, b model.CurvePoint) int {
			return cmp.Compare(a.Severity, b.Severity)
		})
	}
	return curves
}

// Monotonic reports whether PD never decreases with severity along the curve,
// starting from the baseline PD for non-negative severities.
func Monotonic(c model.PDCurve) bool {
	prev := c.BaselinePD
	for _, p := range c.Points {
		if p.Severity < 0 {
			continue
		}
		if p.PD < prev {
			return false
		}
		prev = p.PD
	}
	return true
}
