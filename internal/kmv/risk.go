package kmv

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sells-group/credit-stress/internal/model"
)

// Phi is the standard normal cumulative distribution function.
func Phi(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// DistanceToDefault returns d2 for a solved asset state.
func DistanceToDefault(assetValue, assetVol, debt, rate, horizon float64) float64 {
	_, d2 := dTerms(assetValue, assetVol, debt, rate, horizon)
	return d2
}

// ComputeRisk derives DD and PD = N(-DD) from a solved asset state and the
// same debt, rate and horizon used to produce it.
func ComputeRisk(assetValue, assetVol, debt, rate, horizon float64) model.RiskResult {
	dd := DistanceToDefault(assetValue, assetVol, debt, rate, horizon)
	return model.RiskResult{
		DistanceToDefault:    dd,
		ProbabilityOfDefault: Phi(-dd),
	}
}

// Evaluate solves a firm's asset state and computes its risk in one call.
func (s *Solver) Evaluate(f model.FirmProfile) (model.SolverState, model.RiskResult) {
	state := s.Solve(f.EquityValue, f.EquityVol, f.DebtFace, f.RiskFreeRate, f.HorizonYears)
	risk := ComputeRisk(state.AssetValue, state.AssetVol, f.DebtFace, f.RiskFreeRate, f.HorizonYears)
	return state, risk
}
