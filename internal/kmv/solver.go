// Package kmv implements the Merton/KMV structural credit model: recovering
// asset value and asset volatility from equity data, and the distance-to-default
// and default probability built on that state.
package kmv

import (
	"math"

	"github.com/sells-group/credit-stress/internal/model"
)

const (
	// DefaultTolerance is the step size below which both unknowns are considered settled.
	DefaultTolerance = 1e-7
	// DefaultMaxIter bounds the number of solver steps per invocation.
	DefaultMaxIter = 200

	// ValueFloor keeps asset value, asset volatility and Jacobian terms strictly positive.
	ValueFloor = 1e-6
	// equityFloor guards the implied-equity denominator.
	equityFloor = 1e-8
	// logFloor guards the log argument when an iterate of V goes non-positive.
	logFloor = 1e-12
)

// Options configures the solver. Zero values fall back to the defaults.
type Options struct {
	Tolerance float64
	MaxIter   int
}

// Solver recovers (V, sigmaV) from (E, sigmaE) by treating equity as a
// European call on the firm's assets struck at the debt face value.
type Solver struct {
	opts Options
}

// NewSolver creates a Solver with the given options.
func NewSolver(opts Options) *Solver {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	return &Solver{opts: opts}
}

// Options returns the effective solver options.
func (s *Solver) Options() Options {
	return s.opts
}

// InitialGuess returns the starting point V0 = E + D, sigmaV0 = 0.8 * sigmaE.
func InitialGuess(equity, equityVol, debt float64) model.SolverState {
	return model.SolverState{
		AssetValue: equity + debt,
		AssetVol:   floor(0.8*equityVol, ValueFloor),
	}
}

// Solve runs the solver from the naive equity-plus-debt starting point.
func (s *Solver) Solve(equity, equityVol, debt, rate, horizon float64) model.SolverState {
	return s.SolveFrom(equity, equityVol, debt, rate, horizon, InitialGuess(equity, equityVol, debt))
}

// SolveFrom runs the solver from an explicit seed.
//
// Each step is a quasi-Newton update on the two residuals
//
//	f1 = V*N(d1) - D*exp(-rT)*N(d2) - E
//	f2 = N(d1)*V/Equity*sigmaV - sigmaE
//
// with diagonal Jacobian approximations dEquity/dV = N(d1) and
// dsigmaE/dsigmaV = N(d1)*V/Equity, each floored away from zero.
// The last iterate is returned whether or not the tolerance was met;
// Converged and Iterations report which.
func (s *Solver) SolveFrom(equity, equityVol, debt, rate, horizon float64, seed model.SolverState) model.SolverState {
	v := floor(seed.AssetValue, ValueFloor)
	sv := floor(seed.AssetVol, ValueFloor)
	discountedDebt := debt * math.Exp(-rate*horizon)

	var (
		iter      int
		converged bool
	)
	for iter < s.opts.MaxIter {
		iter++

		d1, d2 := dTerms(v, sv, debt, rate, horizon)
		n1 := Phi(d1)
		n2 := Phi(d2)

		impliedEquity := v*n1 - discountedDebt*n2
		leverage := n1 * v / math.Max(impliedEquity, equityFloor)

		f1 := impliedEquity - equity
		f2 := leverage*sv - equityVol

		j11 := math.Max(n1, ValueFloor)
		j22 := math.Max(leverage, ValueFloor)

		vNext := v - f1/j11
		svNext := sv - f2/j22

		settled := math.Abs(vNext-v) < s.opts.Tolerance && math.Abs(svNext-sv) < s.opts.Tolerance
		v, sv = vNext, svNext
		if settled {
			converged = true
			break
		}
	}

	return model.SolverState{
		AssetValue: floor(v, ValueFloor),
		AssetVol:   floor(sv, ValueFloor),
		Converged:  converged,
		Iterations: iter,
	}
}

// ImpliedEquity prices equity as a call on assets; used to check a solved state.
func ImpliedEquity(assetValue, assetVol, debt, rate, horizon float64) float64 {
	d1, d2 := dTerms(assetValue, assetVol, debt, rate, horizon)
	return assetValue*Phi(d1) - debt*math.Exp(-rate*horizon)*Phi(d2)
}

// ImpliedEquityVol is the equity volatility implied by an asset state.
func ImpliedEquityVol(assetValue, assetVol, debt, rate, horizon float64) float64 {
	d1, _ := dTerms(assetValue, assetVol, debt, rate, horizon)
	eq := ImpliedEquity(assetValue, assetVol, debt, rate, horizon)
	return Phi(d1) * assetValue / math.Max(eq, equityFloor) * assetVol
}

// dTerms returns the Black-Scholes d1 and d2 for assets V struck at D.
func dTerms(v, sv, debt, rate, horizon float64) (float64, float64) {
	volSqrtT := sv * math.Sqrt(horizon)
	d1 := (math.Log(math.Max(v, logFloor)/debt) + (rate+0.5*sv*sv)*horizon) / volSqrtT
	return d1, d1 - volSqrtT
}

// floor clamps x to at least lo, mapping NaN to lo as well.
func floor(x, lo float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	return x
}
