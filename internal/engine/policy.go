package engine

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/model"
)

// Policy decides what happens when a solve exhausts its iteration budget.
type Policy string

const (
	// PolicyAccept keeps non-converged results without comment.
	PolicyAccept Policy = "accept"
	// PolicyWarn keeps non-converged results and logs a warning for each.
	PolicyWarn Policy = "warn"
	// PolicyReject fails the run with model.ErrNonConvergence.
	PolicyReject Policy = "reject"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyAccept, PolicyWarn, PolicyReject:
		return p, nil
	default:
		return "", eris.Wrapf(model.ErrConfiguration, "engine: unknown non-convergence policy %q (want accept, warn or reject)", s)
	}
}

func (e *Engine) checkConvergence(rec model.ResultRecord) error {
	if rec.State.Converged {
		e.log.Debug("engine: solved",
			zap.String("firm", rec.Firm),
			zap.String("scenario", rec.Scenario),
			zap.Int("severity", rec.Severity),
			zap.Int("iterations", rec.State.Iterations),
			zap.Float64("pd", rec.Risk.ProbabilityOfDefault),
		)
		return nil
	}

	switch e.policy {
	case PolicyReject:
		return eris.Wrapf(model.ErrNonConvergence, "engine: firm %q scenario %q severity %d after %d iterations",
			rec.Firm, rec.Scenario, rec.Severity, rec.State.Iterations)
	case PolicyWarn:
		e.log.Warn("engine: solver did not converge, keeping last iterate",
			zap.String("firm", rec.Firm),
			zap.String("scenario", rec.Scenario),
			zap.Int("severity", rec.Severity),
			zap.Int("iterations", rec.State.Iterations),
			zap.Float64("asset_value", rec.State.AssetValue),
			zap.Float64("asset_vol", rec.State.AssetVol),
		)
	}
	return nil
}
