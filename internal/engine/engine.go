// Package engine runs firms through the structural solver at baseline and
// under every configured stress scenario and severity.
package engine

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/credit-stress/internal/kmv"
	"github.com/sells-group/credit-stress/internal/model"
	"github.com/sells-group/credit-stress/internal/scenario"
)

const equityFloor = 1e-6

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Solver      *kmv.Solver
	VolRule     *scenario.VolShockRule
	Policy      Policy
	Concurrency int
	Logger      *zap.Logger
}

// Engine produces ResultRecords for firms under a scenario set. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	solver      *kmv.Solver
	volRule     scenario.VolShockRule
	policy      Policy
	concurrency int
	log         *zap.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		solver:      opts.Solver,
		volRule:     scenario.DefaultVolShockRule(),
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
	}
	if e.solver == nil {
		e.solver = kmv.NewSolver(kmv.Options{})
	}
	if opts.VolRule != nil {
		e.volRule = *opts.VolRule
	}
	if e.policy == "" {
		e.policy = PolicyWarn
	}
	if e.concurrency <= 0 {
		e.concurrency = 1
	}
	if e.log == nil {
		e.log = zap.L()
	}
	return e
}

// Run is the one-shot form of Engine.Run with default solver settings.
func Run(ctx context.Context, firms []model.FirmProfile, severities []int, set scenario.Set, rule scenario.VolShockRule) ([]model.ResultRecord, error) {
	return New(Options{VolRule: &rule}).Run(ctx, firms, severities, set)
}

// Run validates every firm, then emits for each firm, in input order, its
// baseline record followed by one record per scenario and non-zero
// severity (scenario-major, severity-minor). The output order does not
// depend on the configured concurrency.
func (e *Engine) Run(ctx context.Context, firms []model.FirmProfile, severities []int, set scenario.Set) ([]model.ResultRecord, error) {
	if err := model.ValidateFirms(firms); err != nil {
		return nil, eris.Wrap(err, "engine: validate firms")
	}

	slots := make([][]model.ResultRecord, len(firms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, firm := range firms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "engine: cancelled")
			}
			recs, err := e.RunFirm(firm, severities, set)
			if err != nil {
				return err
			}
			slots[i] = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	out := make([]model.ResultRecord, 0, total)
	for _, s := range slots {
		out = append(out, s...)
	}

	e.log.Debug("engine: run complete",
		zap.Int("firms", len(firms)),
		zap.Int("records", len(out)),
	)
	return out, nil
}

// RunFirm produces the records of a single, already validated firm.
func (e *Engine) RunFirm(firm model.FirmProfile, severities []int, set scenario.Set) ([]model.ResultRecord, error) {
	recs := make([]model.ResultRecord, 0, 1+set.Len()*len(severities))

	base, err := e.evaluate(firm, model.ScenarioBaseline, 0, firm.EquityValue, firm.EquityVol, nil)
	if err != nil {
		return nil, err
	}
	recs = append(recs, base)

	for _, sc := range set.Scenarios() {
		for _, sev := range severities {
			if sev == 0 {
				continue
			}
			impact := sc.Map.Lookup(sev)
			eqAdj := math.Max(firm.EquityValue*(1.0-impact.MCapDeclinePct/100.0), equityFloor)
			volAdj := e.volRule.Apply(firm.EquityVol, sev)

			rec, err := e.evaluate(firm, sc.Name, sev, eqAdj, volAdj, &impact)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
	}

	return recs, nil
}

// Baseline returns the unshocked record of a firm.
func (e *Engine) Baseline(firm model.FirmProfile) (model.ResultRecord, error) {
	if err := firm.Validate(); err != nil {
		return model.ResultRecord{}, eris.Wrap(err, "engine: validate firm")
	}
	return e.evaluate(firm, model.ScenarioBaseline, 0, firm.EquityValue, firm.EquityVol, nil)
}

func (e *Engine) evaluate(firm model.FirmProfile, scenarioName string, severity int, equity, equityVol float64, impact *model.Impact) (model.ResultRecord, error) {
	state := e.solver.Solve(equity, equityVol, firm.DebtFace, firm.RiskFreeRate, firm.HorizonYears)
	risk := kmv.ComputeRisk(state.AssetValue, state.AssetVol, firm.DebtFace, firm.RiskFreeRate, firm.HorizonYears)

	rec := model.ResultRecord{
		Firm:        firm.ID,
		Scenario:    scenarioName,
		Severity:    severity,
		EquityValue: equity,
		EquityVol:   equityVol,
		State:       state,
		Risk:        risk,
		Impact:      impact,
	}

	if err := e.checkConvergence(rec); err != nil {
		return model.ResultRecord{}, err
	}
	return rec, nil
}
