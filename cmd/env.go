package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/config"
	"github.com/sells-group/credit-stress/internal/engine"
	"github.com/sells-group/credit-stress/internal/fetcher"
	"github.com/sells-group/credit-stress/internal/kmv"
	"github.com/sells-group/credit-stress/internal/scenario"
)

// stressEnv holds the components built from configuration that the stress
// and serve commands share.
type stressEnv struct {
	Engine     *engine.Engine
	Scenarios  scenario.Set
	Severities []int
}

// initStressEnv builds the solver, volatility rule, policy and scenario set
// from an already validated configuration.
func initStressEnv(c *config.Config) (*stressEnv, error) {
	rule, err := scenario.NewVolShockRule(c.Stress.VolMode, c.Stress.Gamma)
	if err != nil {
		return nil, err
	}
	policy, err := engine.ParsePolicy(c.Stress.NonConvergence)
	if err != nil {
		return nil, err
	}
	set, err := scenario.Load(c.Stress.ScenariosFile)
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.Options{
		Solver: kmv.NewSolver(kmv.Options{
			Tolerance: c.Solver.Tolerance,
			MaxIter:   c.Solver.MaxIter,
		}),
		VolRule:     &rule,
		Policy:      policy,
		Concurrency: c.Stress.Concurrency,
		Logger:      zap.L(),
	})

	severities := c.Stress.Severities
	if len(severities) == 0 {
		severities = scenario.DefaultSeverities()
	}

	zap.L().Debug("stress environment ready",
		zap.Strings("scenarios", set.Names()),
		zap.Ints("severities", severities),
		zap.String("vol_mode", string(rule.Mode())),
		zap.Float64("gamma", rule.Gamma()),
		zap.String("policy", string(policy)),
	)

	return &stressEnv{Engine: eng, Scenarios: set, Severities: severities}, nil
}

func newOpener(c config.FetchConfig) *fetcher.Opener {
	return fetcher.NewOpener(fetcher.Options{
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	})
}
