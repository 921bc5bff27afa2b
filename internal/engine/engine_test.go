package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/credit-stress/internal/kmv"
	"github.com/sells-group/credit-stress/internal/model"
	"github.com/sells-group/credit-stress/internal/scenario"
)

func runDefault(t *testing.T, opts Options) []model.ResultRecord {
	t.Helper()
	recs, err := New(opts).Run(context.Background(), model.SampleFirms(), scenario.DefaultSeverities(), scenario.Default())
	require.NoError(t, err)
	return recs
}

func TestRun_RecordCountAndOrder(t *testing.T) {
	recs := runDefault(t, Options{})

	// 3 firms x (baseline + 3 scenarios x 3 non-zero severities).
	require.Len(t, recs, 30)

	var got []string
	for _, r := range recs[:10] {
		got = append(got, r.Scenario)
		assert.Equal(t, "FirmA", r.Firm)
	}
	assert.Equal(t, []string{
		"Baseline",
		"Base", "Base", "Base",
		"Light", "Light", "Light",
		"Severe", "Severe", "Severe",
	}, got)

	sevs := []int{recs[1].Severity, recs[2].Severity, recs[3].Severity}
	assert.Equal(t, []int{10, 20, 30}, sevs)

	assert.Equal(t, "FirmB", recs[10].Firm)
	assert.Equal(t, model.ScenarioBaseline, recs[10].Scenario)
	assert.Equal(t, "FirmC", recs[20].Firm)
}

func TestRun_FirmAEndToEnd(t *testing.T) {
	recs := runDefault(t, Options{})

	base := recs[0]
	assert.True(t, base.IsBaseline())
	assert.Equal(t, 0, base.Severity)
	assert.Nil(t, base.Impact)
	assert.Equal(t, 100.0, base.EquityValue)
	assert.Equal(t, 0.3, base.EquityVol)
	assert.True(t, base.State.Converged)

	shocked := recs[1]
	assert.Equal(t, "Base", shocked.Scenario)
	assert.Equal(t, 10, shocked.Severity)
	require.NotNil(t, shocked.Impact)
	assert.Equal(t, 15.0, shocked.Impact.MCapDeclinePct)
	assert.Equal(t, 20.0, shocked.Impact.ProfitDeclinePct)
	assert.InDelta(t, 85.0, shocked.EquityValue, 1e-12)
	assert.InDelta(t, 0.315, shocked.EquityVol, 1e-12)
	assert.Greater(t, shocked.Risk.ProbabilityOfDefault, base.Risk.ProbabilityOfDefault)

	// The record carries exactly what a fresh solve on the shocked inputs gives.
	s := kmv.NewSolver(kmv.Options{})
	state := s.Solve(85, 0.315, 80, 0.01, 1)
	assert.InDelta(t, state.AssetValue, shocked.State.AssetValue, 1e-12)
	assert.InDelta(t, state.AssetVol, shocked.State.AssetVol, 1e-12)
}

func TestRun_FloorsOnEveryRecord(t *testing.T) {
	for _, r := range runDefault(t, Options{}) {
		assert.GreaterOrEqual(t, r.State.AssetValue, kmv.ValueFloor)
		assert.GreaterOrEqual(t, r.State.AssetVol, kmv.ValueFloor)
		assert.GreaterOrEqual(t, r.Risk.ProbabilityOfDefault, 0.0)
		assert.LessOrEqual(t, r.Risk.ProbabilityOfDefault, 1.0)
	}
}

func TestRun_PDMonotonicInSeverity(t *testing.T) {
	curves := Curves(runDefault(t, Options{}))
	require.Len(t, curves, 9)
	for _, c := range curves {
		assert.True(t, Monotonic(c), "%s/%s PD should not fall with severity", c.Firm, c.Scenario)
	}
}

func TestRun_DeterministicAcrossConcurrency(t *testing.T) {
	serial := runDefault(t, Options{Concurrency: 1})
	parallel := runDefault(t, Options{Concurrency: 8})
	assert.Equal(t, serial, parallel)
}

func TestRun_SeverityHandling(t *testing.T) {
	firm := model.SampleFirms()[:1]
	recs, err := New(Options{}).Run(context.Background(), firm, []int{0, 35, 0, 5}, scenario.Default())
	require.NoError(t, err)

	// Zero is skipped for scenarios; caller order is kept.
	require.Len(t, recs, 1+3*2)
	assert.Equal(t, 35, recs[1].Severity)
	assert.Equal(t, 5, recs[2].Severity)
	assert.InDelta(t, 52.5, recs[1].Impact.MCapDeclinePct, 1e-9)
	assert.InDelta(t, 7.5, recs[2].Impact.MCapDeclinePct, 1e-9)
}

func TestRun_NegativeSeverityGetsNoVolUplift(t *testing.T) {
	firm := model.SampleFirms()[:1]
	recs, err := New(Options{}).Run(context.Background(), firm, []int{-10}, scenario.Default())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, 0.3, recs[1].EquityVol)
	// Extrapolated mcap decline is negative, so equity rises.
	assert.InDelta(t, 115, recs[1].EquityValue, 1e-9)
}

func TestRun_EquityFloor(t *testing.T) {
	set, err := scenario.NewSet(scenario.Scenario{Name: "Wipeout", Map: scenario.MustScenarioMap([]scenario.Point{
		{Threshold: 10, Impact: model.Impact{ProfitDeclinePct: 50, MCapDeclinePct: 100}},
		{Threshold: 20, Impact: model.Impact{ProfitDeclinePct: 100, MCapDeclinePct: 150}},
	})})
	require.NoError(t, err)

	recs, err := New(Options{}).Run(context.Background(), model.SampleFirms()[:1], []int{10, 20}, set)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1e-6, recs[1].EquityValue)
	assert.Equal(t, 1e-6, recs[2].EquityValue)
	assert.GreaterOrEqual(t, recs[2].State.AssetVol, kmv.ValueFloor)
}

func TestRun_VolRuleNone(t *testing.T) {
	rule, err := scenario.NewVolShockRule("none", 0.5)
	require.NoError(t, err)

	recs, err := Run(context.Background(), model.SampleFirms(), scenario.DefaultSeverities(), scenario.Default(), rule)
	require.NoError(t, err)
	for _, r := range recs {
		if r.Firm == "FirmB" {
			assert.Equal(t, 0.25, r.EquityVol)
		}
	}
}

func TestRun_InvalidFirmRejectedBeforeSolving(t *testing.T) {
	firms := model.SampleFirms()
	firms[2].EquityVol = 0

	recs, err := New(Options{}).Run(context.Background(), firms, scenario.DefaultSeverities(), scenario.Default())
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	assert.Contains(t, err.Error(), "FirmC")
}

func TestRun_EmptyInputs(t *testing.T) {
	recs, err := New(Options{}).Run(context.Background(), nil, scenario.DefaultSeverities(), scenario.Default())
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = New(Options{}).Run(context.Background(), model.SampleFirms(), nil, scenario.Default())
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Run(ctx, model.SampleFirms(), scenario.DefaultSeverities(), scenario.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_NonConvergencePolicies(t *testing.T) {
	starved := kmv.NewSolver(kmv.Options{MaxIter: 1})

	t.Run("reject", func(t *testing.T) {
		_, err := New(Options{Solver: starved, Policy: PolicyReject}).
			Run(context.Background(), model.SampleFirms(), scenario.DefaultSeverities(), scenario.Default())
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNonConvergence))
		assert.Contains(t, err.Error(), "Baseline")
	})

	t.Run("accept", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		recs, err := New(Options{Solver: starved, Policy: PolicyAccept, Logger: zap.New(core)}).
			Run(context.Background(), model.SampleFirms(), scenario.DefaultSeverities(), scenario.Default())
		require.NoError(t, err)
		require.Len(t, recs, 30)
		assert.False(t, recs[0].State.Converged)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("warn", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		recs, err := New(Options{Solver: starved, Policy: PolicyWarn, Logger: zap.New(core)}).
			Run(context.Background(), model.SampleFirms()[:1], []int{10}, scenario.Default())
		require.NoError(t, err)
		require.Len(t, recs, 4)
		assert.Equal(t, 4, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "FirmA", entry.ContextMap()["firm"])
	})
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"accept", "warn", "reject"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Policy(s), p)
	}

	_, err := ParsePolicy("ignore")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestBaseline(t *testing.T) {
	e := New(Options{})
	rec, err := e.Baseline(model.SampleFirms()[0])
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioBaseline, rec.Scenario)

	_, err = e.Baseline(model.FirmProfile{ID: "Bad"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}
