package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/engine"
	"github.com/sells-group/credit-stress/internal/kmv"
	"github.com/sells-group/credit-stress/internal/model"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a single firm at baseline",
	Long: `Recover asset value and asset volatility for one firm and print its
distance-to-default and default probability.

Example:
  solve --equity 100 --equity-vol 0.3 --debt 80 --rate 0.01 --horizon 1`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.String("firm", "firm", "firm identifier")
	f.Float64("equity", 0, "market value of equity")
	f.Float64("equity-vol", 0, "annualized equity volatility")
	f.Float64("debt", 0, "face value of debt")
	f.Float64("rate", 0, "continuously compounded risk-free rate")
	f.Float64("horizon", 1, "horizon in years")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var firm model.FirmProfile
	firm.ID, _ = f.GetString("firm")
	firm.EquityValue, _ = f.GetFloat64("equity")
	firm.EquityVol, _ = f.GetFloat64("equity-vol")
	firm.DebtFace, _ = f.GetFloat64("debt")
	firm.RiskFreeRate, _ = f.GetFloat64("rate")
	firm.HorizonYears, _ = f.GetFloat64("horizon")

	policy, err := engine.ParsePolicy(cfg.Stress.NonConvergence)
	if err != nil {
		return err
	}
	eng := engine.New(engine.Options{
		Solver: kmv.NewSolver(kmv.Options{Tolerance: cfg.Solver.Tolerance, MaxIter: cfg.Solver.MaxIter}),
		Policy: policy,
		Logger: zap.L(),
	})

	rec, err := eng.Baseline(firm)
	if err != nil {
		return eris.Wrap(err, "solve")
	}
	state, risk := rec.State, rec.Risk

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Firm:                %s\n", firm.ID)
	fmt.Fprintf(out, "Asset value:         %.6f\n", state.AssetValue)
	fmt.Fprintf(out, "Asset volatility:    %.6f\n", state.AssetVol)
	fmt.Fprintf(out, "Converged:           %t (%d iterations)\n", state.Converged, state.Iterations)
	fmt.Fprintf(out, "Distance to default: %.6f\n", risk.DistanceToDefault)
	fmt.Fprintf(out, "Default probability: %.6e\n", risk.ProbabilityOfDefault)
	return nil
}
