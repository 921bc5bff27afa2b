package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/config"
	"github.com/sells-group/credit-stress/internal/firmdata"
	"github.com/sells-group/credit-stress/internal/model"
	"github.com/sells-group/credit-stress/internal/report"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run firms through baseline and every stress scenario",
	Long: `Solve each firm at baseline, then re-solve it under every scenario and
non-zero severity with the scenario's assumed market-cap decline applied to
equity and the volatility rule applied to equity volatility.

Firm data may be a local path or an http(s), ftp or file URL in CSV, JSON,
XML or XLSX. The format is inferred from the extension unless --format is set.

Examples:
  # Stress the built-in three-firm sample with the default scenarios
  stress --sample

  # Stress firms from a spreadsheet and write a workbook
  stress --firms firms.xlsx --sheet Inputs --output-format xlsx --output run.xlsx

  # Custom scenarios, severities and a flat volatility rule
  stress --firms https://example.com/firms.csv --scenarios scenarios.yaml \
    --severities 0,5,15,25 --vol-mode none --output-format json`,
	RunE: runStress,
}

func init() {
	addStressFlags(stressCmd)
	rootCmd.AddCommand(stressCmd)
}

func addStressFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("firms", "", "firm data location (path or URL)")
	f.Bool("sample", false, "use the built-in three-firm sample")
	f.String("format", "", "firm data format: csv, json, xml or xlsx (default: from extension)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.String("scenarios", "", "YAML scenario file (overrides config)")
	f.IntSlice("severities", nil, "comma-separated sales decline severities (overrides config)")
	f.String("vol-mode", "", "volatility rule: none or linear (overrides config)")
	f.Float64("gamma", 0, "linear volatility sensitivity (overrides config)")
	f.Int("concurrency", 0, "firms solved in parallel (overrides config)")
	f.String("on-nonconvergence", "", "accept, warn or reject (overrides config)")
	f.String("output-format", "table", "output format: table, csv, json, markdown or xlsx")
	f.String("output", "", "output file path (default: stdout)")
}

func runStress(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "stress"))

	applyStressOverrides(cmd, &cfg.Stress)
	if err := cfg.Validate("stress"); err != nil {
		return err
	}

	outFormatFlag, _ := cmd.Flags().GetString("output-format")
	outPath, _ := cmd.Flags().GetString("output")
	outFormat, err := report.ParseFormat(outFormatFlag)
	if err != nil {
		return err
	}
	if outFormat.Binary() && outPath == "" {
		return eris.Errorf("stress: --output is required for %s output", outFormat)
	}

	firms, err := loadFirms(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	env, err := initStressEnv(cfg)
	if err != nil {
		return eris.Wrap(err, "stress: init")
	}

	recs, err := env.Engine.Run(ctx, firms, env.Severities, env.Scenarios)
	if err != nil {
		return eris.Wrap(err, "stress: run")
	}
	run := report.NewRun(recs)

	log.Info("stress run complete",
		zap.String("run_id", run.ID),
		zap.Int("firms", len(firms)),
		zap.Int("records", len(recs)),
	)

	return writeRun(cmd.OutOrStdout(), outPath, outFormat, run)
}

// applyStressOverrides copies explicitly set flags over the loaded config.
func applyStressOverrides(cmd *cobra.Command, sc *config.StressConfig) {
	f := cmd.Flags()
	if f.Changed("scenarios") {
		sc.ScenariosFile, _ = f.GetString("scenarios")
	}
	if f.Changed("severities") {
		sc.Severities, _ = f.GetIntSlice("severities")
	}
	if f.Changed("vol-mode") {
		sc.VolMode, _ = f.GetString("vol-mode")
	}
	if f.Changed("gamma") {
		sc.Gamma, _ = f.GetFloat64("gamma")
	}
	if f.Changed("concurrency") {
		sc.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("on-nonconvergence") {
		sc.NonConvergence, _ = f.GetString("on-nonconvergence")
	}
}

func loadFirms(ctx context.Context, cmd *cobra.Command, c *config.Config) ([]model.FirmProfile, error) {
	sample, _ := cmd.Flags().GetBool("sample")
	location, _ := cmd.Flags().GetString("firms")

	switch {
	case sample && location != "":
		return nil, eris.New("stress: --firms and --sample are mutually exclusive")
	case sample:
		return model.SampleFirms(), nil
	case location == "":
		return nil, eris.New("stress: one of --firms or --sample is required")
	}

	var opts firmdata.Options
	if s, _ := cmd.Flags().GetString("format"); s != "" {
		f, err := firmdata.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	opts.Sheet, _ = cmd.Flags().GetString("sheet")

	return firmdata.NewLoader(newOpener(c.Fetch)).Load(ctx, location, opts)
}

// writeRun renders run to path, or to stdout when path is empty.
func writeRun(stdout io.Writer, path string, format report.Format, run *report.Run) error {
	if path == "" {
		return report.Write(stdout, format, run)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "stress: create %s", path)
	}
	if err := report.Write(f, format, run); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "stress: close %s", path)
	}

	zap.L().Info("report written", zap.String("path", path), zap.String("format", string(format)))
	return nil
}
