package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/credit-stress/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Show the active scenario tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		set, err := activeScenarios(cmd)
		if err != nil {
			return err
		}

		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			data, err := scenario.Marshal(set)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENARIO\tSALES%\tPROFIT%\tMCAP%")
		for _, sc := range set.Scenarios() {
			for _, p := range sc.Map.Points() {
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", sc.Name, p.Threshold, p.ProfitDeclinePct, p.MCapDeclinePct)
			}
		}
		return tw.Flush()
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Interpolate a scenario's assumed impacts at a severity",
	Long: `Print the profit and market-cap declines a scenario assumes at a sales
decline severity. Severities between table thresholds are interpolated and
those outside the table are extrapolated from the nearest segment.

Example:
  lookup --scenario Severe --severity 35`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		set, err := activeScenarios(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("scenario")
		severity, _ := cmd.Flags().GetInt("severity")
		m, ok := set.Get(name)
		if !ok {
			return eris.Errorf("lookup: unknown scenario %q (have %v)", name, set.Names())
		}

		impact := m.Lookup(severity)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scenario:       %s\n", name)
		fmt.Fprintf(out, "Sales decline:  %d%%\n", severity)
		fmt.Fprintf(out, "Profit decline: %.2f%%\n", impact.ProfitDeclinePct)
		fmt.Fprintf(out, "MCap decline:   %.2f%%\n", impact.MCapDeclinePct)
		return nil
	},
}

func init() {
	scenariosCmd.PersistentFlags().String("scenarios", "", "YAML scenario file (overrides config)")
	scenariosCmd.Flags().Bool("yaml", false, "print the tables in scenario file format")

	lookupCmd.Flags().String("scenario", "Base", "scenario name")
	lookupCmd.Flags().Int("severity", 0, "sales decline severity in percent")

	scenariosCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func activeScenarios(cmd *cobra.Command) (scenario.Set, error) {
	path := cfg.Stress.ScenariosFile
	if f := cmd.Flag("scenarios"); f != nil && f.Changed {
		path = f.Value.String()
	}
	return scenario.Load(path)
}
