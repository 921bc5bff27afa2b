package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "credit-stress",
	Short: "Structural credit-risk solver and scenario stress engine",
	Long: `Recovers firm asset value and asset volatility from observed equity with the
Merton/KMV structural model, derives distance-to-default and default
probability, and re-solves each firm under scenario-driven equity shocks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
