package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prakaa/dispatchsim/app"
	"github.com/prakaa/dispatchsim/config"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Solve the scenario as a unit-commitment problem",
	Long: "Solve the configured scenario with a binary on/off decision per " +
		"generator. Shadow prices are not reported for this variant.",
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Scenario.Commitment = true
	runner, err := app.New(cfg)
	if err != nil {
		return err
	}
	_, err = runner.Run(ctx)
	return err
}
