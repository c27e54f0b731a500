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

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "dispatchsim",
	Short: "Single-period economic dispatch and unit commitment",
	RunE:  runDispatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "scenario.yaml", "scenario file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newRunner() (*app.Runner, context.Context, context.CancelFunc, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	runner, err := app.New(cfg)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return runner, ctx, stop, nil
}

func runDispatch(cmd *cobra.Command, args []string) error {
	runner, ctx, stop, err := newRunner()
	if err != nil {
		return err
	}
	defer stop()
	_, err = runner.Run(ctx)
	return err
}
