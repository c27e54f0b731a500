package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-solve the scenario over a demand range and print the price curve",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "demand at the start of the range (MW)")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0, "demand at the end of the range (MW)")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of demand steps")
	_ = sweepCmd.MarkFlagRequired("from")
	_ = sweepCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	runner, ctx, stop, err := newRunner()
	if err != nil {
		return err
	}
	defer stop()

	points, err := runner.RunSweep(ctx, sweepFrom, sweepTo, sweepSteps)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEMAND (MW)\tTOTAL COST\tENERGY PRICE")
	for _, p := range points {
		price := "unavailable"
		if p.EnergyPrice != nil {
			price = fmt.Sprintf("%.2f", *p.EnergyPrice)
		}
		fmt.Fprintf(w, "%.2f\t%.2f\t%s\n", p.Demand, p.TotalCost, price)
	}
	return w.Flush()
}
