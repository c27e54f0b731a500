package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/prakaa/dispatchsim/core/model"
)

// report prints a human-readable summary of the solution.
func (r *Runner) report(sol *model.DispatchSolution) {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tOUTPUT (MW)\tRESERVE (MW)\tCOMMITTED")
	for _, g := range sol.Generators {
		committed := "-"
		if g.Committed != nil {
			committed = fmt.Sprintf("%t", *g.Committed)
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\n", g.ID, g.Output, g.Reserve, committed)
	}
	for _, res := range sol.Resources {
		fmt.Fprintf(w, "%s\t%.2f\t-\t-\n", res.ID, res.Injection)
		if res.Spillage > 0 {
			fmt.Fprintf(w, "%s (spill)\t%.2f\t-\t-\n", res.ID, res.Spillage)
		}
	}
	w.Flush()

	fmt.Fprintf(r.out, "total cost: %.2f\n", sol.TotalCost)
	if sol.EnergyPrice != nil {
		fmt.Fprintf(r.out, "energy price: %.2f\n", *sol.EnergyPrice)
	} else {
		fmt.Fprintln(r.out, "energy price: unavailable")
	}
	if sol.ReservePrice != nil {
		fmt.Fprintf(r.out, "reserve price: %.2f\n", *sol.ReservePrice)
	}
}
