// Package solver implements the core solver protocol on top of the gonum
// simplex solver. Mixed-integer problems are handled by enumerating the
// binary columns and delegating each fixed pattern to the LP backend.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	coresolver "github.com/prakaa/dispatchsim/core/solver"
)

const (
	simplexTol = 1e-7

	// dualStep is the right-hand-side perturbation used to recover row
	// duals via re-solve. Small enough to stay within one simplex basis
	// for well-scaled problems, large enough to stay above the solver
	// tolerance.
	dualStep = 1e-6
)

// MaxBinaryColumns bounds the pattern enumeration for mixed-integer problems.
const MaxBinaryColumns = 16

// ErrTooManyBinaries is returned when a problem exceeds MaxBinaryColumns.
var ErrTooManyBinaries = errors.New("solver: too many binary columns")

// Simplex solves problems with the gonum simplex implementation.
type Simplex struct{}

// New returns a gonum-backed solver.
func New() *Simplex { return &Simplex{} }

// Solve implements coresolver.Interface.
func (s *Simplex) Solve(ctx context.Context, p *coresolver.Problem) (*coresolver.Solution, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	if p.NumBinary() == 0 {
		return s.solveContinuous(ctx, p)
	}
	return s.solveBinary(ctx, p)
}

func validate(p *coresolver.Problem) error {
	if p == nil || len(p.Columns) == 0 {
		return errors.New("solver: empty problem")
	}
	for i, c := range p.Columns {
		if c.Lower > c.Upper {
			return fmt.Errorf("solver: column %d (%s): lower bound %v above upper %v", i, c.Name, c.Lower, c.Upper)
		}
		if c.Type == coresolver.Binary && (c.Lower < 0 || c.Upper > 1) {
			return fmt.Errorf("solver: column %d (%s): binary bounds outside [0,1]", i, c.Name)
		}
	}
	for i, r := range p.Rows {
		if r.Lower > r.Upper {
			return fmt.Errorf("solver: row %d (%s): lower bound %v above upper %v", i, r.Name, r.Lower, r.Upper)
		}
		for _, cf := range r.Coeffs {
			if cf.Col < 0 || cf.Col >= len(p.Columns) {
				return fmt.Errorf("solver: row %d (%s): coefficient references column %d", i, r.Name, cf.Col)
			}
		}
	}
	if n := p.NumBinary(); n > MaxBinaryColumns {
		return fmt.Errorf("%w: %d > %d", ErrTooManyBinaries, n, MaxBinaryColumns)
	}
	return nil
}

// generalForm is the problem expressed as min c'x s.t. Gx <= h, Ax = b,
// the input form expected by lp.Convert. Column bounds become rows of G.
type generalForm struct {
	c    []float64
	g    *mat.Dense
	h    []float64
	a    *mat.Dense
	b    []float64
	nVar int
}

func buildGeneralForm(p *coresolver.Problem) generalForm {
	n := len(p.Columns)
	c := make([]float64, n)
	for i, col := range p.Columns {
		c[i] = col.Cost
	}

	var (
		gRows [][]float64
		h     []float64
		aRows [][]float64
		b     []float64
	)
	addIneq := func(coeffs []float64, rhs float64) {
		gRows = append(gRows, coeffs)
		h = append(h, rhs)
	}
	unit := func(col int, sign float64) []float64 {
		row := make([]float64, n)
		row[col] = sign
		return row
	}
	dense := func(coeffs []coresolver.Coef, sign float64) []float64 {
		row := make([]float64, n)
		for _, cf := range coeffs {
			row[cf.Col] += sign * cf.Value
		}
		return row
	}

	for i, col := range p.Columns {
		if !math.IsInf(col.Upper, 1) {
			addIneq(unit(i, 1), col.Upper)
		}
		if !math.IsInf(col.Lower, -1) {
			addIneq(unit(i, -1), -col.Lower)
		}
	}
	for _, r := range p.Rows {
		if r.Equality() {
			aRows = append(aRows, dense(r.Coeffs, 1))
			b = append(b, r.Upper)
			continue
		}
		if !math.IsInf(r.Upper, 1) {
			addIneq(dense(r.Coeffs, 1), r.Upper)
		}
		if !math.IsInf(r.Lower, -1) {
			addIneq(dense(r.Coeffs, -1), -r.Lower)
		}
	}

	gf := generalForm{c: c, h: h, b: b, nVar: n}
	if len(gRows) > 0 {
		gf.g = mat.NewDense(len(gRows), n, nil)
		for i, row := range gRows {
			gf.g.SetRow(i, row)
		}
	}
	if len(aRows) > 0 {
		gf.a = mat.NewDense(len(aRows), n, nil)
		for i, row := range aRows {
			gf.a.SetRow(i, row)
		}
	}
	return gf
}

// runSimplex converts the general form to standard form, runs the gonum
// simplex and recovers the original variables from the split representation.
func runSimplex(gf generalForm) (*coresolver.Solution, error) {
	var g, a mat.Matrix
	if gf.g != nil {
		g = gf.g
	}
	if gf.a != nil {
		a = gf.a
	}
	cStd, aStd, bStd := lp.Convert(gf.c, g, gf.h, a, gf.b)
	opt, xStd, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &coresolver.Solution{Status: coresolver.StatusInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return &coresolver.Solution{Status: coresolver.StatusUnbounded}, nil
	case err != nil:
		return nil, fmt.Errorf("solver: simplex: %w", err)
	}

	// Convert splits each free variable into a positive and a negative
	// part; the original value is their difference.
	x := make([]float64, gf.nVar)
	for i := range x {
		x[i] = xStd[i] - xStd[gf.nVar+i]
	}
	return &coresolver.Solution{
		Status:    coresolver.StatusOptimal,
		ColValues: x,
		Objective: opt,
	}, nil
}

func (s *Simplex) solveContinuous(ctx context.Context, p *coresolver.Problem) (*coresolver.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sol, err := runSimplex(buildGeneralForm(p))
	if err != nil || !sol.IsOptimal() {
		return sol, err
	}
	duals, known, err := s.rowDuals(ctx, p, sol.Objective)
	if err != nil {
		return nil, err
	}
	sol.RowDuals = duals
	sol.RowDualKnown = known
	sol.DualsAvailable = true
	return sol, nil
}

// rowDuals recovers the shadow price of each row that requested one, by the
// explicit perturb-and-re-solve operation: shift one right-hand side by
// dualStep, re-solve, and take the objective difference ratio. When relaxing
// the row in the positive direction leaves the problem infeasible the
// one-sided derivative from below is used instead. A row that cannot be
// shifted in either direction keeps RowDualKnown false: no finite marginal
// exists there, and no price is reported in its place.
func (s *Simplex) rowDuals(ctx context.Context, p *coresolver.Problem, baseObj float64) ([]float64, []bool, error) {
	duals := make([]float64, len(p.Rows))
	known := make([]bool, len(p.Rows))
	for i := range p.Rows {
		if !p.Rows[i].WantDual {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		step := dualStep * math.Max(1, math.Abs(rhsOf(p.Rows[i])))
		d, ok, err := s.dualByStep(p, i, step, baseObj)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			d, ok, err = s.dualByStep(p, i, -step, baseObj)
			if err != nil {
				return nil, nil, err
			}
		}
		if ok {
			duals[i] = d
			known[i] = true
		}
	}
	return duals, known, nil
}

func (s *Simplex) dualByStep(p *coresolver.Problem, row int, step, baseObj float64) (float64, bool, error) {
	sol, err := runSimplex(buildGeneralForm(perturbRow(p, row, step)))
	if err != nil {
		return 0, false, err
	}
	if !sol.IsOptimal() {
		return 0, false, nil
	}
	return (sol.Objective - baseObj) / step, true, nil
}

// perturbRow returns a shallow copy of the problem with one row's finite
// bounds shifted by step. Equality rows shift both sides.
func perturbRow(p *coresolver.Problem, row int, step float64) *coresolver.Problem {
	rows := make([]coresolver.Row, len(p.Rows))
	copy(rows, p.Rows)
	r := rows[row]
	if !math.IsInf(r.Lower, -1) {
		r.Lower += step
	}
	if !math.IsInf(r.Upper, 1) {
		r.Upper += step
	}
	rows[row] = r
	return &coresolver.Problem{Columns: p.Columns, Rows: rows}
}

func rhsOf(r coresolver.Row) float64 {
	if !math.IsInf(r.Upper, 1) {
		return r.Upper
	}
	if !math.IsInf(r.Lower, -1) {
		return r.Lower
	}
	return 0
}

// solveBinary enumerates assignments of the binary columns, solves the
// continuous problem for each fixed pattern and keeps the cheapest optimum.
// Duals are never reported for mixed-integer problems.
func (s *Simplex) solveBinary(ctx context.Context, p *coresolver.Problem) (*coresolver.Solution, error) {
	var binIdx []int
	for i, c := range p.Columns {
		if c.Type == coresolver.Binary {
			binIdx = append(binIdx, i)
		}
	}

	var (
		best         *coresolver.Solution
		sawUnbounded bool
	)
	for mask := 0; mask < 1<<len(binIdx); mask++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols := make([]coresolver.Column, len(p.Columns))
		copy(cols, p.Columns)
		feasiblePattern := true
		for bit, ci := range binIdx {
			v := float64((mask >> bit) & 1)
			if v < cols[ci].Lower || v > cols[ci].Upper {
				feasiblePattern = false
				break
			}
			cols[ci].Lower = v
			cols[ci].Upper = v
			cols[ci].Type = coresolver.Continuous
		}
		if !feasiblePattern {
			continue
		}
		fixed := &coresolver.Problem{Columns: cols, Rows: p.Rows}
		sol, err := runSimplex(buildGeneralForm(fixed))
		if err != nil {
			return nil, err
		}
		switch sol.Status {
		case coresolver.StatusUnbounded:
			sawUnbounded = true
		case coresolver.StatusOptimal:
			if best == nil || sol.Objective < best.Objective-simplexTol {
				vals := make([]float64, len(sol.ColValues))
				copy(vals, sol.ColValues)
				// Fixed binaries come back within solver tolerance;
				// snap them to their exact value.
				for bit, ci := range binIdx {
					vals[ci] = float64((mask >> bit) & 1)
				}
				best = &coresolver.Solution{
					Status:    coresolver.StatusOptimal,
					ColValues: vals,
					Objective: sol.Objective,
				}
			}
		}
	}

	if best != nil {
		return best, nil
	}
	if sawUnbounded {
		return &coresolver.Solution{Status: coresolver.StatusUnbounded}, nil
	}
	return &coresolver.Solution{Status: coresolver.StatusInfeasible}, nil
}
