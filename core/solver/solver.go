// Package solver defines the narrow protocol between dispatch model builders
// and an external linear-programming backend: variable bounds, linear
// constraint coefficients, objective coefficients and variable domains go in;
// a termination status, primal values and (for continuous problems) row duals
// come back.
package solver

import (
	"context"
	"math"
)

// VarType selects the domain of a decision variable.
type VarType int

const (
	// Continuous variables can take any value within their bounds.
	Continuous VarType = iota
	// Binary variables are restricted to {0, 1}. Their presence makes the
	// problem a mixed-integer program and disables dual values.
	Binary
)

// Column describes one decision variable of the problem.
type Column struct {
	Name  string
	Cost  float64 // objective coefficient, always minimized
	Lower float64
	Upper float64
	Type  VarType
}

// Coef is a single nonzero entry of a constraint row.
type Coef struct {
	Col   int
	Value float64
}

// Row describes one linear constraint. Equal bounds encode an equality; an
// infinite bound leaves that side unconstrained.
type Row struct {
	Name   string
	Coeffs []Coef
	Lower  float64
	Upper  float64

	// WantDual requests the shadow price of this row. Recovery costs one
	// extra solve per requested row, so only price-setting rows should ask.
	WantDual bool
}

// Equality reports whether the row is an equality constraint.
func (r Row) Equality() bool { return r.Lower == r.Upper }

// Problem is a complete minimization program in general form.
type Problem struct {
	Columns []Column
	Rows    []Row
}

// NumBinary counts binary columns.
func (p *Problem) NumBinary() int {
	n := 0
	for _, c := range p.Columns {
		if c.Type == Binary {
			n++
		}
	}
	return n
}

// Status is the termination status reported by the backend.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Solution contains the results from solving a problem.
type Solution struct {
	Status Status

	// ColValues contains the primal value of each column. Only populated
	// when Status is StatusOptimal.
	ColValues []float64

	// RowDuals contains the shadow price of each row: the change in
	// objective per unit relaxation of the row's right-hand side. Only
	// populated for purely continuous problems, and only meaningful where
	// RowDualKnown is true.
	RowDuals []float64

	// RowDualKnown flags the rows whose dual was actually recovered. A
	// requested dual can stay unknown when the row cannot be relaxed in
	// either direction, e.g. a requirement pinned against fixed bounds.
	RowDualKnown []bool

	// DualsAvailable reports whether duals are defined for this problem at
	// all. It is always false when the problem contains binary columns.
	DualsAvailable bool

	// Objective is the objective value at the solution.
	Objective float64
}

// IsOptimal returns true if the solution is proven optimal.
func (s *Solution) IsOptimal() bool { return s.Status == StatusOptimal }

// Dual returns the recovered shadow price of a row. The second return is
// false when duals are undefined for the problem, the row never requested
// one, or recovery failed; callers must not substitute a price in that case.
func (s *Solution) Dual(row int) (float64, bool) {
	if !s.DualsAvailable || row < 0 || row >= len(s.RowDualKnown) || !s.RowDualKnown[row] {
		return 0, false
	}
	return s.RowDuals[row], true
}

// Value returns the primal value for a column by index, 0 if out of range.
func (s *Solution) Value(index int) float64 {
	if index < 0 || index >= len(s.ColValues) {
		return 0
	}
	return s.ColValues[index]
}

// Interface is implemented by solver backends.
type Interface interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// Inf is a convenience for unconstrained bounds.
func Inf() float64 { return math.Inf(1) }
