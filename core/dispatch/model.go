package dispatch

import (
	"context"
	"errors"
	"fmt"

	corelogger "github.com/prakaa/dispatchsim/core/logger"
	"github.com/prakaa/dispatchsim/core/model"
	"github.com/prakaa/dispatchsim/core/solver"
)

// ErrInfeasible indicates no dispatch satisfies the balance and capacity
// constraints. The demand is never clamped to produce a pseudo-solution.
var ErrInfeasible = errors.New("dispatch: problem infeasible")

// ErrUnbounded indicates the objective has no finite minimum.
var ErrUnbounded = errors.New("dispatch: problem unbounded")

// Model is a built dispatch problem ready to be solved. Build once with
// NewModel, then Solve; SetDemand and SetReserveRequirement update a single
// right-hand side for cheap re-solves.
type Model struct {
	gens      []model.Generator
	resources []model.VariableResource
	demand    float64
	reserve   *float64
	commit    bool

	solver solver.Interface
	log    corelogger.Logger

	prob        *solver.Problem
	genCols     []int
	reserveCols []int
	commitCols  []int
	resCols     []int
	balanceRow  int
	reserveRow  int
}

// Option customizes model construction.
type Option func(*Model)

// WithCommitment enables the unit-commitment variant with a binary on/off
// decision per generator.
func WithCommitment() Option {
	return func(m *Model) { m.commit = true }
}

// WithLogger attaches a logger to the model.
func WithLogger(l corelogger.Logger) Option {
	return func(m *Model) { m.log = l }
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// NewModel validates the inputs and builds the dispatch problem. The solver
// backend is injected; reserves are modeled when state.Reserve is set.
func NewModel(s solver.Interface, gens []model.Generator, resources []model.VariableResource, state model.SystemState, opts ...Option) (*Model, error) {
	if s == nil {
		return nil, errors.New("dispatch: nil solver")
	}
	if len(gens) == 0 && len(resources) == 0 {
		return nil, errors.New("dispatch: no generators or resources")
	}
	if state.Reserve != nil && len(gens) == 0 {
		return nil, errors.New("dispatch: reserve requirement without dispatchable generators")
	}
	for _, g := range gens {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
	}
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	m := &Model{
		gens:      gens,
		resources: resources,
		demand:    state.Demand,
		solver:    s,
		log:       nopLogger{},
	}
	if state.Reserve != nil {
		r := *state.Reserve
		m.reserve = &r
	}
	for _, opt := range opts {
		opt(m)
	}
	m.build()
	return m, nil
}

// build assembles columns and rows. Layout: generator energy columns, then
// reserve columns, then commitment columns, then resource columns.
func (m *Model) build() {
	p := &solver.Problem{}
	inf := solver.Inf()

	m.genCols = make([]int, len(m.gens))
	for i, g := range m.gens {
		lower, upper := g.PMin, g.PMax
		if m.commit {
			// Commitment coupling rows enforce the minimum when the
			// unit is on; the column itself allows zero when off.
			lower = 0
		}
		m.genCols[i] = len(p.Columns)
		p.Columns = append(p.Columns, solver.Column{
			Name:  "energy/" + g.ID,
			Cost:  g.EnergyCost,
			Lower: lower,
			Upper: upper,
		})
	}
	if m.reserve != nil {
		m.reserveCols = make([]int, len(m.gens))
		for i, g := range m.gens {
			m.reserveCols[i] = len(p.Columns)
			p.Columns = append(p.Columns, solver.Column{
				Name:  "reserve/" + g.ID,
				Cost:  g.ReserveCost,
				Lower: 0,
				Upper: g.ReserveRange(),
			})
		}
	}
	if m.commit {
		m.commitCols = make([]int, len(m.gens))
		for i, g := range m.gens {
			m.commitCols[i] = len(p.Columns)
			p.Columns = append(p.Columns, solver.Column{
				Name:  "commit/" + g.ID,
				Lower: 0,
				Upper: 1,
				Type:  solver.Binary,
			})
		}
	}
	m.resCols = make([]int, len(m.resources))
	for j, r := range m.resources {
		m.resCols[j] = len(p.Columns)
		p.Columns = append(p.Columns, solver.Column{
			Name:  "injection/" + r.ID,
			Cost:  r.EnergyCost,
			Lower: 0,
			Upper: r.Forecast,
		})
	}

	// Energy balance. The row dual is the energy price.
	balance := solver.Row{Name: "balance", Lower: m.demand, Upper: m.demand, WantDual: true}
	for _, c := range m.genCols {
		balance.Coeffs = append(balance.Coeffs, solver.Coef{Col: c, Value: 1})
	}
	for _, c := range m.resCols {
		balance.Coeffs = append(balance.Coeffs, solver.Coef{Col: c, Value: 1})
	}
	m.balanceRow = len(p.Rows)
	p.Rows = append(p.Rows, balance)

	// Reserve balance.
	if m.reserve != nil {
		row := solver.Row{Name: "reserve", Lower: *m.reserve, Upper: *m.reserve, WantDual: true}
		for _, c := range m.reserveCols {
			row.Coeffs = append(row.Coeffs, solver.Coef{Col: c, Value: 1})
		}
		m.reserveRow = len(p.Rows)
		p.Rows = append(p.Rows, row)
	}

	// Capacity coupling.
	for i, g := range m.gens {
		switch {
		case m.commit:
			// g (+ r) - PMax*u <= 0
			coeffs := []solver.Coef{{Col: m.genCols[i], Value: 1}}
			if m.reserve != nil {
				coeffs = append(coeffs, solver.Coef{Col: m.reserveCols[i], Value: 1})
			}
			coeffs = append(coeffs, solver.Coef{Col: m.commitCols[i], Value: -g.PMax})
			p.Rows = append(p.Rows, solver.Row{
				Name:   "cap/" + g.ID,
				Lower:  -inf,
				Upper:  0,
				Coeffs: coeffs,
			})
			// g - PMin*u >= 0
			p.Rows = append(p.Rows, solver.Row{
				Name:  "floor/" + g.ID,
				Lower: 0,
				Upper: inf,
				Coeffs: []solver.Coef{
					{Col: m.genCols[i], Value: 1},
					{Col: m.commitCols[i], Value: -g.PMin},
				},
			})
			if m.reserve != nil {
				// r - (PMax-PMin)*u <= 0: no reserve from offline units.
				p.Rows = append(p.Rows, solver.Row{
					Name:  "resrange/" + g.ID,
					Lower: -inf,
					Upper: 0,
					Coeffs: []solver.Coef{
						{Col: m.reserveCols[i], Value: 1},
						{Col: m.commitCols[i], Value: -g.ReserveRange()},
					},
				})
			}
		case m.reserve != nil:
			// g + r <= PMax
			p.Rows = append(p.Rows, solver.Row{
				Name:  "cap/" + g.ID,
				Lower: -inf,
				Upper: g.PMax,
				Coeffs: []solver.Coef{
					{Col: m.genCols[i], Value: 1},
					{Col: m.reserveCols[i], Value: 1},
				},
			})
		}
	}

	m.prob = p
}

// Demand returns the current demand forecast.
func (m *Model) Demand() float64 { return m.demand }

// ReserveRequirement returns the current reserve requirement and whether
// reserves are modeled.
func (m *Model) ReserveRequirement() (float64, bool) {
	if m.reserve == nil {
		return 0, false
	}
	return *m.reserve, true
}

// Commitment reports whether the unit-commitment variant is active.
func (m *Model) Commitment() bool { return m.commit }

// SetDemand updates the energy balance right-hand side for a re-solve.
func (m *Model) SetDemand(d float64) error {
	if d < 0 {
		return fmt.Errorf("dispatch: negative demand %v", d)
	}
	m.demand = d
	m.prob.Rows[m.balanceRow].Lower = d
	m.prob.Rows[m.balanceRow].Upper = d
	return nil
}

// SetReserveRequirement updates the reserve balance right-hand side.
func (m *Model) SetReserveRequirement(r float64) error {
	if m.reserve == nil {
		return errors.New("dispatch: model built without reserves")
	}
	if r < 0 {
		return fmt.Errorf("dispatch: negative reserve requirement %v", r)
	}
	*m.reserve = r
	m.prob.Rows[m.reserveRow].Lower = r
	m.prob.Rows[m.reserveRow].Upper = r
	return nil
}

// Solve submits the problem to the backend and extracts the solution.
// Infeasible and unbounded outcomes surface as ErrInfeasible and
// ErrUnbounded; any other non-optimal status is reported verbatim.
func (m *Model) Solve(ctx context.Context) (*model.DispatchSolution, error) {
	sol, err := m.solver.Solve(ctx, m.prob)
	if err != nil {
		return nil, fmt.Errorf("dispatch: solve: %w", err)
	}
	switch sol.Status {
	case solver.StatusOptimal:
	case solver.StatusInfeasible:
		m.log.Warnf("dispatch infeasible at demand %.3f", m.demand)
		return nil, ErrInfeasible
	case solver.StatusUnbounded:
		return nil, ErrUnbounded
	default:
		return nil, fmt.Errorf("dispatch: solver status %s", sol.Status)
	}
	return m.extract(sol), nil
}

func (m *Model) extract(sol *solver.Solution) *model.DispatchSolution {
	out := &model.DispatchSolution{TotalCost: sol.Objective}

	out.Generators = make([]model.GeneratorDispatch, len(m.gens))
	for i, g := range m.gens {
		gd := model.GeneratorDispatch{
			ID:     g.ID,
			Output: clamp(sol.Value(m.genCols[i]), 0, g.PMax),
		}
		if m.reserve != nil {
			gd.Reserve = clamp(sol.Value(m.reserveCols[i]), 0, g.ReserveRange())
		}
		if m.commit {
			on := sol.Value(m.commitCols[i]) > 0.5
			gd.Committed = &on
		}
		out.Generators[i] = gd
	}
	out.Resources = make([]model.ResourceDispatch, len(m.resources))
	for j, r := range m.resources {
		w := clamp(sol.Value(m.resCols[j]), 0, r.Forecast)
		out.Resources[j] = model.ResourceDispatch{
			ID:        r.ID,
			Injection: w,
			Spillage:  r.Forecast - w,
		}
	}

	// Prices stay nil whenever the backend could not produce the dual:
	// integer variables present, or a requirement pinned so tightly that no
	// finite marginal exists. A missing price is never replaced with zero.
	if energy, ok := sol.Dual(m.balanceRow); ok {
		out.EnergyPrice = &energy
	}
	if m.reserve != nil {
		if reserve, ok := sol.Dual(m.reserveRow); ok {
			out.ReservePrice = &reserve
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
