package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakaa/dispatchsim/core/dispatch"
	"github.com/prakaa/dispatchsim/core/model"
	infrasolver "github.com/prakaa/dispatchsim/infra/solver"
)

func meritOrderGens() []model.Generator {
	return []model.Generator{
		{ID: "coal", PMax: 1000, EnergyCost: 30},
		{ID: "ccgt", PMax: 400, EnergyCost: 60},
		{ID: "peaker", PMax: 150, EnergyCost: 250},
	}
}

func wind(forecast float64) []model.VariableResource {
	return []model.VariableResource{{ID: "wind", Forecast: forecast, EnergyCost: 5}}
}

func TestDispatchBalance(t *testing.T) {
	s := infrasolver.New()
	for _, demand := range []float64{100, 650, 1200, 1850} {
		m, err := dispatch.NewModel(s, meritOrderGens(), wind(300), model.SystemState{Demand: demand})
		require.NoError(t, err)
		sol, err := m.Solve(context.Background())
		require.NoError(t, err, "demand %v", demand)
		assert.InDelta(t, demand, sol.TotalGeneration(), 1e-6, "demand %v", demand)
	}
}

func TestDispatchMeritOrder(t *testing.T) {
	s := infrasolver.New()
	m, err := dispatch.NewModel(s, meritOrderGens(), wind(300), model.SystemState{Demand: 1200})
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)

	w, _ := sol.Resource("wind")
	assert.InDelta(t, 300, w.Injection, 1e-6)
	assert.InDelta(t, 0, w.Spillage, 1e-6)
	coal, _ := sol.Generator("coal")
	assert.InDelta(t, 900, coal.Output, 1e-6)
	peaker, _ := sol.Generator("peaker")
	assert.InDelta(t, 0, peaker.Output, 1e-6)

	require.NotNil(t, sol.EnergyPrice)
	assert.InDelta(t, 30, *sol.EnergyPrice, 1e-4)
}

func TestDispatchPriceMonotonicInDemand(t *testing.T) {
	s := infrasolver.New()
	m, err := dispatch.NewModel(s, meritOrderGens(), wind(300), model.SystemState{Demand: 100})
	require.NoError(t, err)

	prev := -1.0
	for _, demand := range []float64{100, 400, 900, 1250, 1500, 1800} {
		require.NoError(t, m.SetDemand(demand))
		sol, err := m.Solve(context.Background())
		require.NoError(t, err, "demand %v", demand)
		require.NotNil(t, sol.EnergyPrice)
		assert.GreaterOrEqual(t, *sol.EnergyPrice+1e-4, prev, "demand %v", demand)
		prev = *sol.EnergyPrice
	}
}

func TestDispatchInfeasibleDemand(t *testing.T) {
	s := infrasolver.New()
	// Total capability is 1550 + 300 forecast.
	m, err := dispatch.NewModel(s, meritOrderGens(), wind(300), model.SystemState{Demand: 2000})
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrInfeasible)
	assert.Nil(t, sol, "infeasible solve must not return a clamped solution")
}

func TestDispatchDemandBelowFloors(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{{ID: "g1", PMin: 500, PMax: 1000, EnergyCost: 30}}
	m, err := dispatch.NewModel(s, gens, nil, model.SystemState{Demand: 100})
	require.NoError(t, err)
	_, err = m.Solve(context.Background())
	assert.ErrorIs(t, err, dispatch.ErrInfeasible)
}

func TestDispatchMustRunPinnedPriceUnavailable(t *testing.T) {
	s := infrasolver.New()
	// A must-run unit with PMin == PMax pins the balance exactly: the
	// dispatch is feasible but demand cannot move, so no marginal price
	// exists and none may be invented.
	gens := []model.Generator{{ID: "mustrun", PMin: 100, PMax: 100, EnergyCost: 75}}
	m, err := dispatch.NewModel(s, gens, nil, model.SystemState{Demand: 100})
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	g, _ := sol.Generator("mustrun")
	assert.InDelta(t, 100, g.Output, 1e-6)
	assert.InDelta(t, 7500, sol.TotalCost, 1e-6)
	assert.Nil(t, sol.EnergyPrice, "pinned balance has no finite marginal")
}

func TestReserveCoOptimization(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "g1", PMax: 1200, EnergyCost: 50, ReserveCost: 40},
		{ID: "g2", PMax: 800, EnergyCost: 100, ReserveCost: 80},
		{ID: "g3", PMax: 600, EnergyCost: 300, ReserveCost: 500},
	}
	res := []model.VariableResource{{ID: "wind", Forecast: 200, EnergyCost: 20}}
	m, err := dispatch.NewModel(s, gens, res, model.WithReserve(1500, 701))
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)

	// g2 backs off energy to carry the whole requirement; g3 is marginal
	// for energy.
	g1, _ := sol.Generator("g1")
	g2, _ := sol.Generator("g2")
	g3, _ := sol.Generator("g3")
	assert.InDelta(t, 1200, g1.Output, 1e-4)
	assert.InDelta(t, 99, g2.Output, 1e-4)
	assert.InDelta(t, 1, g3.Output, 1e-4)
	assert.InDelta(t, 701, g2.Reserve, 1e-4)
	assert.InDelta(t, 130280, sol.TotalCost, 1e-3)

	require.NotNil(t, sol.EnergyPrice)
	require.NotNil(t, sol.ReservePrice)
	assert.InDelta(t, 300, *sol.EnergyPrice, 1e-3)
	// Reserve price is g2's offer plus its forgone energy margin:
	// 80 + (300 - 100).
	assert.InDelta(t, 280, *sol.ReservePrice, 1e-3)
}

func TestReserveRequirementUpdate(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "g1", PMax: 500, EnergyCost: 50, ReserveCost: 10},
		{ID: "g2", PMax: 500, EnergyCost: 100, ReserveCost: 20},
	}
	m, err := dispatch.NewModel(s, gens, nil, model.WithReserve(400, 100))
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	var total float64
	for _, g := range sol.Generators {
		total += g.Reserve
	}
	assert.InDelta(t, 100, total, 1e-6)

	require.NoError(t, m.SetReserveRequirement(250))
	sol, err = m.Solve(context.Background())
	require.NoError(t, err)
	total = 0
	for _, g := range sol.Generators {
		total += g.Reserve
	}
	assert.InDelta(t, 250, total, 1e-6)
}

func TestReserveUpdateWithoutReserves(t *testing.T) {
	s := infrasolver.New()
	m, err := dispatch.NewModel(s, meritOrderGens(), nil, model.SystemState{Demand: 500})
	require.NoError(t, err)
	assert.Error(t, m.SetReserveRequirement(100))
}

func TestSolveIdempotent(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "g1", PMax: 1200, EnergyCost: 50, ReserveCost: 40},
		{ID: "g2", PMax: 800, EnergyCost: 100, ReserveCost: 80},
	}
	m, err := dispatch.NewModel(s, gens, wind(200), model.WithReserve(1000, 300))
	require.NoError(t, err)

	first, err := m.Solve(context.Background())
	require.NoError(t, err)
	second, err := m.Solve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.TotalCost, second.TotalCost)
	assert.Equal(t, first.Generators, second.Generators)
	assert.Equal(t, first.Resources, second.Resources)
	assert.Equal(t, *first.EnergyPrice, *second.EnergyPrice)
	assert.Equal(t, *first.ReservePrice, *second.ReservePrice)
}

func TestUnitCommitmentAvoidsForcedSpillage(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "base", PMin: 400, PMax: 1000, EnergyCost: 30},
		{ID: "mid", PMin: 250, PMax: 500, EnergyCost: 70},
	}
	res := []model.VariableResource{{ID: "wind", Forecast: 300, EnergyCost: 0}}
	state := model.SystemState{Demand: 700}

	// Naive dispatch keeps both floors on and spills free wind.
	relaxed, err := dispatch.NewModel(s, gens, res, state)
	require.NoError(t, err)
	relaxedSol, err := relaxed.Solve(context.Background())
	require.NoError(t, err)
	w, _ := relaxedSol.Resource("wind")
	assert.Greater(t, w.Spillage, 0.0, "floors should force wind spillage")

	uc, err := dispatch.NewModel(s, gens, res, state, dispatch.WithCommitment())
	require.NoError(t, err)
	ucSol, err := uc.Solve(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, ucSol.TotalCost, relaxedSol.TotalCost+1e-6)

	base, _ := ucSol.Generator("base")
	mid, _ := ucSol.Generator("mid")
	require.NotNil(t, base.Committed)
	require.NotNil(t, mid.Committed)
	assert.True(t, *base.Committed)
	assert.False(t, *mid.Committed, "unit whose floor forces spillage must stay off")
	assert.InDelta(t, 0, mid.Output, 1e-6)
	assert.Equal(t, model.CommitmentSchedule{"base": true, "mid": false}, ucSol.Commitment())
	assert.Nil(t, relaxedSol.Commitment())

	ucWind, _ := ucSol.Resource("wind")
	assert.InDelta(t, 300, ucWind.Injection, 1e-6)
	assert.InDelta(t, 12000, ucSol.TotalCost, 1e-3)
}

func TestUnitCommitmentHasNoShadowPrices(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "base", PMin: 400, PMax: 1000, EnergyCost: 30},
		{ID: "mid", PMin: 250, PMax: 500, EnergyCost: 70},
	}
	m, err := dispatch.NewModel(s, gens, wind(300), model.SystemState{Demand: 700}, dispatch.WithCommitment())
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sol.EnergyPrice, "no dual may be reported for a MIP")
	assert.Nil(t, sol.ReservePrice)
}

func TestCommitmentWithReserves(t *testing.T) {
	s := infrasolver.New()
	gens := []model.Generator{
		{ID: "base", PMin: 100, PMax: 1000, EnergyCost: 30, ReserveCost: 10},
		{ID: "mid", PMin: 50, PMax: 500, EnergyCost: 70, ReserveCost: 20},
	}
	m, err := dispatch.NewModel(s, gens, nil, model.WithReserve(800, 200), dispatch.WithCommitment())
	require.NoError(t, err)
	sol, err := m.Solve(context.Background())
	require.NoError(t, err)

	var energy, reserve float64
	for _, g := range sol.Generators {
		energy += g.Output
		reserve += g.Reserve
		if g.Committed != nil && !*g.Committed {
			assert.InDelta(t, 0, g.Reserve, 1e-6, "offline unit %s cannot carry reserve", g.ID)
		}
	}
	assert.InDelta(t, 800, energy, 1e-6)
	assert.InDelta(t, 200, reserve, 1e-6)
}

func TestNewModelValidation(t *testing.T) {
	s := infrasolver.New()

	_, err := dispatch.NewModel(nil, meritOrderGens(), nil, model.SystemState{Demand: 10})
	assert.Error(t, err)

	_, err = dispatch.NewModel(s, nil, nil, model.SystemState{Demand: 10})
	assert.Error(t, err)

	bad := []model.Generator{{ID: "g", PMin: 100, PMax: 50, EnergyCost: 10}}
	_, err = dispatch.NewModel(s, bad, nil, model.SystemState{Demand: 10})
	assert.Error(t, err)

	_, err = dispatch.NewModel(s, meritOrderGens(), nil, model.SystemState{Demand: -1})
	assert.Error(t, err)
}
