package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakaa/dispatchsim/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Scenario: config.ScenarioConfig{
			Name: "test",
			Generators: []config.GeneratorConfig{
				{ID: "cheap", PMax: 1000, EnergyCost: 30},
				{ID: "dear", PMax: 400, EnergyCost: 90},
			},
			Resources: []config.ResourceConfig{{ID: "wind", Forecast: 200, EnergyCost: 5}},
			Demand:    800,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func TestRunnerRun(t *testing.T) {
	runner, err := New(testConfig())
	require.NoError(t, err)
	var buf bytes.Buffer
	runner.SetOutput(&buf)

	sol, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 800, sol.TotalGeneration(), 1e-6)

	out := buf.String()
	assert.Contains(t, out, "cheap")
	assert.Contains(t, out, "total cost")
	assert.Contains(t, out, "energy price: 30.00")
}

func TestRunnerRunCommitment(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario.Commitment = true
	runner, err := New(cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	runner.SetOutput(&buf)

	sol, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sol.EnergyPrice)
	assert.Contains(t, buf.String(), "energy price: unavailable")
}

func TestRunnerSweep(t *testing.T) {
	runner, err := New(testConfig())
	require.NoError(t, err)
	runner.SetOutput(&bytes.Buffer{})

	points, err := runner.RunSweep(context.Background(), 200, 1400, 4)
	require.NoError(t, err)
	require.Len(t, points, 4)

	prev := -1.0
	for _, p := range points {
		require.NotNil(t, p.EnergyPrice)
		assert.GreaterOrEqual(t, *p.EnergyPrice+1e-4, prev)
		prev = *p.EnergyPrice
	}
}

func TestRunnerSweepSkipsInfeasible(t *testing.T) {
	runner, err := New(testConfig())
	require.NoError(t, err)
	runner.SetOutput(&bytes.Buffer{})

	// Capability tops out at 1600; the last step is dropped.
	points, err := runner.RunSweep(context.Background(), 1000, 2000, 3)
	require.NoError(t, err)
	require.Len(t, points, 2)
	for _, p := range points {
		assert.LessOrEqual(t, p.Demand, 1600.0)
	}
}

func TestRunnerSweepValidation(t *testing.T) {
	runner, err := New(testConfig())
	require.NoError(t, err)
	_, err = runner.RunSweep(context.Background(), 100, 50, 5)
	assert.Error(t, err)
	_, err = runner.RunSweep(context.Background(), 100, 200, 1)
	assert.Error(t, err)
}

func TestRunnerReportSpillage(t *testing.T) {
	cfg := testConfig()
	cfg.Scenario.Demand = 100
	runner, err := New(cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	runner.SetOutput(&buf)

	sol, err := runner.Run(context.Background())
	require.NoError(t, err)
	wind, ok := sol.Resource("wind")
	require.True(t, ok)
	assert.InDelta(t, 100, wind.Spillage, 1e-6)
	assert.True(t, strings.Contains(buf.String(), "spill"))
}
