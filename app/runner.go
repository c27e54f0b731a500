package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prakaa/dispatchsim/config"
	"github.com/prakaa/dispatchsim/core/dispatch"
	coremetrics "github.com/prakaa/dispatchsim/core/metrics"
	"github.com/prakaa/dispatchsim/core/model"
	coresolver "github.com/prakaa/dispatchsim/core/solver"
	"github.com/prakaa/dispatchsim/infra/logger"
	_ "github.com/prakaa/dispatchsim/infra/metrics" // register built-in sinks
	infrasolver "github.com/prakaa/dispatchsim/infra/solver"
)

// Runner wires a scenario to the solver backend and the metrics sinks.
type Runner struct {
	cfg    *config.Config
	solver coresolver.Interface
	sink   coremetrics.MetricsSink
	log    logger.Logger
	out    io.Writer
}

// New creates a Runner from the configuration.
func New(cfg *config.Config) (*Runner, error) {
	setLogLevel(cfg.Logging.Level)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return &Runner{
		cfg:    cfg,
		solver: infrasolver.New(),
		sink:   sink,
		log:    logger.New("runner"),
		out:    os.Stdout,
	}, nil
}

// SetOutput redirects the printed report, mainly for tests.
func (r *Runner) SetOutput(w io.Writer) { r.out = w }

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (r *Runner) buildModel(commitment bool) (*dispatch.Model, error) {
	sc := r.cfg.Scenario
	var opts []dispatch.Option
	if commitment {
		opts = append(opts, dispatch.WithCommitment())
	}
	opts = append(opts, dispatch.WithLogger(r.log))
	return dispatch.NewModel(r.solver, sc.BuildGenerators(), sc.BuildResources(), sc.State(), opts...)
}

// Run builds the configured scenario, solves it once and records the result.
func (r *Runner) Run(ctx context.Context) (*model.DispatchSolution, error) {
	m, err := r.buildModel(r.cfg.Scenario.Commitment)
	if err != nil {
		return nil, err
	}
	sol, err := r.solveAndRecord(ctx, m)
	if err != nil {
		return nil, err
	}
	r.report(sol)
	return sol, nil
}

// SweepPoint is one demand step of a sweep.
type SweepPoint struct {
	Demand      float64
	TotalCost   float64
	EnergyPrice *float64
}

// RunSweep re-solves the scenario over a demand range using the explicit
// update-and-re-solve operation on the built model.
func (r *Runner) RunSweep(ctx context.Context, from, to float64, steps int) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 steps, got %d", steps)
	}
	if to < from {
		return nil, fmt.Errorf("sweep: demand range %v..%v is inverted", from, to)
	}
	m, err := r.buildModel(r.cfg.Scenario.Commitment)
	if err != nil {
		return nil, err
	}
	points := make([]SweepPoint, 0, steps)
	width := (to - from) / float64(steps-1)
	for i := 0; i < steps; i++ {
		d := from + width*float64(i)
		if err := m.SetDemand(d); err != nil {
			return nil, err
		}
		sol, err := r.solveAndRecord(ctx, m)
		if errors.Is(err, dispatch.ErrInfeasible) {
			r.log.Warnf("sweep: demand %.3f infeasible, skipping", d)
			continue
		}
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{Demand: d, TotalCost: sol.TotalCost, EnergyPrice: sol.EnergyPrice})
	}
	return points, nil
}

func (r *Runner) solveAndRecord(ctx context.Context, m *dispatch.Model) (*model.DispatchSolution, error) {
	start := time.Now()
	sol, err := m.Solve(ctx)
	dur := time.Since(start)

	rec := coremetrics.SolveRecord{
		RunID:    uuid.NewString(),
		Scenario: r.cfg.Scenario.Name,
		Demand:   m.Demand(),
		Duration: dur,
		Time:     start,
	}
	if req, ok := m.ReserveRequirement(); ok {
		rec.Reserve = req
	}
	switch {
	case err == nil:
		rec.Status = "optimal"
		rec.Solution = sol
	case errors.Is(err, dispatch.ErrInfeasible):
		rec.Status = "infeasible"
	case errors.Is(err, dispatch.ErrUnbounded):
		rec.Status = "unbounded"
	default:
		rec.Status = "error"
	}
	if serr := r.sink.RecordSolve(rec); serr != nil {
		r.log.Errorf("record solve: %v", serr)
	}
	return sol, err
}
