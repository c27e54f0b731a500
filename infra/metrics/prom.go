package metrics

import (
	coremetrics "github.com/prakaa/dispatchsim/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve outcomes in Prometheus metrics.
type PromSink struct {
	solves       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	totalCost    *prometheus.GaugeVec
	energyPrice  *prometheus.GaugeVec
	reservePrice *prometheus.GaugeVec
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_solves_total",
		Help: "Total number of dispatch solves by termination status",
	}, []string{"scenario", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_solve_duration_seconds",
		Help:    "Wall-clock duration of dispatch solves",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario"})
	totalCost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_total_cost",
		Help: "Objective value of the latest optimal solve",
	}, []string{"scenario"})
	energyPrice := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_energy_price",
		Help: "Energy shadow price of the latest optimal solve",
	}, []string{"scenario"})
	reservePrice := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_reserve_price",
		Help: "Reserve shadow price of the latest optimal solve",
	}, []string{"scenario"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	for _, g := range []**prometheus.GaugeVec{&totalCost, &energyPrice, &reservePrice} {
		if err := reg.Register(*g); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				*g = are.ExistingCollector.(*prometheus.GaugeVec)
			} else {
				return nil, err
			}
		}
	}

	return &PromSink{
		solves:       solves,
		duration:     duration,
		totalCost:    totalCost,
		energyPrice:  energyPrice,
		reservePrice: reservePrice,
	}, nil
}

// RecordSolve implements coremetrics.MetricsSink.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.solves.WithLabelValues(rec.Scenario, rec.Status).Inc()
	s.duration.WithLabelValues(rec.Scenario).Observe(rec.Duration.Seconds())
	if rec.Solution == nil {
		return nil
	}
	s.totalCost.WithLabelValues(rec.Scenario).Set(rec.Solution.TotalCost)
	if rec.Solution.EnergyPrice != nil {
		s.energyPrice.WithLabelValues(rec.Scenario).Set(*rec.Solution.EnergyPrice)
	}
	if rec.Solution.ReservePrice != nil {
		s.reservePrice.WithLabelValues(rec.Scenario).Set(*rec.Solution.ReservePrice)
	}
	return nil
}
