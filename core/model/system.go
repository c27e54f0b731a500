package model

import "fmt"

// SystemState carries the forecast operating point for a single dispatch
// interval.
type SystemState struct {
	Demand float64 // demand forecast in MW

	// Reserve is the aggregate reserve requirement in MW. A nil value
	// disables reserve co-optimization for the interval.
	Reserve *float64
}

// Validate checks the forecast invariants.
func (s SystemState) Validate() error {
	if s.Demand < 0 {
		return fmt.Errorf("system state: negative demand %v", s.Demand)
	}
	if s.Reserve != nil && *s.Reserve < 0 {
		return fmt.Errorf("system state: negative reserve requirement %v", *s.Reserve)
	}
	return nil
}

// WithReserve is a convenience constructor for a state with a reserve
// requirement.
func WithReserve(demand, reserve float64) SystemState {
	return SystemState{Demand: demand, Reserve: &reserve}
}
