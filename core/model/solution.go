package model

// GeneratorDispatch is the cleared position of a single unit.
type GeneratorDispatch struct {
	ID      string
	Output  float64 // cleared energy in MW
	Reserve float64 // cleared reserve in MW, 0 when reserves are not modeled

	// Committed reports the on/off decision in the unit-commitment variant.
	// It is nil for purely continuous dispatch.
	Committed *bool
}

// ResourceDispatch is the cleared position of a variable resource.
type ResourceDispatch struct {
	ID        string
	Injection float64 // dispatched injection in MW
	Spillage  float64 // forecast minus injection
}

// DispatchSolution is the full result of one dispatch solve.
type DispatchSolution struct {
	Generators []GeneratorDispatch
	Resources  []ResourceDispatch

	TotalCost float64 // objective value in $/h

	// EnergyPrice is the shadow price of the energy balance constraint in
	// $/MWh. It is nil when the dual is unavailable: always for the
	// unit-commitment variant, and for degenerate instances where demand is
	// pinned so tightly that no finite marginal exists.
	EnergyPrice *float64

	// ReservePrice is the shadow price of the reserve balance constraint in
	// $/MW. It is nil when reserves are not modeled or the dual is
	// unavailable.
	ReservePrice *float64
}

// Generator returns the dispatch of the unit with the given ID.
func (s *DispatchSolution) Generator(id string) (GeneratorDispatch, bool) {
	for _, g := range s.Generators {
		if g.ID == id {
			return g, true
		}
	}
	return GeneratorDispatch{}, false
}

// Resource returns the dispatch of the resource with the given ID.
func (s *DispatchSolution) Resource(id string) (ResourceDispatch, bool) {
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceDispatch{}, false
}

// CommitmentSchedule is the per-unit on/off decision of a unit-commitment
// solve, keyed by generator ID.
type CommitmentSchedule map[string]bool

// Commitment returns the on/off schedule, or nil when the solution came
// from a purely continuous dispatch.
func (s *DispatchSolution) Commitment() CommitmentSchedule {
	var sched CommitmentSchedule
	for _, g := range s.Generators {
		if g.Committed == nil {
			continue
		}
		if sched == nil {
			sched = make(CommitmentSchedule, len(s.Generators))
		}
		sched[g.ID] = *g.Committed
	}
	return sched
}

// TotalGeneration sums cleared energy across units and resources.
func (s *DispatchSolution) TotalGeneration() float64 {
	var sum float64
	for _, g := range s.Generators {
		sum += g.Output
	}
	for _, r := range s.Resources {
		sum += r.Injection
	}
	return sum
}
