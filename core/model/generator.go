package model

import "fmt"

// Generator represents a dispatchable generating unit offering energy and,
// optionally, reserve capacity.
type Generator struct {
	ID          string
	PMin        float64 // minimum stable output in MW when committed
	PMax        float64 // maximum output in MW
	EnergyCost  float64 // marginal energy cost in $/MWh
	ReserveCost float64 // marginal reserve offer in $/MW, 0 if the unit does not price reserve
}

// Validate checks the capacity invariants of the unit.
func (g Generator) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("generator: empty ID")
	}
	if g.PMin < 0 {
		return fmt.Errorf("generator %s: negative minimum output %v", g.ID, g.PMin)
	}
	if g.PMax < g.PMin {
		return fmt.Errorf("generator %s: maximum output %v below minimum %v", g.ID, g.PMax, g.PMin)
	}
	return nil
}

// ReserveRange returns the reserve capability of the unit, i.e. the headroom
// between minimum and maximum output.
func (g Generator) ReserveRange() float64 {
	return g.PMax - g.PMin
}

// VariableResource represents a non-dispatchable injection such as wind or
// solar, curtailable between zero and its forecast.
type VariableResource struct {
	ID         string
	Forecast   float64 // forecast maximum injection in MW
	EnergyCost float64 // marginal cost in $/MWh, usually near zero
}

// Validate checks the forecast invariant of the resource.
func (r VariableResource) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("resource: empty ID")
	}
	if r.Forecast < 0 {
		return fmt.Errorf("resource %s: negative forecast %v", r.ID, r.Forecast)
	}
	return nil
}
