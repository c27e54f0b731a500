package config

import (
	"fmt"

	"github.com/prakaa/dispatchsim/core/model"
)

// GeneratorConfig describes one dispatchable unit in the scenario file.
type GeneratorConfig struct {
	ID          string  `json:"id"`
	PMin        float64 `json:"p_min"`
	PMax        float64 `json:"p_max"`
	EnergyCost  float64 `json:"energy_cost"`
	ReserveCost float64 `json:"reserve_cost"`
}

// ResourceConfig describes one variable resource in the scenario file.
type ResourceConfig struct {
	ID         string  `json:"id"`
	Forecast   float64 `json:"forecast"`
	EnergyCost float64 `json:"energy_cost"`
}

// ScenarioConfig is the declarative input of a dispatch run.
type ScenarioConfig struct {
	Name       string            `json:"name"`
	Generators []GeneratorConfig `json:"generators"`
	Resources  []ResourceConfig  `json:"resources"`
	Demand     float64           `json:"demand"`
	// Reserve enables reserve co-optimization when set.
	Reserve *float64 `json:"reserve"`
	// Commitment enables the unit-commitment variant.
	Commitment bool `json:"commitment"`
}

// Validate checks the scenario invariants before any model is built.
func (c ScenarioConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if len(c.Generators) == 0 && len(c.Resources) == 0 {
		return fmt.Errorf("scenario %s: no generators or resources", c.Name)
	}
	for _, g := range c.Generators {
		if err := g.toModel().Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", c.Name, err)
		}
	}
	for _, r := range c.Resources {
		if err := r.toModel().Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", c.Name, err)
		}
	}
	if err := c.State().Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", c.Name, err)
	}
	return nil
}

func (g GeneratorConfig) toModel() model.Generator {
	return model.Generator{
		ID:          g.ID,
		PMin:        g.PMin,
		PMax:        g.PMax,
		EnergyCost:  g.EnergyCost,
		ReserveCost: g.ReserveCost,
	}
}

func (r ResourceConfig) toModel() model.VariableResource {
	return model.VariableResource{ID: r.ID, Forecast: r.Forecast, EnergyCost: r.EnergyCost}
}

// BuildGenerators converts the configured units to core model values.
func (c ScenarioConfig) BuildGenerators() []model.Generator {
	gens := make([]model.Generator, len(c.Generators))
	for i, g := range c.Generators {
		gens[i] = g.toModel()
	}
	return gens
}

// BuildResources converts the configured resources to core model values.
func (c ScenarioConfig) BuildResources() []model.VariableResource {
	res := make([]model.VariableResource, len(c.Resources))
	for i, r := range c.Resources {
		res[i] = r.toModel()
	}
	return res
}

// State returns the system state of the scenario.
func (c ScenarioConfig) State() model.SystemState {
	st := model.SystemState{Demand: c.Demand}
	if c.Reserve != nil {
		r := *c.Reserve
		st.Reserve = &r
	}
	return st
}
