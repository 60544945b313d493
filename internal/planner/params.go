// Package planner implements the RoutePlanner orchestration:
// representative start-station selection, parallel GA fan-out against the
// single closest end station, reduction to the best result, and the
// direct-walk-vs-transit decision.
package planner

import (
	"github.com/routify-transit/routify/internal/apperr"
)

// GAParams are the per-request GA knobs, clamped and
// validated before a Plan call proceeds.
type GAParams struct {
	Generations    int
	MutationRate   float64
	PopulationSize int
}

// DefaultGAParams are the defaults used when a request supplies none.
var DefaultGAParams = GAParams{
	Generations:    200,
	MutationRate:   0.3,
	PopulationSize: 100,
}

// Bounds for per-request overrides (gen, mut, popSize). These are generous
// operational guardrails, not part of the locked algorithmic contract.
const (
	minGenerations    = 1
	maxGenerations    = 2000
	minPopulationSize = 2
	maxPopulationSize = 2000
)

// ClampOverrides bounds user-supplied GA overrides to sane operational
// limits. Zero-value fields are left untouched by the caller (it should
// fall back to DefaultGAParams's corresponding field before calling this).
func ClampOverrides(p GAParams) GAParams {
	if p.Generations < minGenerations {
		p.Generations = minGenerations
	}
	if p.Generations > maxGenerations {
		p.Generations = maxGenerations
	}
	if p.PopulationSize < minPopulationSize {
		p.PopulationSize = minPopulationSize
	}
	if p.PopulationSize > maxPopulationSize {
		p.PopulationSize = maxPopulationSize
	}
	if p.MutationRate < 0 {
		p.MutationRate = 0
	}
	if p.MutationRate > 1 {
		p.MutationRate = 1
	}
	return p
}

// Validate enforces the GA parameter bounds: size > 1, generations > 0,
// mutation_rate in [0,1].
func (p GAParams) Validate() error {
	if p.PopulationSize <= 1 {
		return apperr.New(apperr.InvalidInput, "population size must be greater than 1")
	}
	if p.Generations <= 0 {
		return apperr.New(apperr.InvalidInput, "generations must be positive")
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return apperr.New(apperr.InvalidInput, "mutation rate must be in [0,1]")
	}
	return nil
}
