// Package population implements the Population type: BFS-seeded
// construction, fill-to-size via bounded mutation, and the generational
// selection/elitism/breeding evolve loop.
package population

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/route"
)

// fillAttemptMultiplier bounds the number of mutation attempts spent trying
// to fill the population to its target size.
const fillAttemptMultiplier = 10

// minFillMutationSteps and maxFillMutationSteps bound how many mutation
// passes are applied to a base clone while filling the population.
const (
	minFillMutationSteps = 5
	maxFillMutationSteps = 20
)

// elitismFraction is the share of target_size carried over unmodified
// between generations.
const elitismFraction = 0.1

// maxGenerationOvershoot stops one generation's breeding loop if the next
// generation grows past this multiple of target_size.
const maxGenerationOvershoot = 2

// State models the Population lifecycle: Uninitialized -> Seeded ->
// Evolving(n) -> Extinct | HasSolution.
type State int

const (
	Uninitialized State = iota
	Seeded
	Evolving
	Extinct
	HasSolution
)

// Population holds a fixed-target-size pool of candidate Routes between a
// start and destination station, and evolves it generationally.
type Population struct {
	routes     []*route.Route
	targetSize int
	startCode  int32
	destCode   int32
	userCoords geo.Coordinates
	destCoords geo.Coordinates
	graph      *graph.Graph
	rng        *rand.Rand
	state      State
}

// New seeds a Population of size routes between startCode and destCode. A
// BFS base path is found first, then cloned and mutated repeatedly to fill
// the target size.
func New(size int, startCode, destCode int32, userCoords, destCoords geo.Coordinates, g *graph.Graph, rng *rand.Rand) (*Population, error) {
	if size <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "population size must be positive")
	}
	if !g.HasStation(startCode) {
		return nil, apperr.New(apperr.NotFound, "start station not in graph")
	}
	if !g.HasStation(destCode) {
		return nil, apperr.New(apperr.NotFound, "destination station not in graph")
	}

	base, err := bfsSeed(g, startCode, destCode)
	if err != nil {
		return nil, err
	}
	if !base.IsValid(startCode, destCode, g) {
		return nil, apperr.New(apperr.Internal, "BFS-seeded route failed validation")
	}

	p := &Population{
		targetSize: size,
		startCode:  startCode,
		destCode:   destCode,
		userCoords: userCoords,
		destCoords: destCoords,
		graph:      g,
		rng:        rng,
		state:      Uninitialized,
	}

	maxAttempts := size * fillAttemptMultiplier
	attempts := 0
	for len(p.routes) < size && attempts < maxAttempts {
		attempts++
		candidate := base.Clone()
		steps := minFillMutationSteps + rng.IntN(maxFillMutationSteps-minFillMutationSteps+1)
		for i := 0; i < steps; i++ {
			candidate.Mutate(1.0, rng, startCode, destCode, g)
		}
		if candidate.IsValid(startCode, destCode, g) {
			p.routes = append(p.routes, candidate)
		}
	}

	if len(p.routes) == 0 {
		p.routes = append(p.routes, base)
	}

	p.state = Seeded
	return p, nil
}

// Size returns the number of routes currently held.
func (p *Population) Size() int {
	return len(p.routes)
}

// TargetSize returns the population's configured target size.
func (p *Population) TargetSize() int {
	return p.targetSize
}

// State returns the population's current lifecycle state.
func (p *Population) State() State {
	return p.state
}

// Routes returns the current route pool, unsorted.
func (p *Population) Routes() []*route.Route {
	return p.routes
}

// fitnessOf is a small helper centralizing the Fitness call's arguments.
func (p *Population) fitnessOf(r *route.Route) float64 {
	return r.Fitness(p.graph, p.startCode, p.destCode, p.userCoords, p.destCoords)
}

// Best returns the highest-fitness route in the population, or nil if the
// population is empty.
func (p *Population) Best() *route.Route {
	if len(p.routes) == 0 {
		return nil
	}
	best := p.routes[0]
	bestFitness := p.fitnessOf(best)
	for _, r := range p.routes[1:] {
		f := p.fitnessOf(r)
		if f > bestFitness {
			best, bestFitness = r, f
		}
	}
	return best
}

// Evolve runs up to generations rounds of selection, elitism and breeding.
// mutationRate is passed through to child.Mutate. Evolution
// stops early if the population goes extinct; within a generation,
// breeding stops if the next generation exceeds
// maxGenerationOvershoot*target_size. Evolve returns the number of
// generations actually run, which is less than generations when evolution
// stops early.
func (p *Population) Evolve(generations int, mutationRate float64) int {
	p.state = Evolving

	ran := 0
	for gen := 0; gen < generations; gen++ {
		if len(p.routes) == 0 {
			p.state = Extinct
			return ran
		}
		ran++

		sort.Slice(p.routes, func(i, j int) bool {
			return p.fitnessOf(p.routes[i]) > p.fitnessOf(p.routes[j])
		})

		survivorCount := int(math.Ceil(float64(len(p.routes)) / 2.0))
		if survivorCount < 1 {
			survivorCount = 1
		}
		if survivorCount > len(p.routes) {
			survivorCount = len(p.routes)
		}
		survivors := p.routes[:survivorCount]

		eliteCount := int(math.Floor(float64(p.targetSize) * elitismFraction))
		if eliteCount < 1 {
			eliteCount = 1
		}
		if eliteCount > len(survivors) {
			eliteCount = len(survivors)
		}

		next := make([]*route.Route, 0, p.targetSize)
		for i := 0; i < eliteCount; i++ {
			next = append(next, survivors[i].Clone())
		}

		overshootCap := maxGenerationOvershoot * p.targetSize
		for len(next) < p.targetSize {
			if len(next) > overshootCap {
				break
			}
			idx1 := p.rng.IntN(len(survivors))
			idx2 := p.rng.IntN(len(survivors))
			if idx1 == idx2 && len(survivors) > 1 {
				idx2 = (idx2 + 1) % len(survivors)
			}
			parent1 := survivors[idx1]
			parent2 := survivors[idx2]

			child := route.Crossover(parent1, parent2, p.rng)
			child.Mutate(mutationRate, p.rng, p.startCode, p.destCode, p.graph)
			next = append(next, child)
		}

		p.routes = next
	}

	if len(p.routes) == 0 {
		p.state = Extinct
		return ran
	}
	p.state = HasSolution
	return ran
}
