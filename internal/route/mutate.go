package route

import (
	"math/rand/v2"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

// tailRegenProbability is the chance a triggered mutation is a tail
// regeneration rather than a walk-replacement.
const tailRegenProbability = 0.8

// Mutate applies, in place, one of the two mutation operators below: tail
// regeneration or a single-segment walk replacement. With probability
// 1-rate the route is left untouched.
func (r *Route) Mutate(rate float64, rng *rand.Rand, startCode, destCode int32, g *graph.Graph) {
	if rng.Float64() >= rate {
		return
	}
	if len(r.steps) <= 3 || rng.Float64() < tailRegenProbability {
		r.mutateTailRegeneration(rng, destCode, g)
		return
	}
	r.mutateWalkReplacement(rng, g)
}

// mutateTailRegeneration truncates the route at a random index and
// regrows the tail with a fresh guided path to the destination.
func (r *Route) mutateTailRegeneration(rng *rand.Rand, destCode int32, g *graph.Graph) {
	if len(r.steps) <= 1 {
		return
	}
	k := 1 + rng.IntN(len(r.steps)-1) // k in [1, len-1]
	anchor := r.steps[k-1].Station.Code

	segment, ok := GeneratePathSegment(g, rng, anchor, destCode)
	if !ok {
		return
	}
	r.steps = append(r.steps[:k:k], segment...)
}

// mutateWalkReplacement collapses a short run of steps into one synthetic
// walking leg when the two endpoints are close enough on foot.
func (r *Route) mutateWalkReplacement(rng *rand.Rand, g *graph.Graph) {
	legs := 1 + rng.IntN(2) // 1 or 2
	upper := len(r.steps) - 1 - legs
	if upper < 1 {
		return
	}
	idx1 := 1 + rng.IntN(upper) // idx1 in [1, upper]
	idx2 := idx1 + legs
	if idx2 >= len(r.steps) {
		return
	}

	a := r.steps[idx1].Station.Coordinates
	b := r.steps[idx2].Station.Coordinates
	walkDist := geo.Haversine(a, b)
	if walkDist >= MaxWalkReplaceDistanceKM {
		return
	}

	walkStep := VisitedStep{
		Station:         r.steps[idx2].Station,
		LineTaken:       graph.NewWalkLine(r.steps[idx2].Station.Code, walkDist/geo.WalkSpeedKMH*60),
		PrevStationCode: r.steps[idx1].Station.Code,
	}

	newSteps := make([]VisitedStep, 0, len(r.steps)-(idx2-idx1)+1)
	newSteps = append(newSteps, r.steps[:idx1+1]...)
	newSteps = append(newSteps, walkStep)
	newSteps = append(newSteps, r.steps[idx2+1:]...)
	r.steps = newSteps
}
