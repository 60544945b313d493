package route

import "math/rand/v2"

// Crossover builds a child route from two parents: among
// every pair (i,j) with i in [1, len(p1)-1) and j in [1, len(p2)-1) where
// the two steps' stations share a code, one is picked uniformly at random
// and the child is p1[0..=i] ++ p2[j+1..]. If no such pair exists, one
// parent is returned (copied) uniformly at random.
func Crossover(p1, p2 *Route, rng *rand.Rand) *Route {
	type pair struct{ i, j int }
	var candidates []pair

	for i := 1; i < len(p1.steps)-1; i++ {
		for j := 1; j < len(p2.steps)-1; j++ {
			if p1.steps[i].Station.Equal(p2.steps[j].Station) {
				candidates = append(candidates, pair{i, j})
			}
		}
	}

	if len(candidates) == 0 {
		if rng.Float64() < 0.5 {
			return p1.Clone()
		}
		return p2.Clone()
	}

	c := candidates[rng.IntN(len(candidates))]
	child := make([]VisitedStep, 0, c.i+1+(len(p2.steps)-c.j-1))
	child = append(child, p1.steps[:c.i+1]...)
	child = append(child, p2.steps[c.j+1:]...)
	return FromSteps(child)
}
