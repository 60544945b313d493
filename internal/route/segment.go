package route

import (
	"math/rand/v2"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

const segmentWeightEpsilon = 1e-6

// GeneratePathSegment performs a greedy-random walk from fromCode to
// toCode: whenever the current station is within
// ShortHopWalkThresholdKM of the destination it emits a terminal Walk step
// and succeeds; otherwise it samples among outgoing edges to unvisited
// real stations, weighted so that edges closer to the destination are more
// likely to be chosen. It aborts after MaxPathSteps or at a dead end.
func GeneratePathSegment(g *graph.Graph, rng *rand.Rand, fromCode, toCode int32) ([]VisitedStep, bool) {
	if fromCode == toCode {
		return nil, true
	}

	destStation, err := g.StationByCode(toCode)
	if err != nil {
		return nil, false
	}

	var segment []VisitedStep
	visited := map[int32]bool{fromCode: true}
	current := fromCode

	for steps := 0; steps < MaxPathSteps; steps++ {
		currentStation, err := g.StationByCode(current)
		if err != nil {
			return nil, false
		}

		distToEnd := geo.Haversine(currentStation.Coordinates, destStation.Coordinates)
		if distToEnd < ShortHopWalkThresholdKM {
			walkTime := distToEnd / geo.WalkSpeedKMH * 60
			segment = append(segment, VisitedStep{
				Station:         destStation,
				LineTaken:       graph.NewWalkLine(toCode, walkTime),
				PrevStationCode: current,
			})
			return segment, true
		}

		lines := g.LinesFrom(current)
		type candidate struct {
			line   graph.TransportationLine
			weight float64
		}
		var candidates []candidate
		for _, l := range lines {
			if !g.HasStation(l.To) || visited[l.To] {
				continue
			}
			nextStation, err := g.StationByCode(l.To)
			if err != nil {
				continue
			}
			d := geo.Haversine(nextStation.Coordinates, destStation.Coordinates)
			candidates = append(candidates, candidate{line: l, weight: d + segmentWeightEpsilon})
		}
		if len(candidates) == 0 {
			return nil, false
		}

		sumInverse := 0.0
		for _, c := range candidates {
			w := c.weight
			if w < segmentWeightEpsilon {
				w = segmentWeightEpsilon
			}
			sumInverse += 1.0 / w
		}

		var chosen graph.TransportationLine
		if sumInverse <= segmentWeightEpsilon {
			chosen = candidates[rng.IntN(len(candidates))].line
		} else {
			r := rng.Float64() * sumInverse
			acc := 0.0
			chosen = candidates[len(candidates)-1].line
			for _, c := range candidates {
				w := c.weight
				if w < segmentWeightEpsilon {
					w = segmentWeightEpsilon
				}
				acc += 1.0 / w
				if r <= acc {
					chosen = c.line
					break
				}
			}
		}

		nextStation, err := g.StationByCode(chosen.To)
		if err != nil {
			return nil, false
		}
		segment = append(segment, VisitedStep{
			Station:         nextStation,
			LineTaken:       chosen,
			PrevStationCode: current,
		})
		visited[chosen.To] = true
		current = chosen.To
		if current == toCode {
			return segment, true
		}
	}
	return nil, false
}
