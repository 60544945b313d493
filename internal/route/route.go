// Package route implements the Route representation described in spec
// §3/§4.2: an ordered sequence of VisitedSteps with validity, fitness,
// cost/time accounting and the two mutation operators.
package route

import (
	"math"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

// Time/distance constants used across fitness and fare calculations.
const (
	PTSpeedKMH               = 50.0
	MaxPathSteps             = 75
	MaxWalkReplaceDistanceKM = 1.5
	ShortHopWalkThresholdKM  = 0.5
)

// Fitness weights. The numeric defaults are part of the
// contract — changing them changes what the GA converges to.
const (
	timeWeight        = 1.0
	costWeight        = 0.1
	transferPenalty   = 45.0
	walkPenaltyFactor = 2.0
	fitnessEpsilon    = 1e-9
)

// VisitedStep is the atomic element of a Route: the station reached, the
// line taken to reach it, and the predecessor's code. The first step of any
// Route carries the sentinel Start line and PrevStationCode -1.
type VisitedStep struct {
	Station         graph.Station
	LineTaken       graph.TransportationLine
	PrevStationCode int32
}

// Route is an ordered sequence of VisitedSteps. Routes own their steps by
// value; crossover and mutation never share step slices between routes.
type Route struct {
	steps []VisitedStep
}

// New returns an empty Route.
func New() *Route {
	return &Route{}
}

// FromSteps builds a Route from an already-constructed step slice, copying
// it so the Route owns its data independently of the caller's slice.
func FromSteps(steps []VisitedStep) *Route {
	r := &Route{steps: make([]VisitedStep, len(steps))}
	copy(r.steps, steps)
	return r
}

// AddStep appends vs to the route in O(1).
func (r *Route) AddStep(vs VisitedStep) {
	r.steps = append(r.steps, vs)
}

// Len returns the number of steps in the route.
func (r *Route) Len() int {
	return len(r.steps)
}

// VisitedSteps returns a read-only copy of the route's steps.
func (r *Route) VisitedSteps() []VisitedStep {
	out := make([]VisitedStep, len(r.steps))
	copy(out, r.steps)
	return out
}

// StepAt returns the step at index i.
func (r *Route) StepAt(i int) VisitedStep {
	return r.steps[i]
}

// Clone returns a deep (value) copy of the route, sharing no step slice
// with the original.
func (r *Route) Clone() *Route {
	return FromSteps(r.steps)
}

// IsValid checks the route's structural invariants.
func (r *Route) IsValid(startCode, destCode int32, g *graph.Graph) bool {
	if len(r.steps) == 0 {
		return false
	}

	startStation, err := g.StationByCode(startCode)
	if err != nil {
		return false
	}
	first := r.steps[0]
	if !first.Station.Equal(startStation) || first.PrevStationCode != -1 {
		return false
	}

	if len(r.steps) == 1 {
		return startCode == destCode
	}

	destStation, err := g.StationByCode(destCode)
	if err != nil {
		return false
	}
	last := r.steps[len(r.steps)-1]
	if last.LineTaken.To != destCode || !last.Station.Equal(destStation) {
		return false
	}

	for i := 1; i < len(r.steps); i++ {
		step := r.steps[i]
		toStation, err := g.StationByCode(step.LineTaken.To)
		if err != nil || !step.Station.Equal(toStation) {
			return false
		}
		if !g.HasStation(step.PrevStationCode) {
			return false
		}
		if step.LineTaken.LineID == graph.StartLineID || step.LineTaken.LineID == graph.WalkLineID {
			continue
		}
		found := false
		for _, l := range g.LinesFrom(step.PrevStationCode) {
			if l.LineID == step.LineTaken.LineID && l.To == step.LineTaken.To {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TotalTimeEstimate sums per-segment estimated times: the GTFS-supplied
// TravelTimeMinutes when non-zero, else a distance/speed estimate using
// WalkSpeedKMH for Walk legs and PTSpeedKMH for public-transport legs,
// where per-segment distance is the Haversine distance between consecutive
// station coordinates. Returns 0 on any internal lookup failure.
func (r *Route) TotalTimeEstimate(g *graph.Graph, startCode int32) float64 {
	if len(r.steps) == 0 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(r.steps); i++ {
		line := r.steps[i].LineTaken
		if line.TravelTimeMinutes > 0 {
			total += line.TravelTimeMinutes
			continue
		}
		d := geo.Haversine(r.steps[i-1].Station.Coordinates, r.steps[i].Station.Coordinates)
		speed := PTSpeedKMH
		if line.Mode == graph.Walk {
			speed = geo.WalkSpeedKMH
		}
		total += d / speed * 60
	}
	return total
}

// TotalCost sums the great-circle distance across each public-transport
// segment's endpoints and looks up a single fare in the banded fare table
// for that aggregate distance. A walk-only route (no public
// segments) costs 0.
func (r *Route) TotalCost(g *graph.Graph) float64 {
	total := 0.0
	hasPublic := false
	for i := 1; i < len(r.steps); i++ {
		if !r.steps[i].LineTaken.IsPublic() {
			continue
		}
		hasPublic = true
		total += geo.Haversine(r.steps[i-1].Station.Coordinates, r.steps[i].Station.Coordinates)
	}
	if !hasPublic {
		return 0
	}
	return fareForDistance(total)
}

// fareForDistance applies the banded fare table.
func fareForDistance(km float64) float64 {
	switch {
	case km <= 15:
		return 6.0
	case km <= 40:
		return 12.5
	case km <= 120:
		return 17.0
	case km <= 225:
		return 28.5
	default:
		return 84.24
	}
}

// TransferCount returns max(0, boardings-1), where a boarding is a step
// whose line is public and whose predecessor step was either non-public or
// ran on a different line.
func (r *Route) TransferCount() int {
	boardings := 0
	for i := 1; i < len(r.steps); i++ {
		cur := r.steps[i].LineTaken
		if !cur.IsPublic() {
			continue
		}
		prev := r.steps[i-1].LineTaken
		if !prev.IsPublic() || prev.LineID != cur.LineID {
			boardings++
		}
	}
	if boardings == 0 {
		return 0
	}
	return boardings - 1
}

// Fitness computes the route's fitness score: higher is better, 0 for an
// invalid route or a degenerate (near-zero) score.
func (r *Route) Fitness(g *graph.Graph, startCode, destCode int32, user, dest geo.Coordinates) float64 {
	if !r.IsValid(startCode, destCode, g) {
		return 0
	}

	first := r.steps[0]
	last := r.steps[len(r.steps)-1]

	initialWalk := geo.WalkTime(user, first.Station.Coordinates)
	finalWalk := geo.WalkTime(last.Station.Coordinates, dest)
	stationTime := r.TotalTimeEstimate(g, startCode)

	internalWalk := 0.0
	for i := 1; i < len(r.steps); i++ {
		if r.steps[i].LineTaken.LineID == graph.WalkLineID {
			internalWalk += r.steps[i].LineTaken.TravelTimeMinutes
		}
	}
	totalWalk := initialWalk + finalWalk + internalWalk

	cost := r.TotalCost(g)
	transfers := float64(r.TransferCount())

	// base already counts initialWalk+finalWalk once (via stationTime's
	// segment sum plus the two boundary legs); adding totalWalk on top
	// counts every walking leg a second time, which is what realizes the
	// contract's "walk_penalty_factor=2, extra factor=1" shape.
	base := timeWeight * (stationTime + initialWalk + finalWalk)
	score := base + totalWalk + costWeight*cost + transferPenalty*transfers

	if score <= fitnessEpsilon || math.IsNaN(score) {
		return 0
	}
	return 1.0 / score
}

// FullJourneyTime is initial_walk + TotalTimeEstimate + final_walk.
func (r *Route) FullJourneyTime(g *graph.Graph, startCode, destCode int32, user, dest geo.Coordinates) float64 {
	if len(r.steps) == 0 {
		return 0
	}
	first := r.steps[0]
	last := r.steps[len(r.steps)-1]
	return geo.WalkTime(user, first.Station.Coordinates) + r.TotalTimeEstimate(g, startCode) + geo.WalkTime(last.Station.Coordinates, dest)
}
