package planner

import (
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

// maxCandidateStartStations caps the fan-out at 3 GA tasks per request
// to bound fan-out concurrency.
const maxCandidateStartStations = 3

// startRole labels which representative-start rule produced a given
// candidate, for the routify_ga_task_wins_by_start_role_total metric.
type startRole string

const (
	roleClosest    startRole = "s1"
	roleFarthest   startRole = "sn"
	roleMaxBearing startRole = "sk"
)

// selectRepresentativeStarts picks up to 3 candidate start stations from
// candidates (already sorted ascending by distance to user, the contract of
// Graph.Nearby): S1 the closest, Sn the farthest (if distinct from S1), and
// Sk the station in the middle range with maximum haversine distance from
// S1 ("most different bearing"), falling back to the second-closest
// distinct station if no middle-range candidate exists. Results are
// deduplicated by station code; roles[i] names the rule that selected
// stations[i].
func selectRepresentativeStarts(candidates []graph.Station, user geo.Coordinates) (stations []graph.Station, roles []startRole) {
	if len(candidates) == 0 {
		return nil, nil
	}

	seen := make(map[int32]bool, maxCandidateStartStations)
	add := func(s graph.Station, role startRole) {
		if seen[s.Code] {
			return
		}
		seen[s.Code] = true
		stations = append(stations, s)
		roles = append(roles, role)
	}

	s1 := candidates[0]
	add(s1, roleClosest)

	if len(candidates) > 1 {
		sn := candidates[len(candidates)-1]
		if sn.Code != s1.Code {
			add(sn, roleFarthest)
		}
	}

	if len(stations) < maxCandidateStartStations {
		sk, ok := farthestFromInMiddleRange(candidates, s1)
		if ok {
			add(sk, roleMaxBearing)
		} else if len(candidates) > 1 && candidates[1].Code != s1.Code {
			add(candidates[1], roleMaxBearing)
		}
	}

	if len(stations) > maxCandidateStartStations {
		stations = stations[:maxCandidateStartStations]
		roles = roles[:maxCandidateStartStations]
	}
	return stations, roles
}

// farthestFromInMiddleRange scans the middle range of candidates (excluding
// the first and last, which are S1 and Sn) and returns the one with the
// largest haversine distance from s1.
func farthestFromInMiddleRange(candidates []graph.Station, s1 graph.Station) (graph.Station, bool) {
	if len(candidates) < 3 {
		return graph.Station{}, false
	}
	middle := candidates[1 : len(candidates)-1]
	if len(middle) == 0 {
		return graph.Station{}, false
	}

	best := middle[0]
	bestDist := geo.Haversine(s1.Coordinates, best.Coordinates)
	for _, c := range middle[1:] {
		d := geo.Haversine(s1.Coordinates, c.Coordinates)
		if d > bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}
