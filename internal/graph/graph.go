package graph

import (
	"sort"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
)

// NearbyRadiusKM is the radius within which Nearby considers a station a
// match.
const NearbyRadiusKM = 0.6

// MaxSegmentExpansionSteps bounds StationsAlongLineSegment's walk, per
// the wire protocol.
const MaxSegmentExpansionSteps = 150

// Graph is an adjacency table keyed by station code. It is built once by
// the ingestion pass and is read-only for the remainder of the process
// lifetime — this is what lets every GA task hold a shared reference to it
// without locks.
type Graph struct {
	stations map[int32]Station
	index    *geo.Index
}

// New returns an empty Graph ready for ingestion.
func New() *Graph {
	return &Graph{stations: make(map[int32]Station)}
}

// insertStation adds or overwrites a station by code. Ingestion-only.
func (g *Graph) insertStation(s Station) {
	g.stations[s.Code] = s
}

// Finalize builds the spatial index once ingestion is complete. Calling it
// is optional — Nearby lazily builds the index on first use — but doing it
// explicitly at startup keeps the first request from paying for it.
func (g *Graph) Finalize() {
	g.buildIndex()
}

// StationCount returns the number of stations in the graph.
func (g *Graph) StationCount() int {
	return len(g.stations)
}

// HasStation reports whether code is a known station, total over any input.
func (g *Graph) HasStation(code int32) bool {
	_, ok := g.stations[code]
	return ok
}

// StationByCode returns a value copy of the station for code, or a
// NotFound error if absent — Routes own their station data by value, never
// by shared reference.
func (g *Graph) StationByCode(code int32) (Station, error) {
	s, ok := g.stations[code]
	if !ok {
		return Station{}, apperr.New(apperr.NotFound, "no station with that code")
	}
	return s, nil
}

// LinesFrom returns the outgoing lines for code, or an empty slice if the
// station is missing — total.
func (g *Graph) LinesFrom(code int32) []TransportationLine {
	s, ok := g.stations[code]
	if !ok {
		return nil
	}
	return s.OutgoingLines
}

// buildIndex constructs the spatial prefilter used by Nearby. Called once
// ingestion finishes.
func (g *Graph) buildIndex() {
	idx := geo.NewIndex()
	for code, s := range g.stations {
		idx.Insert(code, s.Coordinates)
	}
	g.index = idx
}

// nearbyStation pairs a station with its distance from a query point, used
// internally to sort Nearby's result.
type nearbyStation struct {
	station  Station
	distance float64
}

// Nearby returns all stations within NearbyRadiusKM of coords, sorted
// ascending by distance. O(N) is acceptable at this graph size; the S2 index
// narrows the candidate set before the exact Haversine check so the
// average case is far below N for a real-sized graph.
func (g *Graph) Nearby(coords geo.Coordinates) []Station {
	if g.index == nil {
		g.buildIndex()
	}

	var candidateCodes []int32
	if len(g.stations) > 0 {
		candidateCodes = g.index.CandidatesWithin(coords, NearbyRadiusKM)
	}

	results := make([]nearbyStation, 0, len(candidateCodes))
	for _, code := range candidateCodes {
		s := g.stations[code]
		d := geo.Haversine(coords, s.Coordinates)
		if d <= NearbyRadiusKM {
			results = append(results, nearbyStation{station: s, distance: d})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].distance < results[j].distance })

	out := make([]Station, len(results))
	for i, r := range results {
		out[i] = r.station
	}
	return out
}

// StationsAlongLineSegment inflates an action-point-to-action-point hop
// into the full list of intermediate stops it passes through on lineID, for
// display purposes. It starts at fromCode and follows outgoing
// edges whose LineID matches lineID, at each step preferring an edge whose
// To is toCode, else any match that doesn't immediately return to the
// previous station. It stops when toCode is reached, after
// MaxSegmentExpansionSteps, or at a dead end, returning the partial path
// including whichever endpoints were reached.
func (g *Graph) StationsAlongLineSegment(lineID string, fromCode, toCode int32) []Station {
	var path []Station

	from, err := g.StationByCode(fromCode)
	if err != nil {
		return path
	}
	path = append(path, from)

	if fromCode == toCode {
		return path
	}

	current := fromCode
	prev := int32(unsetTo)
	for steps := 0; steps < MaxSegmentExpansionSteps; steps++ {
		lines := g.LinesFrom(current)
		var chosen *TransportationLine
		var fallback *TransportationLine
		for i := range lines {
			l := &lines[i]
			if l.LineID != lineID {
				continue
			}
			if l.To == toCode {
				chosen = l
				break
			}
			if l.To != prev && fallback == nil {
				fallback = l
			}
		}
		if chosen == nil {
			chosen = fallback
		}
		if chosen == nil {
			return path
		}

		next, err := g.StationByCode(chosen.To)
		if err != nil {
			return path
		}
		path = append(path, next)
		prev = current
		current = chosen.To
		if current == toCode {
			return path
		}
	}
	return path
}
