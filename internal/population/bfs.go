package population

import (
	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/route"
)

// bfsLink records, for one visited station during BFS, the station it was
// reached from and the line used to reach it.
type bfsLink struct {
	parent int32
	lineID string
}

// bfsSeed runs a BFS over the graph treated as an unweighted directed
// network of stations and reconstructs the hop-minimal
// path from startCode to destCode as a Route. Returns a NoPath error if
// destCode is unreachable.
func bfsSeed(g *graph.Graph, startCode, destCode int32) (*route.Route, error) {
	startStation, err := g.StationByCode(startCode)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "start station not found", err)
	}

	if startCode == destCode {
		r := route.New()
		r.AddStep(route.VisitedStep{Station: startStation, LineTaken: graph.NewStartLine(startCode), PrevStationCode: -1})
		return r, nil
	}

	visited := map[int32]bfsLink{startCode: {parent: -1}}
	queue := []int32{startCode}
	reached := false

	for i := 0; i < len(queue) && !reached; i++ {
		cur := queue[i]
		for _, l := range g.LinesFrom(cur) {
			if !g.HasStation(l.To) {
				continue
			}
			if _, seen := visited[l.To]; seen {
				continue
			}
			visited[l.To] = bfsLink{parent: cur, lineID: l.LineID}
			queue = append(queue, l.To)
			if l.To == destCode {
				reached = true
				break
			}
		}
	}

	if _, ok := visited[destCode]; !ok {
		return nil, apperr.New(apperr.NoPath, "no path exists between start and destination stations")
	}

	chain := []int32{destCode}
	cur := destCode
	maxIterations := g.StationCount() + 5
	for cur != startCode {
		link := visited[cur]
		cur = link.parent
		chain = append(chain, cur)
		if len(chain) > maxIterations {
			return nil, apperr.New(apperr.Internal, "BFS reconstruction failed to terminate")
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	r := route.New()
	r.AddStep(route.VisitedStep{Station: startStation, LineTaken: graph.NewStartLine(startCode), PrevStationCode: -1})

	prev := startCode
	for i := 1; i < len(chain); i++ {
		code := chain[i]
		link := visited[code]

		var chosen graph.TransportationLine
		found := false
		for _, l := range g.LinesFrom(prev) {
			if l.LineID == link.lineID && l.To == code {
				chosen = l
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.New(apperr.Internal, "BFS reconstruction could not locate source line")
		}

		station, err := g.StationByCode(code)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "BFS reconstruction hit a missing station", err)
		}
		r.AddStep(route.VisitedStep{Station: station, LineTaken: chosen, PrevStationCode: prev})
		prev = code
	}

	return r, nil
}
