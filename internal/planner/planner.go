package planner

import (
	"log/slog"
	"sync"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/ga"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/metrics"
	"github.com/routify-transit/routify/internal/route"
)

// Decision classifies the outcome of Plan's direct-walk-vs-transit logic
// (the planner's direct-walk-vs-transit decision).
type Decision int

const (
	RouteFound Decision = iota
	DirectWalk
	NoRoute
)

// Walk-vs-transit decision thresholds.
const (
	maxReasonableWalkKM    = 2.0
	preferWalkThresholdMin = 5.0
	maxFinalWalkKM         = 1.5
)

// Result is the planner's output for one request: either a transit route,
// a direct-walk advisory, or a no-route outcome.
type Result struct {
	Decision             Decision
	Route                *route.Route
	StartCode            int32
	EndCode              int32
	Fitness              float64
	DirectWalkDistanceKM float64
	DirectWalkTimeMins   float64
	Reason               string
	Warning              string
}

// Planner orchestrates the multi-start parallel GA.
// It holds only a read-only graph reference and a process-wide GA
// concurrency pool; it is safe for concurrent use by multiple request
// handlers.
type Planner struct {
	graph  *graph.Graph
	pool   *ga.Pool
	logger *slog.Logger
}

// New builds a Planner over g, logging through logger. GA tasks across all
// requests share a single process-wide pool sized at runtime.GOMAXPROCS.
func New(g *graph.Graph, logger *slog.Logger) *Planner {
	return &Planner{graph: g, pool: ga.NewPool(0), logger: logger}
}

// Plan runs the full planning pipeline: validation, nearby discovery,
// representative start selection, parallel GA fan-out, reduction, and the
// direct-walk-vs-transit decision.
func (p *Planner) Plan(userCoords, destCoords geo.Coordinates, params GAParams) (*Result, error) {
	if !userCoords.Valid() || !destCoords.Valid() {
		return nil, apperr.New(apperr.InvalidInput, "invalid coordinates")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	startCandidates := p.graph.Nearby(userCoords)
	endCandidates := p.graph.Nearby(destCoords)
	if len(startCandidates) == 0 || len(endCandidates) == 0 {
		return nil, apperr.New(apperr.NoNearbyStations, "no stations found near one or both coordinates")
	}

	starts, roles := selectRepresentativeStarts(startCandidates, userCoords)
	end := endCandidates[0]

	best := p.fanOutAndReduce(starts, roles, end, userCoords, destCoords, params)

	directWalkDistance := geo.Haversine(userCoords, destCoords)
	directWalkTime := directWalkDistance / geo.WalkSpeedKMH * 60
	walkFeasible := directWalkDistance < maxReasonableWalkKM

	result := p.decide(best, userCoords, destCoords, directWalkDistance, directWalkTime, walkFeasible)
	p.recordDecisionMetrics(result, best)
	return result, nil
}

// fanOutAndReduce launches one GA task per (start, end) pair with
// start != end, waits for all of them, and returns the highest-fitness
// successful result, or nil if none succeeded.
func (p *Planner) fanOutAndReduce(starts []graph.Station, roles []startRole, end graph.Station, userCoords, destCoords geo.Coordinates, params GAParams) *TaskResult {
	type pair struct {
		station graph.Station
		role    startRole
	}
	var pairs []pair
	for i, s := range starts {
		if s.Code != end.Code {
			pairs = append(pairs, pair{s, roles[i]})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	results := make([]TaskResult, len(pairs))
	var wg sync.WaitGroup
	for i, pr := range pairs {
		wg.Add(1)
		go func(i int, startCode int32, role startRole) {
			defer wg.Done()
			results[i] = runGATask(p.pool, p.graph, startCode, end.Code, role, userCoords, destCoords, params, p.logger)
		}(i, pr.station.Code, pr.role)
	}
	wg.Wait()

	var best *TaskResult
	for i := range results {
		if !results[i].Success {
			continue
		}
		if best == nil || results[i].Fitness > best.Fitness {
			best = &results[i]
		}
	}
	if best != nil {
		metrics.GATaskWinsByStartRole.WithLabelValues(string(best.StartRole)).Inc()
	}
	return best
}

// recordDecisionMetrics tallies the final planner decision and the
// generations the winning task ran, per the routify_planner_decisions_total
// and routify_ga_generations_run_total collectors.
func (p *Planner) recordDecisionMetrics(result *Result, best *TaskResult) {
	decision := decisionLabel(result.Decision)
	metrics.PlannerDecisions.WithLabelValues(decision).Inc()
	if best != nil {
		metrics.GAGenerationsRun.WithLabelValues(decision).Add(float64(best.GenerationsRun))
	}
}

func decisionLabel(d Decision) string {
	switch d {
	case RouteFound:
		return "route_found"
	case DirectWalk:
		return "direct_walk"
	case NoRoute:
		return "no_route"
	default:
		return "unknown"
	}
}

// decide applies, in order, the direct-walk-vs-transit decision rules.
func (p *Planner) decide(best *TaskResult, userCoords, destCoords geo.Coordinates, walkDistance, walkTime float64, walkFeasible bool) *Result {
	if best == nil {
		if walkFeasible {
			return &Result{
				Decision:             DirectWalk,
				Reason:               "No transit route found; direct walk is within range",
				DirectWalkDistanceKM: walkDistance,
				DirectWalkTimeMins:   walkTime,
			}
		}
		return &Result{
			Decision:             NoRoute,
			Reason:               "No transit route found and direct walk too long",
			DirectWalkDistanceKM: walkDistance,
			DirectWalkTimeMins:   walkTime,
		}
	}

	if isWalkOnly(best.Route) && walkFeasible {
		return &Result{
			Decision:             DirectWalk,
			Reason:               "No public transport used by the transit route",
			DirectWalkDistanceKM: walkDistance,
			DirectWalkTimeMins:   walkTime,
			StartCode:            best.StartCode,
			EndCode:              best.EndCode,
		}
	}

	journeyTime := best.Route.FullJourneyTime(p.graph, best.StartCode, best.EndCode, userCoords, destCoords)
	if walkFeasible && walkTime < journeyTime+preferWalkThresholdMin {
		return &Result{
			Decision:             DirectWalk,
			Reason:               "Direct walk is faster or comparable",
			DirectWalkDistanceKM: walkDistance,
			DirectWalkTimeMins:   walkTime,
			StartCode:            best.StartCode,
			EndCode:              best.EndCode,
		}
	}

	result := &Result{
		Decision:             RouteFound,
		Route:                best.Route,
		StartCode:            best.StartCode,
		EndCode:              best.EndCode,
		Fitness:              best.Fitness,
		DirectWalkDistanceKM: walkDistance,
		DirectWalkTimeMins:   walkTime,
	}

	lastStation := best.Route.VisitedSteps()[best.Route.Len()-1].Station
	if geo.Haversine(lastStation.Coordinates, destCoords) > maxFinalWalkKM {
		result.Warning = "Route requires a long final walk"
	}
	return result
}

// isWalkOnly reports whether a route never rides a public line (only the
// sentinel Start step and, optionally, synthetic Walk steps).
func isWalkOnly(r *route.Route) bool {
	for _, s := range r.VisitedSteps() {
		if s.LineTaken.IsPublic() {
			return false
		}
	}
	return true
}
