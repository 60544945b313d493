package planner

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildThreeWayGraph gives three disjoint lines converging on a common end
// station E, with S2 the shortest.
func buildThreeWayGraph(t *testing.T) *graph.Graph {
	t.Helper()
	const stops = `h
1,1,S1,,0.0,0.050
2,2,S2,,0.0,0.002
3,3,S3,,0.0,0.100
4,4,E,,0.0,0.200
`
	const stopTimes = `h
LA,1,08:00:00,1
LA,1,08:30:00,4
LB,2,08:00:00,2
LB,2,08:05:00,4
LC,3,08:00:00,3
LC,3,08:45:00,4
`
	g := graph.New()
	logger := discardLogger()
	if err := g.IngestStops(strings.NewReader(stops), logger); err != nil {
		t.Fatalf("ingest stops: %v", err)
	}
	if err := g.IngestStopTimes(strings.NewReader(stopTimes), logger); err != nil {
		t.Fatalf("ingest stop times: %v", err)
	}
	g.Finalize()
	return g
}

func TestPlanRejectsInvalidCoordinates(t *testing.T) {
	g := buildThreeWayGraph(t)
	p := New(g, discardLogger())

	_, err := p.Plan(geo.Coordinates{Lat: 999, Lon: 0}, geo.Coordinates{Lat: 0, Lon: 0}, DefaultGAParams)
	if err == nil {
		t.Fatalf("expected error for invalid coordinates")
	}
}

func TestPlanRejectsInvalidParams(t *testing.T) {
	g := buildThreeWayGraph(t)
	p := New(g, discardLogger())

	bad := GAParams{Generations: 0, MutationRate: 0.3, PopulationSize: 10}
	_, err := p.Plan(geo.Coordinates{Lat: 0, Lon: 0}, geo.Coordinates{Lat: 0, Lon: 0.2}, bad)
	if err == nil {
		t.Fatalf("expected error for zero generations")
	}
}

func TestPlanNoNearbyStationsFarFromEverything(t *testing.T) {
	g := buildThreeWayGraph(t)
	p := New(g, discardLogger())

	_, err := p.Plan(geo.Coordinates{Lat: 45, Lon: 45}, geo.Coordinates{Lat: 0, Lon: 0.2}, DefaultGAParams)
	if err == nil {
		t.Fatalf("expected NoNearbyStations error")
	}
}

func TestPlanFindsRouteBetweenNearbyStations(t *testing.T) {
	g := buildThreeWayGraph(t)
	p := New(g, discardLogger())

	params := GAParams{Generations: 20, MutationRate: 0.3, PopulationSize: 12}
	result, err := p.Plan(geo.Coordinates{Lat: 0, Lon: 0.002}, geo.Coordinates{Lat: 0, Lon: 0.200}, params)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Decision != RouteFound && result.Decision != DirectWalk {
		t.Fatalf("expected a decided outcome, got %v", result.Decision)
	}
}

func TestSelectRepresentativeStartsCapsAtThree(t *testing.T) {
	g := buildThreeWayGraph(t)
	candidates := g.Nearby(geo.Coordinates{Lat: 0, Lon: 0.05})
	starts, roles := selectRepresentativeStarts(candidates, geo.Coordinates{Lat: 0, Lon: 0.05})
	if len(starts) > maxCandidateStartStations {
		t.Fatalf("expected at most %d starts, got %d", maxCandidateStartStations, len(starts))
	}
	if len(roles) != len(starts) {
		t.Fatalf("expected one role per start, got %d roles for %d starts", len(roles), len(starts))
	}
}

func TestClampOverridesBoundsValues(t *testing.T) {
	clamped := ClampOverrides(GAParams{Generations: -5, MutationRate: 5, PopulationSize: 1})
	if clamped.Generations < minGenerations {
		t.Fatalf("expected generations clamped to >= %d, got %d", minGenerations, clamped.Generations)
	}
	if clamped.MutationRate > 1 {
		t.Fatalf("expected mutation rate clamped to <= 1, got %v", clamped.MutationRate)
	}
	if clamped.PopulationSize < minPopulationSize {
		t.Fatalf("expected population size clamped to >= %d, got %d", minPopulationSize, clamped.PopulationSize)
	}
}
