package population

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildChainGraph builds a four-station single-line chain A-B-C-D, matching
// the two-hop-plus fixtures used across the route and graph test suites.
func buildChainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	const stops = `h
1,1,A,,0.0,0.0
2,2,B,,0.0,0.005
3,3,C,,0.0,0.010
4,4,D,,0.0,0.015
`
	const stopTimes = `h
L1,1,08:00:00,1
L1,1,08:05:00,2
L1,1,08:10:00,3
L1,1,08:15:00,4
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

func TestNewSeedsValidBFSBase(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(1, 2))

	startStation, _ := g.StationByCode(1)
	destStation, _ := g.StationByCode(4)

	p, err := New(10, 1, 4, startStation.Coordinates, destStation.Coordinates, g, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.State() != Seeded {
		t.Fatalf("expected Seeded state, got %v", p.State())
	}
	if p.Size() == 0 {
		t.Fatalf("expected non-empty population")
	}
	for _, r := range p.Routes() {
		if !r.IsValid(1, 4, g) {
			t.Fatalf("seeded route failed validation: %+v", r.VisitedSteps())
		}
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(1, 2))
	if _, err := New(0, 1, 4, geo.Coordinates{}, geo.Coordinates{}, g, rng); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestNewRejectsUnknownStation(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(1, 2))
	if _, err := New(5, 1, 999, geo.Coordinates{}, geo.Coordinates{}, g, rng); err == nil {
		t.Fatalf("expected error for unknown destination station")
	}
}

func TestSingleStepPopulationWhenStartEqualsDest(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(1, 2))
	startStation, _ := g.StationByCode(1)

	p, err := New(3, 1, 1, startStation.Coordinates, startStation.Coordinates, g, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, r := range p.Routes() {
		if r.Len() != 1 {
			t.Fatalf("expected single-step routes, got len %d", r.Len())
		}
	}
}

func TestEvolveProducesNonDecreasingBestFitness(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(7, 11))
	startStation, _ := g.StationByCode(1)
	destStation, _ := g.StationByCode(4)

	p, err := New(12, 1, 4, startStation.Coordinates, destStation.Coordinates, g, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	initialBest := p.Best()
	if initialBest == nil {
		t.Fatalf("expected non-nil best before evolve")
	}
	initialFitness := initialBest.Fitness(g, 1, 4, startStation.Coordinates, destStation.Coordinates)

	p.Evolve(5, 0.3)

	if p.State() != HasSolution && p.State() != Extinct {
		t.Fatalf("expected terminal state after Evolve, got %v", p.State())
	}
	if p.State() == HasSolution {
		best := p.Best()
		if best == nil {
			t.Fatalf("expected non-nil best after evolve")
		}
		if !best.IsValid(1, 4, g) {
			t.Fatalf("expected best route valid after evolve")
		}
		if f := best.Fitness(g, 1, 4, startStation.Coordinates, destStation.Coordinates); f < initialFitness {
			t.Fatalf("expected best fitness not to decrease: before %v, after %v", initialFitness, f)
		}
	}
}

func TestEvolveWithTwoRoutesStillReachesTargetSize(t *testing.T) {
	g := buildChainGraph(t)
	rng := rand.New(rand.NewPCG(3, 4))
	startStation, _ := g.StationByCode(1)
	destStation, _ := g.StationByCode(4)

	p, err := New(2, 1, 4, startStation.Coordinates, destStation.Coordinates, g, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Evolve(3, 0.5)

	if p.State() == HasSolution && p.Size() != p.TargetSize() {
		t.Fatalf("expected population size to return to target %d, got %d", p.TargetSize(), p.Size())
	}
}
