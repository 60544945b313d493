package protocol

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/planner"
	"github.com/routify-transit/routify/internal/route"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleStops = `stop_id,stop_code,stop_name,zone,stop_lat,stop_lon
1,1,"Station A",,0.0,0.0
2,2,"Station B",,0.0,0.005
3,3,"Station C",,0.0,0.010
`

const sampleStopTimes = `line_id,trip_id,arrival_time,stop_code
L1,100,08:00:00,1
L1,100,08:05:00,2
L1,100,08:10:00,3
`

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	logger := discardLogger()
	if err := g.IngestStops(strings.NewReader(sampleStops), logger); err != nil {
		t.Fatalf("IngestStops: %v", err)
	}
	if err := g.IngestStopTimes(strings.NewReader(sampleStopTimes), logger); err != nil {
		t.Fatalf("IngestStopTimes: %v", err)
	}
	g.Finalize()
	return g
}

func TestLinesFromStationSkipsSentinelLines(t *testing.T) {
	g := buildSampleGraph(t)

	entries, err := LinesFromStation(g, 1)
	if err != nil {
		t.Fatalf("LinesFromStation: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "L1" || entries[0].ToCode != 2 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLinesFromStationUnknownStation(t *testing.T) {
	g := buildSampleGraph(t)
	if _, err := LinesFromStation(g, 999); err == nil {
		t.Fatal("expected error for unknown station")
	}
}

func TestStationInfoForKnownStation(t *testing.T) {
	g := buildSampleGraph(t)
	info, err := StationInfoFor(g, 2)
	if err != nil {
		t.Fatalf("StationInfoFor: %v", err)
	}
	if info.Code != 2 || info.Name != "Station B" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestGAParamsFromEnvelopeFallsBackToDefaults(t *testing.T) {
	p := GAParamsFromEnvelope(Envelope{Type: TypeRoute})
	if p != planner.ClampOverrides(planner.DefaultGAParams) {
		t.Fatalf("expected clamped defaults, got %+v", p)
	}
}

func TestGAParamsFromEnvelopeAppliesOverrides(t *testing.T) {
	p := GAParamsFromEnvelope(Envelope{Gen: 50, Mut: 0.1, PopSize: 20})
	if p.Generations != 50 || p.MutationRate != 0.1 || p.PopulationSize != 20 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestBuildRouteResponseShapesWireDocument(t *testing.T) {
	g := buildSampleGraph(t)

	a, err := g.StationByCode(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.StationByCode(2)
	if err != nil {
		t.Fatal(err)
	}
	c, err := g.StationByCode(3)
	if err != nil {
		t.Fatal(err)
	}

	r := route.FromSteps([]route.VisitedStep{
		{Station: a, LineTaken: graph.NewStartLine(a.Code), PrevStationCode: -1},
		{Station: b, LineTaken: g.LinesFrom(1)[0], PrevStationCode: 1},
		{Station: c, LineTaken: g.LinesFrom(2)[0], PrevStationCode: 2},
	})

	userCoords := geo.Coordinates{Lat: 0, Lon: 0}
	destCoords := c.Coordinates

	result := &planner.Result{
		Decision:  planner.RouteFound,
		Route:     r,
		StartCode: 1,
		EndCode:   3,
		Fitness:   r.Fitness(g, 1, 3, userCoords, destCoords),
	}

	resp := BuildRouteResponse(g, result, userCoords, destCoords)

	if resp.Status != statusRouteFound {
		t.Fatalf("expected status %q, got %q", statusRouteFound, resp.Status)
	}
	if resp.FromStation.Code != 1 || resp.ToStation.Code != 3 {
		t.Fatalf("unexpected endpoints: %+v -> %+v", resp.FromStation, resp.ToStation)
	}
	if len(resp.DetailedSteps) == 0 {
		t.Fatal("expected at least one detailed step")
	}
	if resp.Summary.Transfers != 0 {
		t.Errorf("expected 0 transfers riding a single line, got %d", resp.Summary.Transfers)
	}
}

func TestBuildDirectWalkResponse(t *testing.T) {
	userCoords := geo.Coordinates{Lat: 0, Lon: 0}
	destCoords := geo.Coordinates{Lat: 0, Lon: 0.01}

	result := &planner.Result{
		Decision:             planner.DirectWalk,
		Reason:               "No transit route found; direct walk is within range",
		DirectWalkDistanceKM: 1.1,
		DirectWalkTimeMins:   13.2,
	}

	resp := BuildDirectWalkResponse(result, userCoords, destCoords)
	if resp.Status != statusDirectWalk {
		t.Fatalf("expected status %q, got %q", statusDirectWalk, resp.Status)
	}
	if resp.WalkDistanceKM != 1.1 || resp.WalkTimeMins != 13.2 {
		t.Fatalf("unexpected walk figures: %+v", resp)
	}
}

func TestBuildNoRouteResponse(t *testing.T) {
	result := &planner.Result{Decision: planner.NoRoute, Reason: "No transit route found and direct walk too long"}
	resp := BuildNoRouteResponse(result)
	if resp.Status != statusNoRoute {
		t.Fatalf("expected status %q, got %q", statusNoRoute, resp.Status)
	}
	if resp.Reason == "" {
		t.Fatal("expected a reason")
	}
}

func TestNewErrorResponseClassifiesKind(t *testing.T) {
	err := apperr.New(apperr.NotFound, "station not found")
	resp := NewErrorResponse(err)
	if resp.Error != "NotFound" {
		t.Fatalf("expected NotFound kind, got %q", resp.Error)
	}
}
