// Package graph holds the in-memory transit network: stations with
// coordinates and their outgoing lines, loaded once from GTFS text files at
// startup and read-only thereafter.
package graph

import "github.com/routify-transit/routify/internal/geo"

// Mode is the closed set of transport modes a line can run on. Walk is a
// synthetic mode generated by the route/planner packages, never read from
// GTFS.
type Mode int

const (
	Bus Mode = iota
	Train
	LightTrain
	Walk
)

func (m Mode) String() string {
	switch m {
	case Bus:
		return "Bus"
	case Train:
		return "Train"
	case LightTrain:
		return "LightTrain"
	case Walk:
		return "Walk"
	default:
		return "Unknown"
	}
}

// unsetTo marks a TransportationLine whose destination hasn't been learned
// yet during ingestion (see IngestStopTimes step 2).
const unsetTo int32 = -1

// StartLineID and WalkLineID are the sentinel line ids used outside of
// GTFS: Start marks the first step of a route, Walk marks a synthetic
// walking leg.
const (
	StartLineID = "Start"
	WalkLineID  = "Walk"
)

// TransportationLine is a directed edge from the station it hangs off of to
// another station, named by a GTFS line/route id. Two lines are considered
// equal by LineID alone — used during ingestion to aggregate arrival times
// under one line per (station, line id) pair.
type TransportationLine struct {
	LineID                           string
	To                               int32
	TravelTimeMinutes                float64
	Mode                             Mode
	ArrivalTimesMinutesSinceMidnight []int
}

// SameLine reports whether two lines are the "same" line per the
// aggregation rule: equal LineID.
func SameLine(a, b TransportationLine) bool {
	return a.LineID == b.LineID
}

// NewStartLine builds the sentinel Start edge for the first step of a route.
func NewStartLine(firstStationCode int32) TransportationLine {
	return TransportationLine{LineID: StartLineID, To: firstStationCode, Mode: Walk}
}

// NewWalkLine builds a synthetic Walk edge to destCode taking travelTimeMinutes.
func NewWalkLine(destCode int32, travelTimeMinutes float64) TransportationLine {
	return TransportationLine{LineID: WalkLineID, To: destCode, TravelTimeMinutes: travelTimeMinutes, Mode: Walk}
}

// IsPublic reports whether the line represents a real public-transport
// boarding (not Start, not Walk).
func (l TransportationLine) IsPublic() bool {
	return l.LineID != StartLineID && l.LineID != WalkLineID
}

// Station is a boardable node in the graph: a code, a name, coordinates,
// and its outgoing lines. Two stations are equal iff their codes are equal.
type Station struct {
	Code          int32
	Name          string
	Coordinates   geo.Coordinates
	OutgoingLines []TransportationLine
}

// Equal reports station equality by code.
func (s Station) Equal(other Station) bool {
	return s.Code == other.Code
}
