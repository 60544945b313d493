// Package protocol defines the JSON request/response shapes exchanged over
// Routify's TCP planner connection, and the conversions from the planner's
// internal results into those shapes.
package protocol

import (
	"errors"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/planner"
)

// RequestType discriminates the three request shapes accepted on the TCP
// connection.
type RequestType int

const (
	TypeLinesFromStation RequestType = 0
	TypeStationInfo      RequestType = 1
	TypeRoute            RequestType = 2
)

// Envelope is the outer shape every request carries: a type discriminator
// plus the fields relevant to that type, left zero-valued otherwise.
type Envelope struct {
	Type      RequestType `json:"type"`
	StationID int32       `json:"stationId"`
	StartLat  float64     `json:"startLat"`
	StartLong float64     `json:"startLong"`
	EndLat    float64     `json:"endLat"`
	EndLong   float64     `json:"endLong"`
	Gen       int         `json:"gen,omitempty"`
	Mut       float64     `json:"mut,omitempty"`
	PopSize   int         `json:"popSize,omitempty"`
}

// ErrorResponse is the JSON body returned for any request that fails
// before producing a type-specific response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// NewErrorResponse builds an ErrorResponse from err, using apperr.KindOf to
// classify it and falling back to a generic message for unclassified causes.
func NewErrorResponse(err error) ErrorResponse {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return ErrorResponse{
			Error:   string(apperr.Internal),
			Details: "unexpected server error",
		}
	}
	kind := apperr.KindOf(err)
	return ErrorResponse{
		Error:   string(kind),
		Details: err.Error(),
	}
}

// GAParamsFromEnvelope builds GAParams from a type=2 envelope's optional
// gen/mut/popSize overrides, falling back field-by-field to
// planner.DefaultGAParams for zero values before clamping.
func GAParamsFromEnvelope(e Envelope) planner.GAParams {
	p := planner.DefaultGAParams
	if e.Gen != 0 {
		p.Generations = e.Gen
	}
	if e.Mut != 0 {
		p.MutationRate = e.Mut
	}
	if e.PopSize != 0 {
		p.PopulationSize = e.PopSize
	}
	return planner.ClampOverrides(p)
}

// LineEntry is one entry of the type=0 lines-from-station response: a line
// departing the requested station and the station it leads to.
type LineEntry struct {
	ID     string `json:"id"`
	ToCode int32  `json:"to_code"`
	ToName string `json:"to_name"`
}

// LinesFromStation builds the type=0 response body from the graph's
// outgoing lines for stationCode, skipping the sentinel Start/Walk lines
// and any line whose destination station can't be resolved.
func LinesFromStation(g *graph.Graph, stationCode int32) ([]LineEntry, error) {
	if !g.HasStation(stationCode) {
		return nil, apperr.New(apperr.NotFound, "station not found")
	}

	lines := g.LinesFrom(stationCode)
	out := make([]LineEntry, 0, len(lines))
	for _, l := range lines {
		if !l.IsPublic() {
			continue
		}
		to, err := g.StationByCode(l.To)
		if err != nil {
			continue
		}
		out = append(out, LineEntry{ID: l.LineID, ToCode: to.Code, ToName: to.Name})
	}
	return out, nil
}

// StationInfo is the type=1 response body: one station's identity and
// location.
type StationInfo struct {
	Code      int32   `json:"code"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StationInfoFor builds the type=1 response body for the requested
// station code.
func StationInfoFor(g *graph.Graph, stationCode int32) (StationInfo, error) {
	s, err := g.StationByCode(stationCode)
	if err != nil {
		return StationInfo{}, apperr.New(apperr.NotFound, "station not found")
	}
	return StationInfo{
		Code:      s.Code,
		Name:      s.Name,
		Latitude:  s.Coordinates.Lat,
		Longitude: s.Coordinates.Lon,
	}, nil
}

// StationRef names a station by code and name, used in RouteResponse's
// from_station/to_station and in DetailedStepJSON's from/to.
type StationRef struct {
	Code int32   `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat,omitempty"`
	Long float64 `json:"long,omitempty"`
}

func stationRef(s graph.Station) StationRef {
	return StationRef{Code: s.Code, Name: s.Name, Lat: s.Coordinates.Lat, Long: s.Coordinates.Lon}
}

// Summary is RouteResponse's aggregate stats block.
type Summary struct {
	Fitness   float64 `json:"fitness"`
	TimeMins  float64 `json:"time_mins"`
	Cost      float64 `json:"cost"`
	Transfers int     `json:"transfers"`
}

// DetailedStepJSON is the wire shape of one planner.DetailedStep.
type DetailedStepJSON struct {
	SegmentIndex      int          `json:"segment_index"`
	LineID            string       `json:"line_id"`
	From              StationRef   `json:"from"`
	To                StationRef   `json:"to"`
	IntermediateStops []StationRef `json:"intermediate_stops"`
	ActionDescription string       `json:"action_description"`
	FromIsActionPoint bool         `json:"from_is_action_point"`
	ToIsActionPoint   bool         `json:"to_is_action_point"`
}

func detailedStepJSON(d planner.DetailedStep) DetailedStepJSON {
	stops := make([]StationRef, len(d.IntermediateStops))
	for i, s := range d.IntermediateStops {
		stops[i] = stationRef(s)
	}
	return DetailedStepJSON{
		SegmentIndex:      d.SegmentIndex,
		LineID:            d.LineID,
		From:              stationRef(d.From),
		To:                stationRef(d.To),
		IntermediateStops: stops,
		ActionDescription: d.ActionDescription,
		FromIsActionPoint: d.FromIsActionPoint,
		ToIsActionPoint:   d.ToIsActionPoint,
	}
}

// RouteResponse is the type=2 "Route found" response document.
type RouteResponse struct {
	Status        string             `json:"status"`
	FromStation   StationRef         `json:"from_station"`
	ToStation     StationRef         `json:"to_station"`
	Summary       Summary            `json:"summary"`
	DetailedSteps []DetailedStepJSON `json:"detailed_steps"`
	Warning       string             `json:"warning,omitempty"`
}

// DirectWalkResponse is the type=2 direct-walk advisory response.
type DirectWalkResponse struct {
	Status          string     `json:"status"`
	Reason          string     `json:"reason"`
	WalkDistanceKM  float64    `json:"walk_distance_km"`
	WalkTimeMins    float64    `json:"walk_time_mins"`
	FromCoordinates StationRef `json:"from_coords"`
	ToCoordinates   StationRef `json:"to_coords"`
}

// NoRouteResponse is the type=2 response when neither a transit route nor
// a feasible direct walk exists.
type NoRouteResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

const (
	statusRouteFound = "Route found"
	statusDirectWalk = "Direct walk recommended"
	statusNoRoute    = "No route found"
)

// BuildRouteResponse converts a planner.Result with Decision == RouteFound
// into its wire shape.
func BuildRouteResponse(g *graph.Graph, result *planner.Result, userCoords, destCoords geo.Coordinates) RouteResponse {
	steps := result.Route.VisitedSteps()
	from := steps[0].Station
	to := steps[len(steps)-1].Station

	detailed := planner.BuildDetailedSteps(g, result.Route, destCoords)
	jsonSteps := make([]DetailedStepJSON, len(detailed))
	for i, d := range detailed {
		jsonSteps[i] = detailedStepJSON(d)
	}

	return RouteResponse{
		Status:      statusRouteFound,
		FromStation: stationRef(from),
		ToStation:   stationRef(to),
		Summary: Summary{
			Fitness:   result.Fitness,
			TimeMins:  result.Route.FullJourneyTime(g, result.StartCode, result.EndCode, userCoords, destCoords),
			Cost:      result.Route.TotalCost(g),
			Transfers: result.Route.TransferCount(),
		},
		DetailedSteps: jsonSteps,
		Warning:       result.Warning,
	}
}

// BuildDirectWalkResponse converts a planner.Result with Decision ==
// DirectWalk into its wire shape.
func BuildDirectWalkResponse(result *planner.Result, userCoords, destCoords geo.Coordinates) DirectWalkResponse {
	return DirectWalkResponse{
		Status:          statusDirectWalk,
		Reason:          result.Reason,
		WalkDistanceKM:  result.DirectWalkDistanceKM,
		WalkTimeMins:    result.DirectWalkTimeMins,
		FromCoordinates: StationRef{Lat: userCoords.Lat, Long: userCoords.Lon},
		ToCoordinates:   StationRef{Lat: destCoords.Lat, Long: destCoords.Lon},
	}
}

// BuildNoRouteResponse converts a planner.Result with Decision == NoRoute
// into its wire shape.
func BuildNoRouteResponse(result *planner.Result) NoRouteResponse {
	return NoRouteResponse{
		Status: statusNoRoute,
		Reason: result.Reason,
	}
}
