package planner

import (
	"fmt"

	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/route"
)

// destinationStationCode marks the synthetic pseudo-station used as the
// "to" of the trailing walk-to-destination step when the caller's literal
// destination coordinates don't coincide with the last station.
const destinationStationCode int32 = -1

// DetailedStep is one displayable segment of a journey: one line ridden (or
// one walking leg) from a boarding/departure point to an alighting/arrival
// point, with any purely pass-through stops expanded in between.
type DetailedStep struct {
	SegmentIndex      int
	LineID            string
	From              graph.Station
	To                graph.Station
	IntermediateStops []graph.Station
	ActionDescription string
	FromIsActionPoint bool
	ToIsActionPoint   bool
}

// BuildDetailedSteps groups a Route's VisitedSteps into displayable
// segments and derives each one's action description. Consecutive
// VisitedSteps riding the same line are folded into one segment whose
// intermediate_stops list the stations passed through without boarding
// action. A trailing synthetic segment is appended when the last station
// doesn't coincide with destCoords, describing the final walk leg.
func BuildDetailedSteps(g *graph.Graph, r *route.Route, destCoords geo.Coordinates) []DetailedStep {
	steps := r.VisitedSteps()
	if len(steps) <= 1 {
		return appendFinalWalk(nil, g, steps, destCoords)
	}

	var out []DetailedStep
	i := 1
	prevLineID := ""
	prevWasPublic := false

	for i < len(steps) {
		lineID := steps[i].LineTaken.LineID
		runStart := i
		for i+1 < len(steps) && steps[i+1].LineTaken.LineID == lineID {
			i++
		}
		runEnd := i // inclusive index of last step in this run

		from := steps[runStart-1].Station
		to := steps[runEnd].Station
		var intermediate []graph.Station
		for k := runStart; k < runEnd; k++ {
			intermediate = append(intermediate, steps[k].Station)
		}

		isPublic := steps[runEnd].LineTaken.IsPublic()
		isFirstSegment := runStart == 1
		isLastSegment := runEnd == len(steps)-1

		desc := actionDescription(lineID, isPublic, isFirstSegment, isLastSegment, prevWasPublic, prevLineID)

		out = append(out, DetailedStep{
			SegmentIndex:      len(out),
			LineID:            lineID,
			From:              from,
			To:                to,
			IntermediateStops: intermediate,
			ActionDescription: desc,
			FromIsActionPoint: true,
			ToIsActionPoint:   true,
		})

		prevLineID = lineID
		prevWasPublic = isPublic
		i = runEnd + 1
	}

	return appendFinalWalk(out, g, steps, destCoords)
}

// actionDescription derives one segment's action label: first segment is
// always Depart, last is always Arrive; otherwise a boarding on a public
// line following a non-public or different-line predecessor is a Transfer;
// a Walk segment between two real stations is "Walk between stations";
// anything else riding a still-open line is "Continue on <line_id>".
func actionDescription(lineID string, isPublic, isFirst, isLast bool, prevWasPublic bool, prevLineID string) string {
	switch {
	case isFirst:
		return "Depart"
	case isLast:
		return "Arrive"
	case isPublic && (!prevWasPublic || prevLineID != lineID):
		return "Transfer"
	case lineID == graph.WalkLineID:
		return "Walk between stations"
	default:
		return fmt.Sprintf("Continue on %s", lineID)
	}
}

// appendFinalWalk adds the trailing synthetic "Walk to destination" segment
// when the route's last station doesn't coincide with destCoords.
func appendFinalWalk(out []DetailedStep, g *graph.Graph, steps []route.VisitedStep, destCoords geo.Coordinates) []DetailedStep {
	if len(steps) == 0 {
		return out
	}
	last := steps[len(steps)-1].Station
	dist := geo.Haversine(last.Coordinates, destCoords)
	if dist <= 0 {
		return out
	}

	destPseudo := graph.Station{
		Code:        destinationStationCode,
		Name:        "Destination",
		Coordinates: destCoords,
	}
	out = append(out, DetailedStep{
		SegmentIndex:      len(out),
		LineID:            graph.WalkLineID,
		From:              last,
		To:                destPseudo,
		ActionDescription: "Walk to destination",
		FromIsActionPoint: true,
		ToIsActionPoint:   true,
	})
	return out
}
