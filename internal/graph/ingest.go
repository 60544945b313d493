package graph

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
)

// IngestStops reads a stops.txt-shaped CSV stream (header skipped, at least
// 6 comma-separated fields per row: index 1 = stop_code, 2 = stop_name,
// 4 = latitude, 5 = longitude) and inserts one Station per row. Invalid
// coordinates are logged but the station is still inserted.
func (g *Graph) IngestStops(r io.Reader, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	skippedHeader := false
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !skippedHeader {
			skippedHeader = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitCSVRow(line)
		if len(fields) < 6 {
			logger.Warn("skipping malformed stops row", "line", lineNo, "fields", len(fields))
			continue
		}

		code, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			logger.Warn("skipping stops row with unparseable stop_code", "line", lineNo, "value", fields[1])
			continue
		}

		lat, latErr := strconv.ParseFloat(fields[4], 64)
		lon, lonErr := strconv.ParseFloat(fields[5], 64)
		coords := geo.Coordinates{Lat: lat, Lon: lon}
		if latErr != nil || lonErr != nil || !coords.Valid() {
			logger.Warn("invalid stop coordinates, inserting station anyway", "line", lineNo, "stop_code", code)
		}

		g.insertStation(Station{
			Code:        int32(code),
			Name:        fields[2],
			Coordinates: coords,
		})
	}
	if err := scanner.Err(); err != nil {
		return apperr.Wrap(apperr.IOError, "reading stops file", err)
	}
	return nil
}

// lastLineRef tracks the outgoing-line slot most recently appended during
// stop-times ingestion, so the next row in the same trip can patch its To
// field by index rather than by a raw pointer — this sidesteps the
// pointer-invalidation hazard a growing slice would otherwise create (see
// the "raw-pointer aggregation" design note).
type lastLineRef struct {
	stationCode int32
	lineIndex   int
	valid       bool
}

// IngestStopTimes reads a stop_times_filtered.txt-shaped CSV stream (header
// skipped, at least 4 fields per row: 0 = line_id, 1 = trip_id,
// 2 = HH:MM:SS, 3 = station_code), expected grouped by trip_id in temporal
// order: each station accumulates one TransportationLine per
// distinct line_id passing through it, its To set to the next stop on the
// same trip, and its full arrival-time list.
func (g *Graph) IngestStopTimes(r io.Reader, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	skippedHeader := false
	lastTripID := ""
	var lastLine lastLineRef

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !skippedHeader {
			skippedHeader = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitCSVRow(line)
		if len(fields) < 4 {
			logger.Warn("skipping malformed stop_times row", "line", lineNo, "fields", len(fields))
			continue
		}

		lineID := fields[0]
		tripID := fields[1]
		minutes, ok := parseHHMMSSToMinutes(fields[2])
		if !ok {
			logger.Warn("skipping stop_times row with unparseable time", "line", lineNo, "value", fields[2])
			continue
		}
		stationCode, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			logger.Warn("skipping stop_times row with unparseable station_code", "line", lineNo, "value", fields[3])
			continue
		}
		code := int32(stationCode)
		if !g.HasStation(code) {
			logger.Warn("skipping stop_times row referencing unknown station", "line", lineNo, "station_code", code)
			continue
		}

		if tripID == lastTripID && lastLine.valid {
			prevStation := g.stations[lastLine.stationCode]
			prevStation.OutgoingLines[lastLine.lineIndex].To = code
			g.stations[lastLine.stationCode] = prevStation
		}

		station := g.stations[code]
		idx := -1
		for i := range station.OutgoingLines {
			if station.OutgoingLines[i].LineID == lineID {
				idx = i
				break
			}
		}
		if idx == -1 {
			station.OutgoingLines = append(station.OutgoingLines, TransportationLine{
				LineID: lineID,
				To:     unsetTo,
				Mode:   Bus,
			})
			idx = len(station.OutgoingLines) - 1
		}
		station.OutgoingLines[idx].ArrivalTimesMinutesSinceMidnight = append(
			station.OutgoingLines[idx].ArrivalTimesMinutesSinceMidnight, minutes)
		g.stations[code] = station

		lastLine = lastLineRef{stationCode: code, lineIndex: idx, valid: true}
		lastTripID = tripID
	}
	if err := scanner.Err(); err != nil {
		return apperr.Wrap(apperr.IOError, "reading stop_times file", err)
	}
	return nil
}

// splitCSVRow splits a comma-delimited row and strips a single pair of
// wrapping double quotes from each field, matching the feed's quoting
// convention.
func splitCSVRow(line string) []string {
	raw := strings.Split(line, ",")
	fields := make([]string, len(raw))
	for i, f := range raw {
		f = strings.TrimSpace(f)
		if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
			f = f[1 : len(f)-1]
		}
		fields[i] = f
	}
	return fields
}

// parseHHMMSSToMinutes converts an "HH:MM:SS" timestamp to minutes since
// midnight, truncating seconds.
func parseHHMMSSToMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return 0, false
	}
	return h*60 + m, true
}
