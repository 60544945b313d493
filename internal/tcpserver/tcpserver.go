// Package tcpserver implements Routify's request-per-connection TCP
// protocol: one JSON request decoded, one JSON response encoded, then the
// connection is closed.
package tcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/routify-transit/routify/internal/apperr"
	"github.com/routify-transit/routify/internal/geo"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/metrics"
	"github.com/routify-transit/routify/internal/planner"
	"github.com/routify-transit/routify/internal/protocol"
	"github.com/routify-transit/routify/internal/report"
)

// connDeadline bounds how long a single connection may take to send its
// request and receive its response.
const connDeadline = 30 * time.Second

// Server accepts connections on a TCP listener and serves Routify's
// request/response protocol over each one.
type Server struct {
	graph   *graph.Graph
	planner *planner.Planner
	metrics *metrics.MetricsService
	logger  *slog.Logger
}

// New builds a Server dispatching requests against g and p.
func New(g *graph.Graph, p *planner.Planner, ms *metrics.MetricsService, logger *slog.Logger) *Server {
	return &Server{graph: g, planner: p, metrics: ms, logger: logger}
}

// ListenAndServe opens addr and accepts connections until ctx is
// cancelled, serving each one on its own goroutine.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return apperr.Wrap(apperr.IOError, "failed to listen", err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("starting tcp server", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn decodes one request, dispatches it, encodes the response, and
// closes the connection. A single handler covers the entire lifetime of a
// connection; the protocol is strictly request/response, not streaming.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	start := time.Now()
	var env protocol.Envelope
	if err := json.NewDecoder(conn).Decode(&env); err != nil {
		s.writeError(conn, apperr.Wrap(apperr.ParseError, "malformed request", err), "unknown")
		s.metrics.RecordRequest("unknown", "error", time.Since(start))
		return
	}

	requestType := requestTypeLabel(env.Type)
	resp, err := s.dispatch(env)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.writeError(conn, err, requestType)
	} else if err := json.NewEncoder(conn).Encode(resp); err != nil {
		outcome = "error"
		s.logger.Error("failed to write response", "error", err)
	}
	s.metrics.RecordRequest(requestType, outcome, time.Since(start))
}

func requestTypeLabel(t protocol.RequestType) string {
	switch t {
	case protocol.TypeLinesFromStation:
		return "lines_from_station"
	case protocol.TypeStationInfo:
		return "station_info"
	case protocol.TypeRoute:
		return "route"
	default:
		return "unknown"
	}
}

// dispatch routes env to the handler for its Type and returns the body to
// encode as the response.
func (s *Server) dispatch(env protocol.Envelope) (any, error) {
	switch env.Type {
	case protocol.TypeLinesFromStation:
		return protocol.LinesFromStation(s.graph, env.StationID)
	case protocol.TypeStationInfo:
		return protocol.StationInfoFor(s.graph, env.StationID)
	case protocol.TypeRoute:
		return s.dispatchRoute(env)
	default:
		return nil, apperr.New(apperr.InvalidInput, "unrecognized request type")
	}
}

// dispatchRoute runs the planner for a type=2 request and shapes whichever
// of the three outcomes it returns.
func (s *Server) dispatchRoute(env protocol.Envelope) (any, error) {
	userCoords := geo.Coordinates{Lat: env.StartLat, Lon: env.StartLong}
	destCoords := geo.Coordinates{Lat: env.EndLat, Lon: env.EndLong}
	params := protocol.GAParamsFromEnvelope(env)

	result, err := s.planner.Plan(userCoords, destCoords, params)
	if err != nil {
		return nil, err
	}

	switch result.Decision {
	case planner.RouteFound:
		return protocol.BuildRouteResponse(s.graph, result, userCoords, destCoords), nil
	case planner.DirectWalk:
		return protocol.BuildDirectWalkResponse(result, userCoords, destCoords), nil
	default:
		return protocol.BuildNoRouteResponse(result), nil
	}
}

// writeError encodes err as a protocol.ErrorResponse and reports it to
// Sentry when its Kind says it's an infrastructure failure rather than an
// expected business outcome.
func (s *Server) writeError(conn net.Conn, err error, requestType string) {
	kind := apperr.KindOf(err)
	if kind.Reportable() {
		report.ReportError(err)
	}
	s.logger.Warn("request failed", "request_type", requestType, "kind", kind, "error", err)

	if encodeErr := json.NewEncoder(conn).Encode(protocol.NewErrorResponse(err)); encodeErr != nil {
		s.logger.Error("failed to write error response", "error", encodeErr)
	}
}
