package tcpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/metrics"
	"github.com/routify-transit/routify/internal/planner"
	"github.com/routify-transit/routify/internal/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleStops = `stop_id,stop_code,stop_name,zone,stop_lat,stop_lon
1,1,"Station A",,0.0,0.0
2,2,"Station B",,0.0,0.005
`

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	logger := discardLogger()
	if err := g.IngestStops(strings.NewReader(sampleStops), logger); err != nil {
		t.Fatalf("IngestStops: %v", err)
	}
	g.Finalize()
	return g
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	g := buildSampleGraph(t)
	p := planner.New(g, discardLogger())
	return New(g, p, metrics.NewMetricsService(), discardLogger())
}

func roundTrip(t *testing.T, s *Server, req protocol.Envelope) ([]byte, net.Conn) {
	t.Helper()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(server)
	}()

	if err := json.NewEncoder(client).Encode(req); err != nil {
		t.Fatalf("encode request: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	body, err := io.ReadAll(client)
	if err != nil && err != io.EOF {
		t.Fatalf("read response: %v", err)
	}
	<-done
	return body, client
}

func TestStationInfoRequest(t *testing.T) {
	s := newTestServer(t)
	body, _ := roundTrip(t, s, protocol.Envelope{Type: protocol.TypeStationInfo, StationID: 1})

	var info protocol.StationInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("decode response: %v, body=%s", err, body)
	}
	if info.Code != 1 || info.Name != "Station A" {
		t.Fatalf("unexpected station info: %+v", info)
	}
}

func TestStationInfoRequestUnknownStation(t *testing.T) {
	s := newTestServer(t)
	body, _ := roundTrip(t, s, protocol.Envelope{Type: protocol.TypeStationInfo, StationID: 999})

	var errResp protocol.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v, body=%s", err, body)
	}
	if errResp.Error != "NotFound" {
		t.Fatalf("expected NotFound, got %+v", errResp)
	}
}

func TestMalformedRequestReturnsParseError(t *testing.T) {
	s := newTestServer(t)
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(server)
	}()

	go client.Write([]byte("not json"))
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	body, err := io.ReadAll(client)
	if err != nil && err != io.EOF {
		t.Fatalf("read response: %v", err)
	}
	<-done

	var errResp protocol.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v, body=%s", err, body)
	}
	if errResp.Error != "ParseError" {
		t.Fatalf("expected ParseError, got %+v", errResp)
	}
}
