package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nexusspine/spine/internal/consolidation"
	"github.com/nexusspine/spine/internal/gwt"
	"github.com/nexusspine/spine/internal/ringbuf"
)

type fakeSource struct {
	cycles  uint64
	avgUs   float64
	target  int
	active  int
	total   int
}

func (f *fakeSource) Cycles() uint64            { return f.cycles }
func (f *fakeSource) AvgCycleMicros() float64   { return f.avgUs }
func (f *fakeSource) TargetCycleMicros() int    { return f.target }
func (f *fakeSource) ActiveAgents() int         { return f.active }
func (f *fakeSource) TotalAgents() int          { return f.total }
func (f *fakeSource) GWTStats() gwt.Stats       { return gwt.Stats{TopK: 5, CycleCount: 42} }
func (f *fakeSource) ConsolidationStats() consolidation.Stats {
	return consolidation.Stats{CycleCount: 3}
}
func (f *fakeSource) RingStats() ringbuf.Stats { return ringbuf.Stats{CurrentLen: 2, TotalPushed: 9} }

func newFakeServer() (*Server, *fakeSource) {
	src := &fakeSource{cycles: 100, avgUs: 250.0, target: 500, active: 4, total: 32}
	return New(src), src
}

func TestHealthEndpointReportsCycles(t *testing.T) {
	s, _ := newFakeServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status field = %v, want healthy", body["status"])
	}
	if body["cycles"] != float64(100) {
		t.Fatalf("cycles field = %v, want 100", body["cycles"])
	}
}

func TestStatusEndpointReflectsSource(t *testing.T) {
	s, src := newFakeServer()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if snap.CognitiveCycles != src.cycles {
		t.Fatalf("CognitiveCycles = %d, want %d", snap.CognitiveCycles, src.cycles)
	}
	if snap.ActiveAgents != src.active || snap.TotalAgents != src.total {
		t.Fatalf("agent counts mismatch: got active=%d total=%d", snap.ActiveAgents, snap.TotalAgents)
	}
	if snap.GWT.CycleCount != 42 {
		t.Fatalf("GWT.CycleCount = %d, want 42", snap.GWT.CycleCount)
	}
}

func TestStatusEndpointComputesHeadroom(t *testing.T) {
	s, _ := newFakeServer() // avgUs=250, target=500 -> 50% headroom
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var snap Snapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.HeadroomPct < 49.0 || snap.HeadroomPct > 51.0 {
		t.Fatalf("HeadroomPct = %v, want ~50", snap.HeadroomPct)
	}
}

func TestMetricsEndpointIsPrometheusText(t *testing.T) {
	s, _ := newFakeServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "spine_cycles_total 100") {
		t.Fatalf("metrics body missing cycle counter: %s", body)
	}
	if !strings.Contains(body, "# TYPE spine_cycles_total counter") {
		t.Fatalf("metrics body missing TYPE line: %s", body)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q, want text/plain prefix", ct)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	s, _ := newFakeServer()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCORSHeaderPresentOnAllRoutes(t *testing.T) {
	s, _ := newFakeServer()
	for _, path := range []string{"/health", "/status", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s missing CORS header", path)
		}
	}
}
