// Package statusapi exposes the cognitive loop's observational state
// over HTTP: /health, /status, /metrics. Nothing here is load-bearing —
// the server builds each response from the snapshots its Source returns
// at request time; it never touches the shared region or the GWT/
// consolidation engines directly.
package statusapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nexusspine/spine/internal/consolidation"
	"github.com/nexusspine/spine/internal/gwt"
	"github.com/nexusspine/spine/internal/logging"
	"github.com/nexusspine/spine/internal/ringbuf"
)

// Snapshot is the point-in-time status payload served by /status and
// published by internal/redisbridge.
type Snapshot struct {
	System           string              `json:"system"`
	Version          string              `json:"version"`
	CognitiveCycles  uint64              `json:"cognitive_cycles"`
	AvgCycleUs       float64             `json:"avg_cycle_us"`
	TargetCycleUs    int                 `json:"target_cycle_us"`
	HeadroomPct      float64             `json:"headroom_pct"`
	ActiveAgents     int                 `json:"active_agents"`
	TotalAgents      int                 `json:"total_agents"`
	GWT              gwt.Stats           `json:"gwt"`
	Consolidation    consolidation.Stats `json:"consolidation"`
	RingBuffer       ringbuf.Stats       `json:"ring_buffer"`
}

// Source supplies the live counters the handlers read. cmd/nexus-spine
// implements this directly against a running *spine.Region/*spine.Loop;
// tests can supply a fake.
type Source interface {
	Cycles() uint64
	AvgCycleMicros() float64
	TargetCycleMicros() int
	ActiveAgents() int
	TotalAgents() int
	GWTStats() gwt.Stats
	ConsolidationStats() consolidation.Stats
	RingStats() ringbuf.Stats
}

// Server serves the status/health/metrics endpoints.
type Server struct {
	source Source
	log    *logging.Logger
}

// New creates a Server reading from source.
func New(source Source) *Server {
	return &Server{source: source, log: logging.Default().WithComponent("statusapi")}
}

// Handler returns the routed http.Handler for the three endpoints,
// built on the standard library's pattern-based ServeMux (Go 1.22+)
// rather than a third-party router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return withCORS(mux)
}

// ListenAndServe starts the HTTP server on the given port. It returns
// only on error; callers typically run this in a goroutine and let
// process exit tear it down.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info("http server starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "nexus_spine",
		"version": "1.0.0",
		"cycles":  s.source.Cycles(),
	})
}

// BuildSnapshot assembles the full /status payload from the source.
func (s *Server) BuildSnapshot() Snapshot {
	avgUs := s.source.AvgCycleMicros()
	target := s.source.TargetCycleMicros()
	headroom := 0.0
	if target > 0 && avgUs > 0 {
		headroom = (1.0 - avgUs/float64(target)) * 100.0
		if headroom < 0 {
			headroom = 0
		}
	}
	return Snapshot{
		System:          "NEXUS Neural Spine",
		Version:         "1.0.0",
		CognitiveCycles: s.source.Cycles(),
		AvgCycleUs:      avgUs,
		TargetCycleUs:   target,
		HeadroomPct:      headroom,
		ActiveAgents:    s.source.ActiveAgents(),
		TotalAgents:     s.source.TotalAgents(),
		GWT:             s.source.GWTStats(),
		Consolidation:   s.source.ConsolidationStats(),
		RingBuffer:      s.source.RingStats(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.BuildSnapshot())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.BuildSnapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	fmt.Fprintf(w, "# HELP spine_cycles_total Total cognitive cycles\n")
	fmt.Fprintf(w, "# TYPE spine_cycles_total counter\n")
	fmt.Fprintf(w, "spine_cycles_total %d\n", snap.CognitiveCycles)
	fmt.Fprintf(w, "# HELP spine_cycle_avg_us Average cycle time in microseconds\n")
	fmt.Fprintf(w, "# TYPE spine_cycle_avg_us gauge\n")
	fmt.Fprintf(w, "spine_cycle_avg_us %.1f\n", snap.AvgCycleUs)
	fmt.Fprintf(w, "# HELP spine_agents_active Number of active agents\n")
	fmt.Fprintf(w, "# TYPE spine_agents_active gauge\n")
	fmt.Fprintf(w, "spine_agents_active %d\n", snap.ActiveAgents)
	fmt.Fprintf(w, "# HELP spine_gwt_broadcasts_total Total GWT broadcast cycles\n")
	fmt.Fprintf(w, "# TYPE spine_gwt_broadcasts_total counter\n")
	fmt.Fprintf(w, "spine_gwt_broadcasts_total %d\n", snap.GWT.CycleCount)
	fmt.Fprintf(w, "# HELP spine_gwt_avg_broadcast_us Average GWT broadcast time\n")
	fmt.Fprintf(w, "# TYPE spine_gwt_avg_broadcast_us gauge\n")
	fmt.Fprintf(w, "spine_gwt_avg_broadcast_us %.1f\n", snap.GWT.AvgBroadcastMicros)
	fmt.Fprintf(w, "# HELP spine_ring_buffer_len Current ring buffer entries\n")
	fmt.Fprintf(w, "# TYPE spine_ring_buffer_len gauge\n")
	fmt.Fprintf(w, "spine_ring_buffer_len %d\n", snap.RingBuffer.CurrentLen)
	fmt.Fprintf(w, "# HELP spine_ring_buffer_pushed_total Total interrupts pushed\n")
	fmt.Fprintf(w, "# TYPE spine_ring_buffer_pushed_total counter\n")
	fmt.Fprintf(w, "spine_ring_buffer_pushed_total %d\n", snap.RingBuffer.TotalPushed)
	fmt.Fprintf(w, "# HELP spine_ring_buffer_dropped_total Total interrupts dropped\n")
	fmt.Fprintf(w, "# TYPE spine_ring_buffer_dropped_total counter\n")
	fmt.Fprintf(w, "spine_ring_buffer_dropped_total %d\n", snap.RingBuffer.TotalDropped)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
