package spine

import (
	"time"

	"github.com/nexusspine/spine/internal/cognitive"
	"github.com/nexusspine/spine/internal/consolidation"
	"github.com/nexusspine/spine/internal/gwt"
)

// observerAdapter bridges the root Observer interface to the one
// internal/cognitive expects, so callers configure cognitive-loop
// observation entirely through the public Observer/Metrics types.
type observerAdapter struct{ Observer }

// Loop drives the cognitive cycle — GWT broadcast, interrupt drain,
// periodic consolidation — against a Region on a dedicated OS thread.
type Loop struct {
	inner *cognitive.Loop
}

// NewLoop creates a cognitive loop over region, ticking at period with
// topK winners selected per broadcast cycle. A nil observer disables
// observation.
func NewLoop(r *Region, period time.Duration, topK int, observer Observer) *Loop {
	var adapted cognitive.Observer
	if observer != nil {
		adapted = observerAdapter{observer}
	}
	return &Loop{inner: cognitive.New(r.inner, period, topK, adapted)}
}

// Start runs the loop on a dedicated OS thread until Stop is called.
func (l *Loop) Start() { l.inner.Start() }

// Stop requests a graceful exit after the current iteration completes.
func (l *Loop) Stop() { l.inner.Stop() }

// Wait blocks until the loop has exited.
func (l *Loop) Wait() { l.inner.Wait() }

// Cycles returns the number of completed iterations.
func (l *Loop) Cycles() uint64 { return l.inner.Cycles() }

// GWTStats returns an observational snapshot of the broadcast engine.
func (l *Loop) GWTStats() gwt.Stats { return l.inner.GWT().StatsSnapshot() }

// ConsolidationStats returns an observational snapshot of the
// consolidation engine.
func (l *Loop) ConsolidationStats() consolidation.Stats {
	return l.inner.Consolidation().StatsSnapshot()
}

// Prunable returns the agents whose prune score from the last
// consolidation cycle exceeds threshold.
func (l *Loop) Prunable(threshold float64) []consolidation.Metadata {
	return l.inner.Consolidation().GetPrunable(threshold)
}
