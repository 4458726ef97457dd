// Package cognitive implements the cognitive loop: a dedicated OS
// thread that drives the GWT broadcast engine, the interrupt drain
// phase, and the periodic consolidation engine on a fixed micro-scale
// period.
package cognitive

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexusspine/spine/internal/consolidation"
	"github.com/nexusspine/spine/internal/gwt"
	"github.com/nexusspine/spine/internal/logging"
	"github.com/nexusspine/spine/internal/region"
	"github.com/nexusspine/spine/internal/spineconst"
)

// Observer is the subset of the root package's Observer interface the
// loop needs; kept local so this package doesn't import the root
// package (which would create an import cycle).
type Observer interface {
	ObserveTick(durationNs uint64)
	ObserveBroadcast()
	ObserveConsolidation()
	ObserveInterruptDrain(n int)
	ObserveInterruptDrop()
	ObserveSeqlockRetries(n uint32)
}

type noOpObserver struct{}

func (noOpObserver) ObserveTick(uint64)          {}
func (noOpObserver) ObserveBroadcast()           {}
func (noOpObserver) ObserveConsolidation()       {}
func (noOpObserver) ObserveInterruptDrain(int)   {}
func (noOpObserver) ObserveInterruptDrop()       {}
func (noOpObserver) ObserveSeqlockRetries(uint32) {}

// Loop drives the cognitive cycle against one Region.
type Loop struct {
	region   *region.Region
	period   time.Duration
	observer Observer
	log      *logging.Logger

	gwt           *gwt.Engine
	consolidation *consolidation.Engine

	running atomic.Bool
	cycles  atomic.Uint64

	wg sync.WaitGroup
}

// New creates a cognitive loop over region, ticking at period with topK
// winners selected per broadcast cycle. A nil observer is replaced with
// a no-op.
func New(reg *region.Region, period time.Duration, topK int, observer Observer) *Loop {
	if observer == nil {
		observer = noOpObserver{}
	}
	if period <= 0 {
		period = spineconst.DefaultCycleMicros * time.Microsecond
	}
	return &Loop{
		region:        reg,
		period:        period,
		observer:      observer,
		log:           logging.Default().WithComponent("cognitive"),
		gwt:           gwt.NewEngine(topK),
		consolidation: consolidation.NewEngine(),
	}
}

// Start runs the loop on a dedicated OS thread until Stop is called.
// It returns immediately; call Wait to block until the loop exits.
func (l *Loop) Start() {
	l.running.Store(true)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		l.run()
	}()
}

// Stop requests a graceful exit after the current iteration completes.
func (l *Loop) Stop() { l.running.Store(false) }

// Wait blocks until the loop goroutine has exited.
func (l *Loop) Wait() { l.wg.Wait() }

// Cycles returns the number of completed iterations.
func (l *Loop) Cycles() uint64 { return l.cycles.Load() }

// GWT exposes the engine for observational queries (status endpoints).
func (l *Loop) GWT() *gwt.Engine { return l.gwt }

// Consolidation exposes the engine for observational queries.
func (l *Loop) Consolidation() *consolidation.Engine { return l.consolidation }

func (l *Loop) run() {
	matrix := l.region.Matrix()
	ring := l.region.Ring()

	for l.running.Load() {
		start := time.Now()

		// Phase 1: GWT broadcast.
		broadcastStart := time.Now()
		l.gwt.BroadcastCycle(matrix)
		l.gwt.RecordBroadcastDuration(uint64(time.Since(broadcastStart).Nanoseconds()))
		l.observer.ObserveBroadcast()

		// Phase 2: drain up to MaxInterruptDrainPerTick interrupts.
		drained := 0
		for i := 0; i < spineconst.MaxInterruptDrainPerTick; i++ {
			entry, ok := ring.Pop()
			if !ok {
				break
			}
			drained++
			if entry.TargetAgent == spineconst.BroadcastTarget {
				for a := 0; a < spineconst.NumAgents; a++ {
					matrix.WriteBuffer(a, spineconst.BufPercept, entry.Payload[:])
				}
			} else if int(entry.TargetAgent) < spineconst.NumAgents {
				matrix.WriteBuffer(int(entry.TargetAgent), spineconst.BufPercept, entry.Payload[:])
			}
		}
		l.observer.ObserveInterruptDrain(drained)

		// Phase 3: periodic consolidation.
		cycle := l.cycles.Add(1)
		if cycle%spineconst.ConsolidationEveryNTicks == 0 {
			l.consolidation.Consolidate(matrix)
			l.observer.ObserveConsolidation()
		}

		// Phase 4: publish tick duration, then sleep the remainder.
		elapsed := time.Since(start)
		l.observer.ObserveTick(uint64(elapsed.Nanoseconds()))

		if remaining := l.period - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
		// Else: the tick is late. Proceed immediately — do not try to
		// catch up by shortening the next sleep.
	}
}
