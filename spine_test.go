package spine

import (
	"testing"
	"time"
)

func TestRequiredSizeIsPositiveAndStable(t *testing.T) {
	a := RequiredSize()
	b := RequiredSize()
	if a != b || a <= 0 {
		t.Fatalf("RequiredSize() = %d then %d, want equal and positive", a, b)
	}
}

// TestAllocateWriteReadRoundTrip is scenario E1: a region is allocated,
// an agent is activated, a buffer is written and read back intact.
func TestAllocateWriteReadRoundTrip(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	if err := r.ActivateAgent(3); err != nil {
		t.Fatalf("ActivateAgent: %v", err)
	}
	if !r.IsActive(3) {
		t.Fatal("agent 3 should be active")
	}
	if r.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", r.ActiveCount())
	}

	if err := r.WriteBuffer(3, BufPercept, []byte("incoming stimulus")); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	dst := make([]byte, BufferSize)
	if _, err := r.ReadBuffer(3, BufPercept, dst); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if string(dst[:len("incoming stimulus")]) != "incoming stimulus" {
		t.Fatalf("ReadBuffer content = %q, want \"incoming stimulus\"", dst[:17])
	}
}

func TestDeactivateAgentClearsActiveFlag(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	r.ActivateAgent(1)
	if err := r.DeactivateAgent(1); err != nil {
		t.Fatalf("DeactivateAgent: %v", err)
	}
	if r.IsActive(1) {
		t.Fatal("agent 1 should no longer be active")
	}
}

func TestActivateAgentOutOfRangeReturnsBoundsError(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	if err := r.ActivateAgent(NumAgents); err == nil {
		t.Fatal("ActivateAgent(NumAgents) should fail, agent indices are 0-based")
	} else if !IsCode(err, ErrCodeBoundsViolation) {
		t.Fatalf("expected a bounds-violation error, got %v", err)
	}
}

func TestWriteBufferOutOfRangeKindReturnsBoundsError(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()
	r.ActivateAgent(0)

	if err := r.WriteBuffer(0, NumBufferKinds, []byte("x")); err == nil {
		t.Fatal("WriteBuffer with an out-of-range kind should fail")
	}
}

func TestSnapshotAllCoversEveryBufferKind(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()
	r.ActivateAgent(0)

	r.WriteBuffer(0, BufPercept, []byte("p"))
	r.WriteBuffer(0, BufAction, []byte("a"))

	dst := make([]byte, NumBufferKinds*BufferSize)
	if _, err := r.SnapshotAll(0, dst); err != nil {
		t.Fatalf("SnapshotAll: %v", err)
	}
	if dst[BufPercept*BufferSize] != 'p' {
		t.Fatal("SnapshotAll should lay out PERCEPT at its kind offset")
	}
	if dst[BufAction*BufferSize] != 'a' {
		t.Fatal("SnapshotAll should lay out ACTION at its kind offset")
	}
}

// TestPushPopInterruptRoundTrip exercises the interrupt ring through the
// public API: push, pop, and len tracking.
func TestPushPopInterruptRoundTrip(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	if ok := r.PushInterrupt(1, 2, InterruptPriority, 5, []byte("alert")); !ok {
		t.Fatal("PushInterrupt should succeed against an empty ring")
	}
	if r.RingLen() != 1 {
		t.Fatalf("RingLen() = %d, want 1", r.RingLen())
	}

	entry, ok := r.PopInterrupt()
	if !ok {
		t.Fatal("PopInterrupt should succeed")
	}
	if entry.SourceAgent != 1 || entry.TargetAgent != 2 || entry.InterruptType != InterruptPriority {
		t.Fatalf("unexpected popped entry: %+v", entry)
	}
	if string(entry.Payload[:5]) != "alert" {
		t.Fatalf("payload = %q, want \"alert\"", entry.Payload[:5])
	}

	if _, ok := r.PopInterrupt(); ok {
		t.Fatal("PopInterrupt on an empty ring should report ok=false")
	}
}

func TestRingStatsTrackPushes(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	r.PushInterrupt(0, 0, InterruptPercept, 0, nil)
	r.PushInterrupt(0, 0, InterruptPercept, 0, nil)

	stats := r.RingStats()
	if stats.TotalPushed < 2 {
		t.Fatalf("RingStats().TotalPushed = %d, want >= 2", stats.TotalPushed)
	}
}

// TestCognitiveLoopEndToEnd runs a Loop against a live Region for at
// least 10 cycles and checks that GWT broadcast cycles ran and reached
// the metrics observer.
func TestCognitiveLoopEndToEnd(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	r.ActivateAgent(0)
	r.ActivateAgent(1)
	r.WriteBuffer(0, BufWorkspace, []byte("thinking about the task"))

	metrics := NewMetrics()
	observer := NewMetricsObserver(metrics)
	loop := NewLoop(r, time.Millisecond, 2, observer)
	loop.Start()

	deadline := time.Now().Add(300 * time.Millisecond)
	for loop.Cycles() < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	loop.Stop()
	loop.Wait()
	metrics.Stop()

	if loop.Cycles() < 10 {
		t.Fatalf("expected at least 10 cycles, got %d", loop.Cycles())
	}

	gwtStats := loop.GWTStats()
	if gwtStats.CycleCount == 0 {
		t.Fatal("expected at least one GWT broadcast cycle")
	}

	snap := metrics.Snapshot(uint64(time.Millisecond))
	if snap.BroadcastCycles == 0 {
		t.Fatal("metrics should have observed broadcast cycles via the loop's observer")
	}
}

func TestLoopPrunableSurfacesInactiveAgents(t *testing.T) {
	r, err := Allocate("")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer r.Close()

	r.ActivateAgent(0)
	loop := NewLoop(r, time.Millisecond, 2, nil)
	loop.Start()

	// Consolidation first runs on tick ConsolidationEveryNTicks.
	deadline := time.Now().Add(2 * time.Second)
	for loop.Cycles() < ConsolidationEveryNTicks && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	loop.Stop()
	loop.Wait()

	prunable := loop.Prunable(50.0)
	found := false
	for _, p := range prunable {
		if p.AgentID != 0 && !p.Active {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one inactive agent to be reported as highly prunable")
	}
}

func TestAttachObservesAllocatorsWrites(t *testing.T) {
	name := "/nexus_spine_e2e_test"

	owner, err := Allocate(name)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer owner.Close()

	owner.ActivateAgent(4)
	owner.WriteBuffer(4, BufMeta, []byte("shared"))

	attached, err := Attach(name)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer attached.Close()

	if !attached.IsActive(4) {
		t.Fatal("attached region should see the allocator's activation through shared memory")
	}

	dst := make([]byte, BufferSize)
	attached.ReadBuffer(4, BufMeta, dst)
	if string(dst[:6]) != "shared" {
		t.Fatalf("attached ReadBuffer = %q, want \"shared\"", dst[:6])
	}
}

func TestMockObserverRecordsCalls(t *testing.T) {
	obs := &MockObserver{}
	var o Observer = obs

	o.ObserveTick(100)
	o.ObserveBroadcast()
	o.ObserveConsolidation()
	o.ObserveInterruptDrain(3)
	o.ObserveInterruptDrop()
	o.ObserveSeqlockRetries(2)

	if obs.TickCount() != 1 {
		t.Fatalf("TickCount() = %d, want 1", obs.TickCount())
	}
	if obs.BroadcastCount() != 1 {
		t.Fatalf("BroadcastCount() = %d, want 1", obs.BroadcastCount())
	}
}
