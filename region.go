package spine

import (
	"time"

	"github.com/nexusspine/spine/internal/region"
	"github.com/nexusspine/spine/internal/ringbuf"
)

// Region is a handle onto the shared-memory cognitive substrate: the
// 32-agent buffer matrix and the interrupt ring, mapped once and shared
// by every process that attaches to it. Construction (Allocate or
// Attach) proves the mapping exists; Close releases it.
type Region struct {
	inner *region.Region
}

// RequiredSize returns the deterministic total byte size of the shared
// region, identical for allocation and attachment.
func RequiredSize() int { return region.RequiredSize() }

// Allocate creates a new shared region of RequiredSize() bytes under
// name (pass "" for an anonymous, process-local region, e.g. for
// tests), zero-initializes it, stamps agent identities, and page-locks
// it into RAM. Huge-page backing is attempted first for anonymous
// regions and falls back to regular pages automatically; that fallback
// is logged, not an error, per the region allocator's contract.
func Allocate(name string) (*Region, error) {
	raw, err := region.Allocate(region.RequiredSize(), name)
	if err != nil {
		return nil, WrapError("ALLOCATE", err)
	}
	r := &Region{inner: raw}
	r.inner.Matrix().InitIdentities()
	return r, nil
}

// Attach opens an existing named shared region and maps it without
// zeroing or re-initializing agent identities — the allocating process
// already did both.
func Attach(name string) (*Region, error) {
	raw, err := region.Attach(region.RequiredSize(), name)
	if err != nil {
		return nil, WrapError("ATTACH", err)
	}
	return &Region{inner: raw}, nil
}

// Close releases this process's mapping. It never unlinks a named
// shared-memory segment — the name's lifecycle is an explicit caller
// responsibility, not the region's.
func (r *Region) Close() error { return r.inner.Close() }

// Name returns the shared-memory name this region was allocated or
// attached under, or "" for an anonymous region.
func (r *Region) Name() string { return r.inner.Name() }

// ActivateAgent marks an agent active. Returns a bounds-violation error
// for an out-of-range index.
func (r *Region) ActivateAgent(agentID int) error {
	if !r.inner.Matrix().ActivateAgent(agentID) {
		return NewBoundsError("ACTIVATE_AGENT", int32(agentID), -1)
	}
	return nil
}

// DeactivateAgent clears an agent's active flag.
func (r *Region) DeactivateAgent(agentID int) error {
	if !r.inner.Matrix().DeactivateAgent(agentID) {
		return NewBoundsError("DEACTIVATE_AGENT", int32(agentID), -1)
	}
	return nil
}

// IsActive reports whether the given agent is active.
func (r *Region) IsActive(agentID int) bool { return r.inner.Matrix().IsActive(agentID) }

// ActiveCount returns the number of currently active agents.
func (r *Region) ActiveCount() int { return r.inner.Matrix().ActiveCount() }

// WriteBuffer performs a seqlock write of data into agent agentID's
// buffer of the given kind (one of BufPercept..BufMeta).
func (r *Region) WriteBuffer(agentID, kind int, data []byte) error {
	if err := r.inner.Matrix().WriteBuffer(agentID, kind, data); err != nil {
		return NewBoundsError("WRITE_BUFFER", int32(agentID), int32(kind))
	}
	return nil
}

// ReadBuffer performs a seqlock read of agent agentID's buffer of the
// given kind into dst, returning the retry count.
func (r *Region) ReadBuffer(agentID, kind int, dst []byte) (uint32, error) {
	retries, err := r.inner.Matrix().ReadBuffer(agentID, kind, dst)
	if err != nil {
		return 0, NewBoundsError("READ_BUFFER", int32(agentID), int32(kind))
	}
	return retries, nil
}

// SnapshotAll reads every buffer of one agent, in kind order, into dst
// (NumBufferKinds*BufferSize bytes).
func (r *Region) SnapshotAll(agentID int, dst []byte) (uint32, error) {
	retries, err := r.inner.Matrix().SnapshotAll(agentID, dst)
	if err != nil {
		return 0, NewBoundsError("SNAPSHOT_ALL", int32(agentID), -1)
	}
	return retries, nil
}

// PushInterrupt stamps a wall-clock timestamp (time.Now().UnixNano())
// and pushes an interrupt entry onto the ring; the timestamp is not
// taken from a monotonic clock, so it can step backwards if the system
// clock is adjusted. payload is truncated to 44 bytes if longer.
// Returns false if the ring is full (the push is dropped, not an
// error).
func (r *Region) PushInterrupt(sourceAgent, targetAgent uint16, interruptType, priority uint8, payload []byte) bool {
	var entry ringbuf.Entry
	entry.SourceAgent = sourceAgent
	entry.TargetAgent = targetAgent
	entry.InterruptType = interruptType
	entry.Priority = priority
	entry.Timestamp = uint64(time.Now().UnixNano())
	copy(entry.Payload[:], payload)
	return r.inner.Ring().Push(entry)
}

// InterruptEntry mirrors internal/ringbuf.Entry for callers that need
// the popped interrupt's fields without reaching into internal/.
type InterruptEntry struct {
	SourceAgent   uint16
	TargetAgent   uint16
	InterruptType uint8
	Priority      uint8
	Timestamp     uint64
	Payload       [44]byte
}

// PopInterrupt removes and returns the oldest interrupt, or ok=false if
// the ring is empty.
func (r *Region) PopInterrupt() (entry InterruptEntry, ok bool) {
	raw, ok := r.inner.Ring().Pop()
	if !ok {
		return InterruptEntry{}, false
	}
	return InterruptEntry{
		SourceAgent:   raw.SourceAgent,
		TargetAgent:   raw.TargetAgent,
		InterruptType: raw.InterruptType,
		Priority:      raw.Priority,
		Timestamp:     raw.Timestamp,
		Payload:       raw.Payload,
	}, true
}

// RingLen returns the approximate number of queued interrupts.
func (r *Region) RingLen() int { return r.inner.Ring().Len() }

// RingStats returns observational ring counters.
func (r *Region) RingStats() ringbuf.Stats { return r.inner.Ring().StatsSnapshot() }
