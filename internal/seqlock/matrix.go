package seqlock

import (
	"sync/atomic"
	"unsafe"

	"github.com/nexusspine/spine/internal/spineconst"
)

// AgentSet is the per-agent block of shared memory: an identity header
// (64 bytes, one cache line) followed by the agent's five named buffers.
type AgentSet struct {
	AgentID uint32
	_       [4]byte
	Active  atomic.Uint64
	_       [48]byte
	Buffers [spineconst.NumBufferKinds]Buffer
}

var _ [64 + spineconst.NumBufferKinds*(64+spineconst.BufferSize)]byte = [unsafe.Sizeof(AgentSet{})]byte{}

// Matrix is the full agent buffer matrix: the first region of the
// shared mapping, 32 AgentSets back to back.
type Matrix struct {
	Agents [spineconst.NumAgents]AgentSet
}

// MatrixAt reinterprets the given byte slice's backing array as a
// *Matrix without copying. base must be at least unsafe.Sizeof(Matrix{})
// bytes and live for as long as the returned pointer is used — it is
// backed by the caller's shared mapping, not by Go's heap.
func MatrixAt(base []byte) *Matrix {
	if len(base) < int(unsafe.Sizeof(Matrix{})) {
		panic("seqlock: base too small for Matrix")
	}
	return (*Matrix)(unsafe.Pointer(&base[0]))
}

// InitIdentities stamps each agent's self-reported index and clears its
// active flag. Must be called exactly once, by the allocating process,
// against a freshly zeroed mapping.
func (m *Matrix) InitIdentities() {
	for i := range m.Agents {
		m.Agents[i].AgentID = uint32(i)
		m.Agents[i].Active.Store(0)
	}
}

func inBounds(agentID int) bool { return agentID >= 0 && agentID < spineconst.NumAgents }

// ActivateAgent sets an agent's active flag. Reports false on an
// out-of-range index.
func (m *Matrix) ActivateAgent(agentID int) bool {
	if !inBounds(agentID) {
		return false
	}
	m.Agents[agentID].Active.Store(1)
	return true
}

// DeactivateAgent clears an agent's active flag.
func (m *Matrix) DeactivateAgent(agentID int) bool {
	if !inBounds(agentID) {
		return false
	}
	m.Agents[agentID].Active.Store(0)
	return true
}

// IsActive reports whether the given agent is active.
func (m *Matrix) IsActive(agentID int) bool {
	if !inBounds(agentID) {
		return false
	}
	return m.Agents[agentID].Active.Load() != 0
}

// ActiveCount returns the number of agents whose active flag is set.
func (m *Matrix) ActiveCount() int {
	n := 0
	for i := range m.Agents {
		if m.Agents[i].Active.Load() != 0 {
			n++
		}
	}
	return n
}

// WriteBuffer performs a seqlock write of data into agent agentID's
// buffer of the given kind.
func (m *Matrix) WriteBuffer(agentID, kind int, data []byte) error {
	if !inBounds(agentID) || kind < 0 || kind >= spineconst.NumBufferKinds {
		return ErrBounds
	}
	m.Agents[agentID].Buffers[kind].Write(data)
	return nil
}

// ReadBuffer performs a seqlock read of agent agentID's buffer of the
// given kind into dst, returning the retry count.
func (m *Matrix) ReadBuffer(agentID, kind int, dst []byte) (uint32, error) {
	if !inBounds(agentID) || kind < 0 || kind >= spineconst.NumBufferKinds {
		return 0, ErrBounds
	}
	return m.Agents[agentID].Buffers[kind].Read(dst), nil
}

// SnapshotAll reads every buffer of one agent, in kind order, into dst
// (which must be at least NumBufferKinds*BufferSize bytes), matching
// the PERCEPT/WORKSPACE/BROADCAST/ACTION/META layout.
func (m *Matrix) SnapshotAll(agentID int, dst []byte) (uint32, error) {
	if !inBounds(agentID) {
		return 0, ErrBounds
	}
	if len(dst) < spineconst.NumBufferKinds*spineconst.BufferSize {
		return 0, ErrBounds
	}
	var totalRetries uint32
	for k := 0; k < spineconst.NumBufferKinds; k++ {
		off := k * spineconst.BufferSize
		totalRetries += m.Agents[agentID].Buffers[k].Read(dst[off : off+spineconst.BufferSize])
	}
	return totalRetries, nil
}

// Metadata is a harvested snapshot of one agent's identity and buffer
// sequence numbers, the unit of work for the consolidation engine's
// bulk-copy phase.
type Metadata struct {
	AgentID   int
	Active    bool
	Sequences [spineconst.NumBufferKinds]uint64
}

// AgentMetadata harvests a point-in-time snapshot of one agent's active
// flag and buffer sequence numbers with relaxed loads.
func (m *Matrix) AgentMetadata(agentID int) (Metadata, bool) {
	if !inBounds(agentID) {
		return Metadata{}, false
	}
	a := &m.Agents[agentID]
	meta := Metadata{AgentID: agentID, Active: a.Active.Load() != 0}
	for k := 0; k < spineconst.NumBufferKinds; k++ {
		meta.Sequences[k] = a.Buffers[k].SequenceNumber()
	}
	return meta, true
}

// BufferRef returns a pointer to the underlying Buffer for agentID/kind,
// for callers (the GWT engine) that need to read directly without an
// intermediate Matrix-level bounds re-check on every access.
func (m *Matrix) BufferRef(agentID, kind int) *Buffer {
	return &m.Agents[agentID].Buffers[kind]
}
