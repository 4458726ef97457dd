// Package spineconst holds the compile-time constants that define the
// shared-memory layout and timing of the Nexus Spine substrate. They are
// frozen at build time: changing any of them changes the wire format.
package spineconst

const (
	// NumAgents is the fixed size of the agent collective.
	NumAgents = 32
	// BufferSize is the payload size of a single seqlock-guarded buffer.
	BufferSize = 1024
	// NumBufferKinds is the number of named buffers per agent.
	NumBufferKinds = 5

	// Buffer kind indices. Part of the external ABI; never renumber.
	BufPercept   = 0
	BufWorkspace = 1
	BufBroadcast = 2
	BufAction    = 3
	BufMeta      = 4

	// RingHalfCap is the size of each half of the interrupt ring's
	// dual-buffer scheme.
	RingHalfCap = 2048
	// RingCapacity is the total entry capacity of the interrupt ring.
	RingCapacity = RingHalfCap * 2
	// RingSpacerBytes separates the two halves to defeat prefetcher
	// cross-talk between producer and consumer cache lines.
	RingSpacerBytes = 4096

	// BroadcastTarget marks an interrupt entry as addressed to every agent.
	BroadcastTarget = 0xFFFF

	// Interrupt type values.
	InterruptPercept  = 0
	InterruptPriority = 1
	InterruptOverride = 2
	InterruptEmergency = 3

	// MaxInterruptDrainPerTick bounds the cognitive loop's drain phase.
	MaxInterruptDrainPerTick = 64
	// ConsolidationEveryNTicks is the period of the consolidation phase.
	ConsolidationEveryNTicks = 100

	// TailPaddingBytes is the minimum trailing slack after the ring in the
	// shared region, reserved for future ABI growth.
	TailPaddingBytes = 4096

	// Defaults for the supervisor's environment-provided configuration.
	DefaultShmName     = "/nexus_spine"
	DefaultTopK        = 3
	DefaultCycleMicros = 500
	DefaultHTTPPort    = 8300
	DefaultRedisURL    = "redis://127.0.0.1:6379"
)
