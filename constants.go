package spine

import "github.com/nexusspine/spine/internal/spineconst"

// Re-exported layout and timing constants. See internal/spineconst for
// the authoritative definitions; they are mirrored here so callers of
// the package don't need to reach into internal/.
const (
	NumAgents      = spineconst.NumAgents
	BufferSize     = spineconst.BufferSize
	NumBufferKinds = spineconst.NumBufferKinds

	BufPercept   = spineconst.BufPercept
	BufWorkspace = spineconst.BufWorkspace
	BufBroadcast = spineconst.BufBroadcast
	BufAction    = spineconst.BufAction
	BufMeta      = spineconst.BufMeta

	RingCapacity    = spineconst.RingCapacity
	RingSpacerBytes = spineconst.RingSpacerBytes
	BroadcastTarget = spineconst.BroadcastTarget

	InterruptPercept    = spineconst.InterruptPercept
	InterruptPriority   = spineconst.InterruptPriority
	InterruptOverride   = spineconst.InterruptOverride
	InterruptEmergency  = spineconst.InterruptEmergency

	MaxInterruptDrainPerTick = spineconst.MaxInterruptDrainPerTick
	ConsolidationEveryNTicks = spineconst.ConsolidationEveryNTicks

	DefaultShmName     = spineconst.DefaultShmName
	DefaultTopK        = spineconst.DefaultTopK
	DefaultCycleMicros = spineconst.DefaultCycleMicros
	DefaultHTTPPort    = spineconst.DefaultHTTPPort
	DefaultRedisURL    = spineconst.DefaultRedisURL
)
