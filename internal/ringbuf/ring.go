// Package ringbuf implements the single-producer/single-consumer
// interrupt ring: a lock-free queue of fixed 64-byte entries split into
// two 2048-entry halves separated by a 4096-byte page spacer, which
// keeps the hardware prefetcher from pulling the far half's cache lines
// into the producer's working set while the consumer is draining them.
package ringbuf

import (
	"sync/atomic"
	"unsafe"

	"github.com/nexusspine/spine/internal/spineconst"
)

// Entry is a single interrupt entry, exactly 64 bytes (one cache line).
type Entry struct {
	SourceAgent   uint16
	TargetAgent   uint16
	InterruptType uint8
	Priority      uint8
	_             uint16
	Timestamp     uint64
	Payload       [44]byte
	_             [4]byte // pads the struct out to a full 64-byte cache line
}

var _ [64]byte = [unsafe.Sizeof(Entry{})]byte{}

// Ring is a lock-free SPSC queue of Entry values, laid out directly in
// shared memory as the second region of the mapping.
//
// head and tail are free-running uint64 counters, not indices; the slot
// index is counter mod RingCapacity, with the low half of the index
// space (< RingHalfCap) landing in EntriesA and the rest in EntriesB.
// Producer and consumer state each occupy their own padded cache line.
type Ring struct {
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte

	EntriesA [spineconst.RingHalfCap]Entry
	Spacer   [spineconst.RingSpacerBytes]byte
	EntriesB [spineconst.RingHalfCap]Entry

	activeWriteBuffer atomic.Uint32
	_                 [4]byte

	TotalPushed  atomic.Uint64
	TotalPopped  atomic.Uint64
	TotalDropped atomic.Uint64
}

// RingAt reinterprets the given byte slice's backing array as a *Ring
// without copying.
func RingAt(base []byte) *Ring {
	if len(base) < int(unsafe.Sizeof(Ring{})) {
		panic("ringbuf: base too small for Ring")
	}
	return (*Ring)(unsafe.Pointer(&base[0]))
}

// entrySlot returns a pointer to the entry at free-running counter c.
func (r *Ring) entrySlot(c uint64) *Entry {
	idx := c % spineconst.RingCapacity
	if idx < spineconst.RingHalfCap {
		return &r.EntriesA[idx]
	}
	return &r.EntriesB[idx-spineconst.RingHalfCap]
}

// Push appends entry to the ring. Returns false (and increments
// TotalDropped) if the ring is at capacity. Safe for exactly one
// concurrent producer; concurrent producers are a contract violation.
func (r *Ring) Push(entry Entry) bool {
	head := r.head.Load()
	tail := r.tail.Load()

	if head-tail >= spineconst.RingCapacity {
		r.TotalDropped.Add(1)
		return false
	}

	*r.entrySlot(head) = entry

	r.head.Store(head + 1)
	r.TotalPushed.Add(1)
	return true
}

// Pop removes and returns the oldest entry, or false if the ring is
// empty. Safe for exactly one concurrent consumer.
func (r *Ring) Pop() (Entry, bool) {
	tail := r.tail.Load()
	head := r.head.Load()

	if tail == head {
		return Entry{}, false
	}

	entry := *r.entrySlot(tail)

	r.tail.Store(tail + 1)
	r.TotalPopped.Add(1)
	return entry, true
}

// Len reports the number of entries currently queued.
func (r *Ring) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(head - tail)
}

// IsEmpty reports whether the ring currently holds no entries.
func (r *Ring) IsEmpty() bool { return r.Len() == 0 }

// Capacity returns the ring's fixed total capacity.
func (r *Ring) Capacity() int { return spineconst.RingCapacity }

// Stats is an observational snapshot of ring counters.
type Stats struct {
	CurrentLen   int    `json:"current_len"`
	Capacity     int    `json:"capacity"`
	TotalPushed  uint64 `json:"total_pushed"`
	TotalPopped  uint64 `json:"total_popped"`
	TotalDropped uint64 `json:"total_dropped"`
}

// StatsSnapshot returns a point-in-time snapshot of ring statistics.
func (r *Ring) StatsSnapshot() Stats {
	return Stats{
		CurrentLen:   r.Len(),
		Capacity:     r.Capacity(),
		TotalPushed:  r.TotalPushed.Load(),
		TotalPopped:  r.TotalPopped.Load(),
		TotalDropped: r.TotalDropped.Load(),
	}
}
