// Package seqlock implements the optimistic-read synchronized buffer
// matrix shared by the 32-agent collective: one sequence-guarded 1024-byte
// buffer per (agent, kind) pair, laid out directly in shared memory.
package seqlock

import (
	"errors"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/nexusspine/spine/internal/spineconst"
)

// ErrBounds is returned when an agent or buffer-kind index is out of range.
var ErrBounds = errors.New("seqlock: agent or buffer kind index out of bounds")

// Buffer is a single seqlock-guarded buffer: an 8-byte atomic sequence
// counter, padded to fill one 64-byte cache line, followed by a
// 1024-byte payload. Exactly one writer may call Write on a given
// Buffer; any number of readers may call Read concurrently.
//
// sequence is even exactly when no writer is mid-write, odd exactly
// while one writer holds the slot. It only ever increases.
type Buffer struct {
	sequence atomic.Uint64
	_        [56]byte
	data     [spineconst.BufferSize]byte
}

// compile-time size assertion: header (one cache line) + payload.
var _ [64 + spineconst.BufferSize]byte = [unsafe.Sizeof(Buffer{})]byte{}

// Write publishes src into the buffer. If src is shorter than
// BufferSize, the remainder is zeroed. Write is not internally
// synchronized: callers must ensure only one writer ever calls it on a
// given Buffer.
func (b *Buffer) Write(src []byte) {
	b.sequence.Add(1) // publish odd: a write is in flight
	n := copy(b.data[:], src)
	for i := n; i < len(b.data); i++ {
		b.data[i] = 0
	}
	b.sequence.Add(1) // publish even: the write is visible
}

// Read copies up to BufferSize bytes into dst and returns the number of
// failed attempts (retries) it took to observe a stable image. The
// returned byte image always corresponds to some write that had
// already completed before Read returned.
func (b *Buffer) Read(dst []byte) uint32 {
	var retries uint32
	for {
		seq1 := b.sequence.Load()
		if seq1&1 == 1 {
			retries++
			runtime.Gosched()
			continue
		}
		copy(dst, b.data[:])
		seq2 := b.sequence.Load()
		if seq1 == seq2 {
			return retries
		}
		retries++
	}
}

// SequenceNumber returns a relaxed snapshot of the sequence counter, for
// monitoring only.
func (b *Buffer) SequenceNumber() uint64 { return b.sequence.Load() }

// IsWriting reports whether a writer currently holds this buffer.
func (b *Buffer) IsWriting() bool { return b.sequence.Load()&1 == 1 }
