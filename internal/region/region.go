// Package region implements the shared-memory region allocator: it
// acquires a zero-initialized, page-locked, optionally huge-page-backed,
// process-shared byte region of a known size and hands back typed views
// over its two components (the agent buffer matrix and the interrupt
// ring) without ever copying them out of the mapping.
package region

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nexusspine/spine/internal/ringbuf"
	"github.com/nexusspine/spine/internal/seqlock"
	"github.com/nexusspine/spine/internal/spineconst"
)

// Region is a live mapping over the shared memory backing the agent
// buffer matrix and interrupt ring. The mapping is released on Close;
// a named segment is never unlinked by Close — the name's lifecycle
// belongs to whoever created it.
type Region struct {
	data  []byte
	name  string
	owner bool // true if this process allocated (vs attached to) the region
}

// RequiredSize returns the deterministic total size of the shared
// region: the agent matrix, the interrupt ring, and a fixed tail
// padding reserved for future ABI growth. Allocate and Attach must
// agree on this value, since it is the basis of the external attach
// contract.
func RequiredSize() int {
	return int(unsafe.Sizeof(seqlock.Matrix{})) + int(unsafe.Sizeof(ringbuf.Ring{})) + spineconst.TailPaddingBytes
}

// Matrix returns a typed view over the agent buffer matrix at the start
// of the region.
func (r *Region) Matrix() *seqlock.Matrix { return seqlock.MatrixAt(r.data) }

// Ring returns a typed view over the interrupt ring, immediately
// following the agent buffer matrix.
func (r *Region) Ring() *ringbuf.Ring {
	off := int(unsafe.Sizeof(seqlock.Matrix{}))
	return ringbuf.RingAt(r.data[off:])
}

// Name returns the shared-memory name this region was allocated or
// attached under, or "" for an anonymous region.
func (r *Region) Name() string { return r.name }

// Size returns the total mapped size in bytes.
func (r *Region) Size() int { return len(r.data) }

// Owner reports whether this process allocated (vs attached to) the
// region. Only the owner is expected to have zero-initialized it.
func (r *Region) Owner() bool { return r.owner }

// Close releases this process's mapping. It does not unlink a named
// shared-memory segment — per the allocator's documented lifecycle, the
// name outlives any single attachee's mapping, including the owner's.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	_ = unix.Munlock(r.data) // best effort; some kernels/cgroups deny mlock entirely
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
