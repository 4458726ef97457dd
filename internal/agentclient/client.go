// Package agentclient exposes the shared region through a C-ABI-shaped
// function table (init/attach/write_buffer/read_buffer/activate_agent/
// active_count/push_interrupt/pop_interrupt/ring_len), using integer
// return codes instead of idiomatic Go errors.
//
// This is the seam where a cgo //export boundary would sit for a real
// out-of-process agent written in another language; building that
// boundary itself is out of scope, so this package stops at a
// same-process Go adapter that any same-process test or tool can drive
// exactly the way an attached agent would.
package agentclient

import "github.com/nexusspine/spine"

// Client adapts a *spine.Region to the C-ABI-shaped function table.
type Client struct {
	region *spine.Region
}

// Init allocates a new region under name and wraps it in a Client.
// Returns 0 on success, -1 on allocation failure.
func Init(name string) (*Client, int32) {
	r, err := spine.Allocate(name)
	if err != nil {
		return nil, -1
	}
	return &Client{region: r}, 0
}

// Attach opens an existing region under name and wraps it in a Client.
func Attach(name string) (*Client, int32) {
	r, err := spine.Attach(name)
	if err != nil {
		return nil, -1
	}
	return &Client{region: r}, 0
}

// WriteBuffer performs a seqlock write, returning 0 on success, -1 for
// a nil client, and -2 for an out-of-range agent or buffer kind.
func (c *Client) WriteBuffer(agentID, kind int, data []byte) int32 {
	if c == nil || c.region == nil {
		return -1
	}
	if err := c.region.WriteBuffer(agentID, kind, data); err != nil {
		return -2
	}
	return 0
}

// ReadBuffer performs a seqlock read, returning the retry count on
// success or -1/-2 on failure.
func (c *Client) ReadBuffer(agentID, kind int, dst []byte) int32 {
	if c == nil || c.region == nil {
		return -1
	}
	retries, err := c.region.ReadBuffer(agentID, kind, dst)
	if err != nil {
		return -2
	}
	return int32(retries)
}

// ActivateAgent sets an agent's active flag.
func (c *Client) ActivateAgent(agentID int) int32 {
	if c == nil || c.region == nil {
		return -1
	}
	if err := c.region.ActivateAgent(agentID); err != nil {
		return -2
	}
	return 0
}

// ActiveCount returns the number of active agents.
func (c *Client) ActiveCount() int32 {
	if c == nil || c.region == nil {
		return -1
	}
	return int32(c.region.ActiveCount())
}

// PushInterrupt stamps a timestamp and pushes an interrupt entry.
// Returns 0 on success, -3 if the ring is full.
func (c *Client) PushInterrupt(sourceAgent, targetAgent uint16, interruptType, priority uint8, payload []byte) int32 {
	if c == nil || c.region == nil {
		return -1
	}
	if !c.region.PushInterrupt(sourceAgent, targetAgent, interruptType, priority, payload) {
		return -3
	}
	return 0
}

// PoppedInterrupt is the out-parameter bundle PopInterrupt fills,
// standing in for the C-ABI table's non-null out-pointers.
type PoppedInterrupt struct {
	SourceAgent   uint16
	TargetAgent   uint16
	InterruptType uint8
	Priority      uint8
	Timestamp     uint64
	Payload       [44]byte
}

// PopInterrupt pops one entry. Returns 0 and fills out on success, 1 if
// the ring is empty.
func (c *Client) PopInterrupt(out *PoppedInterrupt) int32 {
	if c == nil || c.region == nil {
		return -1
	}
	entry, ok := c.region.PopInterrupt()
	if !ok {
		return 1
	}
	if out != nil {
		out.SourceAgent = entry.SourceAgent
		out.TargetAgent = entry.TargetAgent
		out.InterruptType = entry.InterruptType
		out.Priority = entry.Priority
		out.Timestamp = entry.Timestamp
		out.Payload = entry.Payload
	}
	return 0
}

// RingLen returns the approximate number of queued interrupts.
func (c *Client) RingLen() int32 {
	if c == nil || c.region == nil {
		return -1
	}
	return int32(c.region.RingLen())
}

// Close releases the underlying region's mapping.
func (c *Client) Close() error {
	if c == nil || c.region == nil {
		return nil
	}
	return c.region.Close()
}
