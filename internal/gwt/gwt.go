// Package gwt implements the Global Workspace Theory broadcast engine:
// once per cognitive-loop tick it snapshots every active agent's
// workspace, scores each for salience, and fans the top-K summary out to
// every active agent's broadcast slot.
package gwt

import (
	"math"
	"sort"

	"github.com/nexusspine/spine/internal/seqlock"
	"github.com/nexusspine/spine/internal/spineconst"
)

// fnvOffset64 and fnvPrime64 are the canonical FNV-1a 64-bit constants.
const (
	fnvOffset64 uint64 = 0xcbf29ce484222325
	fnvPrime64  uint64 = 0x100000001b3
)

func fastHash(data []byte) uint64 {
	h := fnvOffset64
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return h
}

// SalienceScore is one agent's salience breakdown for one broadcast cycle.
type SalienceScore struct {
	AgentID   int     `json:"agent_id"`
	Recency   float64 `json:"recency"`
	Relevance float64 `json:"relevance"`
	Surprise  float64 `json:"surprise"`
	Salience  float64 `json:"salience"`
}

// Stats is an observational snapshot of the engine's running state.
type Stats struct {
	TopK              int   `json:"top_k"`
	CycleCount        uint64 `json:"cycle_count"`
	LastWinnerCount   int   `json:"last_winner_count"`
	AvgBroadcastMicros float64 `json:"avg_broadcast_us"`
}

// Engine holds the GWT broadcast engine's per-cycle state: the previous
// cycle's hash and sequence number per agent, used to score recency and
// surprise.
type Engine struct {
	TopK int

	prevHash     [spineconst.NumAgents]uint64
	prevSequence [spineconst.NumAgents]uint64

	cycleCount      uint64
	lastWinners     []SalienceScore
	totalBroadcastNs uint64
	broadcastCount   uint64
}

// NewEngine creates a GWT engine with the given top-K winner count.
func NewEngine(topK int) *Engine {
	if topK <= 0 {
		topK = spineconst.DefaultTopK
	}
	return &Engine{TopK: topK}
}

// BroadcastCycle runs one tick: snapshot, score, select, pack, fan out.
// Returns the scored winners in rank order (for observability); the
// packed payload is written to every active agent's BROADCAST buffer
// and is not returned.
func (e *Engine) BroadcastCycle(matrix *seqlock.Matrix) []SalienceScore {
	e.cycleCount++

	var workspaces [spineconst.NumAgents][spineconst.BufferSize]byte
	scores := make([]SalienceScore, 0, spineconst.NumAgents)

	// Phase 1: snapshot every active agent's workspace via the seqlock
	// read protocol, and score it. Only the local copy is touched from
	// here on — no further shared-memory reads occur during scoring.
	for i := 0; i < spineconst.NumAgents; i++ {
		if !matrix.IsActive(i) {
			continue
		}

		buf := matrix.BufferRef(i, spineconst.BufWorkspace)
		buf.Read(workspaces[i][:])
		seq := buf.SequenceNumber()

		recency := 0.3
		if seq > e.prevSequence[i] {
			recency = 1.0
		}

		relevance := computeRelevance(workspaces[i][:])

		hash := fastHash(workspaces[i][:])
		surprise := 0.1
		if hash != e.prevHash[i] {
			surprise = 1.0
		}

		e.prevHash[i] = hash
		e.prevSequence[i] = seq

		scores = append(scores, SalienceScore{
			AgentID:   i,
			Recency:   recency,
			Relevance: relevance,
			Surprise:  surprise,
			Salience:  recency * relevance * surprise,
		})
	}

	// Phase 2: rank descending by salience; ties keep ascending
	// agent-id order since sort.SliceStable preserves input order
	// (which is built in ascending agent index) among equal elements.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Salience > scores[b].Salience
	})

	winners := scores
	if len(winners) > e.TopK {
		winners = winners[:e.TopK]
	}

	// Phase 3: pack the summary payload.
	payload := make([]byte, spineconst.BufferSize)
	payload[0] = byte(len(winners))
	offset := 1
	packed := 0
	for _, w := range winners {
		const perWinner = 1 + 128
		if offset+perWinner > spineconst.BufferSize {
			break
		}
		payload[offset] = byte(w.AgentID)
		copy(payload[offset+1:offset+1+128], workspaces[w.AgentID][:128])
		offset += perWinner
		packed++
	}
	if packed != len(winners) {
		payload[0] = byte(packed)
		winners = winners[:packed]
	}

	// Phase 4: fan out to every active agent's BROADCAST buffer. The
	// core is the sole writer of BROADCAST slots, so this never races
	// an agent's own writes.
	for i := 0; i < spineconst.NumAgents; i++ {
		if matrix.IsActive(i) {
			matrix.BufferRef(i, spineconst.BufBroadcast).Write(payload)
		}
	}

	e.lastWinners = winners
	e.broadcastCount++
	return winners
}

// computeRelevance scores non-zero density and distinct-byte diversity.
func computeRelevance(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	nonZero := 0
	var seen [256]bool
	distinct := 0
	for _, b := range data {
		if b != 0 {
			nonZero++
		}
		if !seen[b] {
			seen[b] = true
			distinct++
		}
	}
	density := float64(nonZero) / float64(len(data))
	diversity := float64(distinct) / 256.0
	if density == 0 {
		return 0
	}
	return math.Sqrt(density * diversity)
}

// RecordBroadcastDuration accumulates a cycle's wall-clock cost for
// AvgBroadcastMicros.
func (e *Engine) RecordBroadcastDuration(ns uint64) {
	e.totalBroadcastNs += ns
}

// LastWinners returns the winners selected by the most recent cycle.
func (e *Engine) LastWinners() []SalienceScore { return e.lastWinners }

// CycleCount returns the number of broadcast cycles run so far.
func (e *Engine) CycleCount() uint64 { return e.cycleCount }

// StatsSnapshot returns an observational snapshot of the engine state.
func (e *Engine) StatsSnapshot() Stats {
	avg := 0.0
	if e.broadcastCount > 0 {
		avg = float64(e.totalBroadcastNs) / float64(e.broadcastCount) / 1000.0
	}
	return Stats{
		TopK:               e.TopK,
		CycleCount:         e.cycleCount,
		LastWinnerCount:    len(e.lastWinners),
		AvgBroadcastMicros: avg,
	}
}
