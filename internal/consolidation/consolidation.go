// Package consolidation implements the memory-pruning engine: once every
// 100 cognitive-loop ticks it bulk-harvests every agent's sequence
// numbers, derives a staleness and prune score per agent, and retains a
// sorted report for observational queries. It never mutates the agent
// buffer matrix — pruning decisions are advisory.
package consolidation

import (
	"math"
	"sort"

	"github.com/nexusspine/spine/internal/seqlock"
	"github.com/nexusspine/spine/internal/spineconst"
)

// Metadata is one agent's pruning record for a single consolidation cycle.
type Metadata struct {
	AgentID    int     `json:"agent_id"`
	Active     bool    `json:"active"`
	Sequences  [spineconst.NumBufferKinds]uint64 `json:"sequences"`
	TotalWrites uint64 `json:"total_writes"`
	Staleness  uint64  `json:"staleness"`
	PruneScore float64 `json:"prune_score"`
}

// Stats is an observational snapshot of the engine's running state.
type Stats struct {
	CycleCount    uint64  `json:"cycle_count"`
	ActiveAgents  int     `json:"active_agents"`
	TotalAgents   int     `json:"total_agents"`
	AvgStaleness  float64 `json:"avg_staleness"`
	PrunableCount int     `json:"prunable_count"`
}

// prunableThreshold is the prune-score cutoff used by Stats' prunable count.
const prunableThreshold = 50.0

// Engine tracks consolidation state across cycles: the prior cycle's
// sequence snapshot per agent (for staleness detection) and the last
// sorted result set.
type Engine struct {
	prevSnapshots [spineconst.NumAgents][spineconst.NumBufferKinds]uint64
	cycleCount    uint64
	lastResults   []Metadata
}

// NewEngine creates a consolidation engine.
func NewEngine() *Engine { return &Engine{} }

// Consolidate runs one consolidation cycle against the given matrix and
// returns the sorted (most-prunable-first) results.
func (e *Engine) Consolidate(matrix *seqlock.Matrix) []Metadata {
	e.cycleCount++

	// Phase 1: bulk harvest. Converts NumAgents*NumBufferKinds random
	// reads into one linear scan before any scoring touches the data.
	local := make([]seqlock.Metadata, 0, spineconst.NumAgents)
	for i := 0; i < spineconst.NumAgents; i++ {
		meta, ok := matrix.AgentMetadata(i)
		if ok {
			local = append(local, meta)
		}
	}

	// Phase 2: score on local data only.
	results := make([]Metadata, 0, len(local))
	for _, meta := range local {
		prev := &e.prevSnapshots[meta.AgentID]

		var totalSeq uint64
		changed := false
		for k, seq := range meta.Sequences {
			totalSeq += seq
			if seq != prev[k] {
				changed = true
			}
		}
		totalWrites := totalSeq / 2

		var staleness uint64
		if changed {
			staleness = 0
		} else if prior, found := findResult(e.lastResults, meta.AgentID); found {
			staleness = prior.Staleness + 1
		} else {
			staleness = 1
		}

		denom := e.cycleCount
		if denom < 1 {
			denom = 1
		}
		activityRate := float64(totalWrites) / float64(denom)

		pruneScore := 100.0
		if meta.Active {
			pruneScore = math.Sqrt(float64(staleness)) * (1.0 / (1.0 + activityRate)) * 10.0
		}

		results = append(results, Metadata{
			AgentID:     meta.AgentID,
			Active:      meta.Active,
			Sequences:   meta.Sequences,
			TotalWrites: totalWrites,
			Staleness:   staleness,
			PruneScore:  pruneScore,
		})

		*prev = meta.Sequences
	}

	sort.SliceStable(results, func(a, b int) bool {
		sa, sb := results[a].PruneScore, results[b].PruneScore
		if math.IsNaN(sa) || math.IsNaN(sb) {
			return false
		}
		return sa > sb
	})

	e.lastResults = results
	return results
}

func findResult(results []Metadata, agentID int) (Metadata, bool) {
	for _, r := range results {
		if r.AgentID == agentID {
			return r, true
		}
	}
	return Metadata{}, false
}

// GetPrunable returns the agents from the last cycle whose prune score
// exceeds threshold.
func (e *Engine) GetPrunable(threshold float64) []Metadata {
	var out []Metadata
	for _, r := range e.lastResults {
		if r.PruneScore > threshold {
			out = append(out, r)
		}
	}
	return out
}

// CycleCount returns the number of consolidation cycles run so far.
func (e *Engine) CycleCount() uint64 { return e.cycleCount }

// LastResults returns the sorted results of the most recent cycle.
func (e *Engine) LastResults() []Metadata { return e.lastResults }

// StatsSnapshot returns an observational snapshot of engine state.
func (e *Engine) StatsSnapshot() Stats {
	active := 0
	var staleSum float64
	for _, r := range e.lastResults {
		if r.Active {
			active++
		}
		staleSum += float64(r.Staleness)
	}
	avgStaleness := 0.0
	if len(e.lastResults) > 0 {
		avgStaleness = staleSum / float64(len(e.lastResults))
	}
	return Stats{
		CycleCount:    e.cycleCount,
		ActiveAgents:  active,
		TotalAgents:   len(e.lastResults),
		AvgStaleness:  avgStaleness,
		PrunableCount: len(e.GetPrunable(prunableThreshold)),
	}
}
