package main

import (
	"fmt"

	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/world"
)

type report struct {
	Entries        int
	Runs           int
	ItemsDestroyed int
	BlocksReplaced int
	ByAction       map[string]int
}

type runState struct {
	prev     *world.AuditEntry
	resolved map[string]int64
}

// verify checks the exhaustion trail of an audit stream, run by run: game time
// never goes back, every entity is resolved at most once, and each resolution
// directly follows the host action it reports. Entity ids are only unique
// within a run, since entities do not outlive their process.
func verify(entries []world.AuditEntry, cats *catalogs.Catalogs) (report, error) {
	rep := report{ByAction: map[string]int{}}
	runs := map[string]*runState{}

	for i := range entries {
		e := &entries[i]
		rep.Entries++
		rep.ByAction[e.Action]++

		rs, ok := runs[e.Run]
		if !ok {
			rs = &runState{resolved: map[string]int64{}}
			runs[e.Run] = rs
		}
		prev := rs.prev
		rs.prev = e

		if prev != nil && e.TimeMs < prev.TimeMs {
			return rep, fmt.Errorf("entry %d (run %s): time went back: %d after %d", i, e.Run, e.TimeMs, prev.TimeMs)
		}
		if e.Action != "DURABILITY_EXHAUSTED" {
			continue
		}

		id, _ := e.Details["entity_id"].(string)
		if id == "" {
			return rep, fmt.Errorf("entry %d: exhaustion without entity_id", i)
		}
		if at, dup := rs.resolved[id]; dup {
			return rep, fmt.Errorf("entry %d (run %s): %s resolved twice (first at %dms)", i, e.Run, id, at)
		}
		rs.resolved[id] = e.TimeMs

		if prev == nil || prev.TimeMs != e.TimeMs {
			return rep, fmt.Errorf("entry %d: %s has no host action before it", i, id)
		}
		switch e.Reason {
		case "ITEM_DESTROYED":
			pid, _ := prev.Details["entity_id"].(string)
			if prev.Action != "ENTITY_DESTROY" || pid != id {
				return rep, fmt.Errorf("entry %d: %s destroyed without ENTITY_DESTROY (prev=%s)", i, id, prev.Action)
			}
			rep.ItemsDestroyed++
		case "BLOCK_REPLACED":
			if prev.Action != "SET_BLOCK" || prev.Pos != e.Pos {
				return rep, fmt.Errorf("entry %d: %s replaced without SET_BLOCK at %v (prev=%s)", i, id, e.Pos, prev.Action)
			}
			with, _ := e.Details["with"].(string)
			if want, ok := cats.Blocks.Index[with]; ok && prev.To != want {
				return rep, fmt.Errorf("entry %d: %s replaced with palette %d, want %s=%d", i, id, prev.To, with, want)
			}
			rep.BlocksReplaced++
		default:
			return rep, fmt.Errorf("entry %d: unknown exhaustion reason %q", i, e.Reason)
		}
	}
	rep.Runs = len(runs)
	return rep, nil
}
