// Package replicate collects durability changes so a host transport can push
// them to clients. It only builds encoded batches; delivery is up to the host.
package replicate

import (
	"sort"

	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

type Tracker struct {
	store *ecs.Store
	dirty map[ecs.ID]struct{}
	seq   uint64
}

func NewTracker(store *ecs.Store, disp *ecs.Dispatcher) *Tracker {
	t := &Tracker{store: store, dirty: map[ecs.ID]struct{}{}}
	// High: must observe the reduction before exhaustion can destroy the entity.
	ecs.Subscribe(disp, "replicate.reduced", ecs.PriorityHigh, func(_ durability.DurabilityReduced, e *ecs.Entity) {
		t.mark(e.ID())
	})
	ecs.Subscribe(disp, "replicate.block_to_item", ecs.PriorityLow, func(ev model.BlockToItem, _ *ecs.Entity) {
		t.mark(ev.Item.ID())
	})
	ecs.Subscribe(disp, "replicate.item_placed", ecs.PriorityLow, func(ev model.BlockItemPlaced, _ *ecs.Entity) {
		t.mark(ev.PlacedBlock.ID())
	})
	return t
}

func (t *Tracker) mark(id ecs.ID) {
	if id == "" {
		return
	}
	t.dirty[id] = struct{}{}
}

func (t *Tracker) Pending() int { return len(t.dirty) }

// Flush encodes every pending change and clears the dirty set. It returns nil
// when nothing changed. Entities that no longer exist, or no longer carry
// durability, are reported as removed.
func (t *Tracker) Flush() ([]byte, error) {
	if len(t.dirty) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	frames := make([]Frame, 0, len(ids))
	for _, id := range ids {
		f := Frame{Entity: id}
		e, ok := t.store.Get(ecs.ID(id))
		st, has := ecs.Get[model.Durability](e)
		if !ok || !has {
			f.Removed = true
		} else {
			f.Durability = st.Durability
			f.MaxDurability = st.MaxDurability
		}
		frames = append(frames, f)
	}
	b, err := Encode(Batch{Seq: t.seq + 1, Frames: frames})
	if err != nil {
		return nil, err
	}
	t.seq++
	t.dirty = map[ecs.ID]struct{}{}
	return b, nil
}
