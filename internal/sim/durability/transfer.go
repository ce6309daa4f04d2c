package durability

import (
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

// Preserve copies the retain marker and the durability state onto target,
// attaching them or overwriting what target already carries.
func Preserve(marker model.RetainDurability, st model.Durability, target *ecs.Entity) {
	ecs.Set(target, marker)
	ecs.Set(target, st)
}

func (s *System) onBlockToItem(ev model.BlockToItem, e *ecs.Entity) {
	s.preserveFrom(e, ev.Item)
}

func (s *System) onBlockItemPlaced(ev model.BlockItemPlaced, e *ecs.Entity) {
	s.preserveFrom(e, ev.PlacedBlock)
}

func (s *System) preserveFrom(src, target *ecs.Entity) {
	if target == nil {
		return
	}
	marker, _ := ecs.Get[model.RetainDurability](src)
	st, _ := ecs.Get[model.Durability](src)
	Preserve(*marker, *st, target)
	s.log.Debug().
		Str("from", string(src.ID())).
		Str("to", string(target.ID())).
		Int("durability", st.Durability).
		Msg("durability carried over")
}
