package durability

import (
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

func (s *System) checkExhausted(_ DurabilityReduced, e *ecs.Entity) {
	st, _ := ecs.Get[model.Durability](e)
	if st.Durability != 0 {
		return
	}
	ev := &DurabilityExhausted{}
	s.disp.Send(e, ev)
	if !ev.IsConsumed() {
		s.log.Debug().Str("entity", string(e.ID())).Msg("durability exhausted; no terminal handler")
	}
}

func (s *System) destroyItemOnExhausted(ev *DurabilityExhausted, e *ecs.Entity) {
	ev.Consume()
	item, _ := ecs.Get[model.Item](e)
	id := e.ID()
	if err := s.host.DestroyEntity(id); err != nil {
		s.log.Error().Err(err).Str("entity", string(id)).Msg("durability: destroy exhausted item")
		return
	}
	s.log.Info().Str("entity", string(id)).Str("item", item.ItemID).Msg("item worn out")
	s.audit("DURABILITY_EXHAUSTED", model.Vec3i{}, "ITEM_DESTROYED", map[string]any{
		"entity_id": string(id),
		"item":      item.ItemID,
	})
}

func (s *System) replaceBlockOnExhausted(ev *DurabilityExhausted, e *ecs.Entity) {
	ev.Consume()
	blk, _ := ecs.Get[model.Block](e)
	pos, blockID := blk.Pos, blk.BlockID
	id := e.ID()
	if err := s.host.SetBlock(pos, s.cfg.EmptyBlock); err != nil {
		s.log.Error().Err(err).Str("entity", string(id)).Stringer("pos", pos).Msg("durability: replace exhausted block")
		return
	}
	s.log.Info().Str("entity", string(id)).Str("block", blockID).Stringer("pos", pos).Msg("block worn out")
	s.audit("DURABILITY_EXHAUSTED", pos, "BLOCK_REPLACED", map[string]any{
		"entity_id": string(id),
		"block":     blockID,
		"with":      s.cfg.EmptyBlock,
	})
}
