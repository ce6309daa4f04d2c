package durability

import (
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

// IsRightTool reports whether any of the material categories has an entry in
// the profile's multiplier table. The multiplier value itself is ignored.
func IsRightTool(categories []string, profile *model.DamageProfile) bool {
	if len(categories) == 0 || profile == nil {
		return false
	}
	for _, c := range categories {
		if _, ok := profile.MaterialDamageMultiplier[c]; ok {
			return true
		}
	}
	return false
}

func (s *System) onBlockDestroyed(ev model.Destroyed, e *ecs.Entity) {
	tool, ok := s.store.Get(ev.Cause)
	if !ok || !ecs.Has[model.Durability](tool) {
		return
	}
	blk, _ := ecs.Get[model.Block](e)
	if !IsRightTool(blk.Categories, ev.DamageType) {
		return
	}
	s.disp.Send(tool, ReduceDurability{Amount: s.cfg.ToolWearPerBreak})
}
