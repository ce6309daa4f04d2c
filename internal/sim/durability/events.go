package durability

import "voxelcraft.ai/durability/internal/sim/ecs"

// ReduceDurability asks the target entity to lose Amount durability.
type ReduceDurability struct {
	Amount int
}

// DurabilityReduced follows every applied reduction, even when the value did
// not change.
type DurabilityReduced struct{}

// DurabilityExhausted is sent when durability reaches zero. It is consumable:
// exactly one terminal handler acts on it. Always send it by pointer.
type DurabilityExhausted struct {
	ecs.Consumer
}
