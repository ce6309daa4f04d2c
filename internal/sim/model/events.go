package model

import "voxelcraft.ai/durability/internal/sim/ecs"

// Destroyed is sent to an entity being destroyed. Cause is the acting entity
// (e.g. the tool); DamageType may be nil.
type Destroyed struct {
	Cause      ecs.ID
	DamageType *DamageProfile
}

// BlockToItem is sent to a block entity when it is broken into an item.
type BlockToItem struct {
	Item *ecs.Entity
}

// BlockItemPlaced is sent to an item entity when it is placed as a block.
type BlockItemPlaced struct {
	PlacedBlock *ecs.Entity
}
