package model

// Durability is the remaining use-count of an item or block.
// 0 <= Durability <= MaxDurability once a reduction completes.
type Durability struct {
	Durability    int `json:"durability"`
	MaxDurability int `json:"max_durability"`
}

// OverTimeReduce marks an entity whose durability decays on every decay interval.
type OverTimeReduce struct{}

// RetainDurability marks an entity whose durability survives the block<->item conversion.
type RetainDurability struct{}

// Item is the carried form: the entity lives in an inventory or on the ground.
type Item struct {
	ItemID string
	Count  int
}

// Block is the placed form: the entity occupies a cell of the world grid.
type Block struct {
	Pos     Vec3i
	BlockID string
	// Categories are the material categories of the block family (e.g. "stone", "wood").
	Categories []string
}
