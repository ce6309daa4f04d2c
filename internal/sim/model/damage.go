package model

// DamageProfile describes a damage type (e.g. a pickaxe hit). The multiplier
// table is keyed by material category.
type DamageProfile struct {
	ID                       string             `json:"id"`
	MaterialDamageMultiplier map[string]float64 `json:"material_damage_multiplier"`
}
