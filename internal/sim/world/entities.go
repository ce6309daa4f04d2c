package world

import (
	"fmt"
	"sort"

	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

// durabilityDefaults attaches the configured durability components.
func durabilityDefaults(e *ecs.Entity, maxDur int, decay, retain bool) {
	if maxDur <= 0 {
		return
	}
	ecs.Set(e, model.Durability{Durability: maxDur, MaxDurability: maxDur})
	if decay {
		ecs.Set(e, model.OverTimeReduce{})
	}
	if retain {
		ecs.Set(e, model.RetainDurability{})
	}
}

func (w *World) newItemEntity(def catalogs.ItemDef, count int) *ecs.Entity {
	e := w.store.Create()
	ecs.Set(e, model.Item{ItemID: def.ID, Count: count})
	durabilityDefaults(e, def.MaxDurability, def.Decay, def.RetainDurability)
	return e
}

func (w *World) newBlockEntity(pos Vec3i, def catalogs.BlockDef) *ecs.Entity {
	e := w.store.Create()
	cats := append([]string(nil), def.Categories...)
	ecs.Set(e, model.Block{Pos: pos, BlockID: def.ID, Categories: cats})
	durabilityDefaults(e, def.MaxDurability, def.Decay, def.RetainDurability)
	return e
}

// SpawnItem creates a carried item entity with the catalog's durability setup.
func (w *World) SpawnItem(item string, count int) (*ecs.Entity, error) {
	def, ok := w.cats.Items.Defs[item]
	if !ok {
		return nil, fmt.Errorf("spawn %s: %w", item, ErrUnknownItem)
	}
	if count <= 0 {
		count = 1
	}
	e := w.newItemEntity(def, count)
	w.auditEvent("SYSTEM", "ITEM_SPAWN", Vec3i{}, "", map[string]any{
		"entity_id": string(e.ID()),
		"item":      item,
		"count":     count,
	})
	return e, nil
}

// PlaceItem converts one unit of a carried item into a placed block at pos.
func (w *World) PlaceItem(itemID ecs.ID, pos Vec3i) (*ecs.Entity, error) {
	ie, ok := w.store.Get(itemID)
	if !ok {
		return nil, fmt.Errorf("place %s: %w", itemID, ecs.ErrNoEntity)
	}
	it, ok := ecs.Get[model.Item](ie)
	if !ok {
		return nil, fmt.Errorf("place %s: %w", itemID, ErrNotAnItem)
	}
	idef := w.cats.Items.Defs[it.ItemID]
	if idef.PlaceAs == "" {
		return nil, fmt.Errorf("place %s: %w", it.ItemID, ErrNotPlaceable)
	}
	bdef, ok := w.cats.Blocks.Defs[idef.PlaceAs]
	if !ok {
		return nil, fmt.Errorf("place %s: %s: %w", it.ItemID, idef.PlaceAs, ErrUnknownBlock)
	}
	if _, taken := w.cells[pos]; taken {
		return nil, fmt.Errorf("place %s at %s: %w", it.ItemID, pos, ErrOccupied)
	}

	be := w.newBlockEntity(pos, bdef)
	w.cells[pos] = be.ID()
	w.disp.Send(ie, model.BlockItemPlaced{PlacedBlock: be})

	it.Count--
	if it.Count <= 0 {
		_ = w.store.Destroy(itemID)
	}
	w.auditSetBlock("SYSTEM", pos, w.emptyBlock(), bdef.ID, "PLACE_ITEM")
	return be, nil
}

// BreakBlock destroys the block at pos with tool as the cause. damageType
// overrides the tool's own damage type when set. It returns the dropped item
// entity, or nil when the block drops nothing.
func (w *World) BreakBlock(pos Vec3i, tool ecs.ID, damageType string) (*ecs.Entity, error) {
	be, ok := w.BlockEntityAt(pos)
	if !ok {
		return nil, fmt.Errorf("break %s: %w", pos, ErrNoBlock)
	}
	blk, _ := ecs.Get[model.Block](be)
	bdef := w.cats.Blocks.Defs[blk.BlockID]
	if !bdef.Breakable {
		return nil, fmt.Errorf("break %s at %s: %w", bdef.ID, pos, ErrUnbreakable)
	}

	w.disp.Send(be, model.Destroyed{Cause: tool, DamageType: w.damageTypeFor(tool, damageType)})

	var drop *ecs.Entity
	if be.Alive() && bdef.DropsItem != "" {
		if idef, ok := w.cats.Items.Defs[bdef.DropsItem]; ok {
			drop = w.newItemEntity(idef, 1)
			w.auditEvent("SYSTEM", "ITEM_SPAWN", pos, "BREAK_BLOCK", map[string]any{
				"entity_id": string(drop.ID()),
				"item":      idef.ID,
				"count":     1,
				"from":      string(be.ID()),
			})
			w.disp.Send(be, model.BlockToItem{Item: drop})
		}
	}
	if be.Alive() {
		_ = w.store.Destroy(be.ID())
	}
	delete(w.cells, pos)
	actor := string(tool)
	if actor == "" {
		actor = "HAND"
	}
	w.auditSetBlock(actor, pos, bdef.ID, w.emptyBlock(), "BREAK_BLOCK")
	return drop, nil
}

func (w *World) damageTypeFor(tool ecs.ID, override string) *model.DamageProfile {
	if override != "" {
		return w.cats.DamageType(override)
	}
	te, ok := w.store.Get(tool)
	if !ok {
		return nil
	}
	it, ok := ecs.Get[model.Item](te)
	if !ok {
		return nil
	}
	return w.cats.DamageType(w.cats.Items.Defs[it.ItemID].DamageType)
}

// SetBlock replaces whatever occupies pos with block. Any block entity there
// is destroyed without drops; non-empty blocks get a fresh entity.
func (w *World) SetBlock(pos Vec3i, block string) error {
	def, ok := w.cats.Blocks.Defs[block]
	if !ok {
		return fmt.Errorf("set %s: %w", block, ErrUnknownBlock)
	}
	from := w.BlockAt(pos)
	if id, ok := w.cells[pos]; ok {
		_ = w.store.Destroy(id)
		delete(w.cells, pos)
	}
	if block != w.emptyBlock() {
		be := w.newBlockEntity(pos, def)
		w.cells[pos] = be.ID()
	}
	w.auditSetBlock("SYSTEM", pos, from, block, "SET_BLOCK")
	return nil
}

// DestroyEntity removes an entity; a block entity also frees its cell.
func (w *World) DestroyEntity(id ecs.ID) error {
	e, ok := w.store.Get(id)
	if !ok {
		return fmt.Errorf("destroy %s: %w", id, ecs.ErrNoEntity)
	}
	if b, ok := ecs.Get[model.Block](e); ok && w.cells[b.Pos] == id {
		delete(w.cells, b.Pos)
	}
	if err := w.store.Destroy(id); err != nil {
		return err
	}
	w.auditEvent("SYSTEM", "ENTITY_DESTROY", Vec3i{}, "", map[string]any{"entity_id": string(id)})
	return nil
}

func sortVecs(vs []Vec3i) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}
