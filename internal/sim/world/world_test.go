package world

import (
	"errors"
	"path/filepath"
	"testing"

	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

type memSink struct{ entries []AuditEntry }

func (m *memSink) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memSink) count(action, reason string) int {
	n := 0
	for _, e := range m.entries {
		if e.Action == action && (reason == "" || e.Reason == reason) {
			n++
		}
	}
	return n
}

func newTestWorld(t *testing.T) (*World, *memSink) {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	sink := &memSink{}
	w, err := New(WorldConfig{
		ID:         "world_test",
		Durability: durability.DefaultConfig(),
		IDs:        ecs.SequentialIDs("E"),
		Audit:      []AuditSink{sink},
	}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w, sink
}

func spawn(t *testing.T, w *World, item string) *ecs.Entity {
	t.Helper()
	e, err := w.SpawnItem(item, 1)
	if err != nil {
		t.Fatalf("SpawnItem(%s): %v", item, err)
	}
	return e
}

func durOf(t *testing.T, e *ecs.Entity) model.Durability {
	t.Helper()
	st, ok := ecs.Get[model.Durability](e)
	if !ok {
		t.Fatalf("entity %s has no durability", e.ID())
	}
	return *st
}

func TestSpawnItem_AppliesCatalogDurability(t *testing.T) {
	w, _ := newTestWorld(t)
	torch := spawn(t, w, "TORCH")
	if got := durOf(t, torch); got != (model.Durability{Durability: 120, MaxDurability: 120}) {
		t.Fatalf("torch durability: %+v", got)
	}
	if !ecs.Has[model.OverTimeReduce](torch) || !ecs.Has[model.RetainDurability](torch) {
		t.Fatalf("torch should decay and retain")
	}
	stone := spawn(t, w, "STONE")
	if ecs.Has[model.Durability](stone) {
		t.Fatalf("stone has no durability semantics")
	}
	if _, err := w.SpawnItem("NOPE", 1); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestPlaceAndBreak_RoundTripKeepsDurability(t *testing.T) {
	w, _ := newTestWorld(t)
	torch := spawn(t, w, "TORCH")
	if err := w.Durability().Reduce(torch.ID(), 113); err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	pos := Vec3i{X: 3, Y: 0, Z: -2}
	placed, err := w.PlaceItem(torch.ID(), pos)
	if err != nil {
		t.Fatalf("PlaceItem: %v", err)
	}
	if torch.Alive() {
		t.Fatalf("placing the only torch should consume the item entity")
	}
	if got := durOf(t, placed); got.Durability != 7 || got.MaxDurability != 120 {
		t.Fatalf("placed durability: %+v", got)
	}
	if w.BlockAt(pos) != "TORCH" {
		t.Fatalf("cell should hold TORCH, got %s", w.BlockAt(pos))
	}

	drop, err := w.BreakBlock(pos, "", "")
	if err != nil {
		t.Fatalf("BreakBlock: %v", err)
	}
	if drop == nil {
		t.Fatalf("torch should drop an item")
	}
	if got := durOf(t, drop); got.Durability != 7 || got.MaxDurability != 120 {
		t.Fatalf("dropped durability: %+v", got)
	}
	if w.BlockAt(pos) != "AIR" {
		t.Fatalf("cell should be empty after break, got %s", w.BlockAt(pos))
	}
}

func TestBreakBlock_ToolWearOnlyForMatchingMaterial(t *testing.T) {
	w, _ := newTestWorld(t)
	pick := spawn(t, w, "STONE_PICKAXE")
	axe := spawn(t, w, "STONE_AXE")

	for _, p := range []Vec3i{{X: 0}, {X: 1}} {
		if err := w.SetBlock(p, "STONE"); err != nil {
			t.Fatalf("SetBlock: %v", err)
		}
	}
	if _, err := w.BreakBlock(Vec3i{X: 0}, axe.ID(), ""); err != nil {
		t.Fatalf("BreakBlock axe: %v", err)
	}
	if got := durOf(t, axe).Durability; got != 64 {
		t.Fatalf("axe should not wear on stone, got %d", got)
	}
	if _, err := w.BreakBlock(Vec3i{X: 1}, pick.ID(), ""); err != nil {
		t.Fatalf("BreakBlock pick: %v", err)
	}
	if got := durOf(t, pick).Durability; got != 63 {
		t.Fatalf("pickaxe should wear on stone, got %d", got)
	}
}

func TestBreakBlock_DamageTypeOverride(t *testing.T) {
	w, _ := newTestWorld(t)
	pick := spawn(t, w, "WOOD_PICKAXE")
	if err := w.SetBlock(Vec3i{}, "LOG"); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if _, err := w.BreakBlock(Vec3i{}, pick.ID(), "axe"); err != nil {
		t.Fatalf("BreakBlock: %v", err)
	}
	if got := durOf(t, pick).Durability; got != 31 {
		t.Fatalf("override damage type should wear the tool, got %d", got)
	}
}

func TestBreakBlock_ExhaustsTool(t *testing.T) {
	w, sink := newTestWorld(t)
	pick := spawn(t, w, "WOOD_PICKAXE")
	if err := w.Durability().Reduce(pick.ID(), 31); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if err := w.SetBlock(Vec3i{}, "IRON_ORE"); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	drop, err := w.BreakBlock(Vec3i{}, pick.ID(), "")
	if err != nil {
		t.Fatalf("BreakBlock: %v", err)
	}
	if pick.Alive() {
		t.Fatalf("pickaxe should be destroyed at zero durability")
	}
	if drop == nil || w.BlockAt(Vec3i{}) != "AIR" {
		t.Fatalf("block should still break and drop")
	}
	if sink.count("DURABILITY_EXHAUSTED", "ITEM_DESTROYED") != 1 {
		t.Fatalf("expected one exhaustion audit, got %+v", sink.entries)
	}
}

func TestStep_DecayReplacesPlacedBlock(t *testing.T) {
	w, sink := newTestWorld(t)
	pos := Vec3i{X: 5}
	if err := w.SetBlock(pos, "CAMPFIRE"); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	be, _ := w.BlockEntityAt(pos)
	if err := w.Durability().Reduce(be.ID(), 59); err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if n := w.Step(5000); n != 0 {
		t.Fatalf("no decay before interval elapsed, got %d", n)
	}
	if n := w.Step(5001); n != 1 {
		t.Fatalf("expected one decaying entity, got %d", n)
	}
	if w.BlockAt(pos) != "AIR" {
		t.Fatalf("exhausted campfire should become AIR, got %s", w.BlockAt(pos))
	}
	if be.Alive() {
		t.Fatalf("block entity should be gone")
	}
	if sink.count("DURABILITY_EXHAUSTED", "BLOCK_REPLACED") != 1 {
		t.Fatalf("expected one block replacement audit")
	}
}

func TestStep_DecayDestroysCarriedItem(t *testing.T) {
	w, _ := newTestWorld(t)
	torch := spawn(t, w, "TORCH")
	if err := w.Durability().Reduce(torch.ID(), 119); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	w.Step(5001)
	if torch.Alive() {
		t.Fatalf("exhausted torch should be destroyed")
	}
	if _, ok := w.Entity(torch.ID()); ok {
		t.Fatalf("store still holds destroyed torch")
	}
}

func TestStep_CoarseDecayAfterPause(t *testing.T) {
	w, _ := newTestWorld(t)
	torch := spawn(t, w, "TORCH")
	w.Step(5001)
	w.Step(5001 + 15001)
	if got := durOf(t, torch).Durability; got != 118 {
		t.Fatalf("expected two single reductions, got durability %d", got)
	}
}

func TestPlaceItem_Errors(t *testing.T) {
	w, _ := newTestWorld(t)
	pick := spawn(t, w, "STONE_PICKAXE")
	if _, err := w.PlaceItem(pick.ID(), Vec3i{}); !errors.Is(err, ErrNotPlaceable) {
		t.Fatalf("expected ErrNotPlaceable, got %v", err)
	}
	torch := spawn(t, w, "TORCH")
	if err := w.SetBlock(Vec3i{}, "STONE"); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if _, err := w.PlaceItem(torch.ID(), Vec3i{}); !errors.Is(err, ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	if !torch.Alive() {
		t.Fatalf("failed placement must not consume the item")
	}
	if _, err := w.PlaceItem("missing", Vec3i{X: 1}); !errors.Is(err, ecs.ErrNoEntity) {
		t.Fatalf("expected ErrNoEntity, got %v", err)
	}
}

func TestBreakBlock_Errors(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.BreakBlock(Vec3i{X: 9}, "", ""); !errors.Is(err, ErrNoBlock) {
		t.Fatalf("expected ErrNoBlock, got %v", err)
	}
	if err := w.SetBlock(Vec3i{}, "NOPE"); !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("expected ErrUnknownBlock, got %v", err)
	}
}

func TestSetBlock_AuditsPaletteIDs(t *testing.T) {
	w, sink := newTestWorld(t)
	if err := w.SetBlock(Vec3i{Y: 1}, "STONE"); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if len(sink.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	idx := w.Catalogs().Blocks.Index
	if e.Action != "SET_BLOCK" || e.From != idx["AIR"] || e.To != idx["STONE"] || e.Pos != [3]int{0, 1, 0} {
		t.Fatalf("unexpected audit: %+v", e)
	}
	if cells := w.Cells(); len(cells) != 1 || cells[0] != (Vec3i{Y: 1}) {
		t.Fatalf("unexpected cells: %v", cells)
	}
}

func TestBreakBlock_AuditsDroppedItem(t *testing.T) {
	w, sink := newTestWorld(t)
	stone := spawn(t, w, "STONE")
	pos := Vec3i{X: 1, Y: 2, Z: 3}
	placed, err := w.PlaceItem(stone.ID(), pos)
	if err != nil {
		t.Fatalf("PlaceItem: %v", err)
	}
	drop, err := w.BreakBlock(pos, "", "")
	if err != nil {
		t.Fatalf("BreakBlock: %v", err)
	}
	if drop == nil {
		t.Fatalf("stone should drop an item")
	}

	var found *AuditEntry
	for i := range sink.entries {
		e := &sink.entries[i]
		if e.Action == "ITEM_SPAWN" && e.Reason == "BREAK_BLOCK" {
			found = e
		}
	}
	if found == nil {
		t.Fatalf("expected ITEM_SPAWN audit for the dropped item")
	}
	if found.Details["entity_id"] != string(drop.ID()) || found.Details["from"] != string(placed.ID()) {
		t.Fatalf("drop audit details: %+v", found.Details)
	}
	if found.Pos != pos.ToArray() {
		t.Fatalf("drop audit pos: got %v want %v", found.Pos, pos.ToArray())
	}
}

func TestNew_ResumesClockAndTagsRun(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	sink := &memSink{}
	w, err := New(WorldConfig{
		ID:         "world_test",
		Durability: durability.DefaultConfig(),
		IDs:        ecs.SequentialIDs("E"),
		Audit:      []AuditSink{sink},
		RunID:      "run-2",
		StartMs:    40000,
	}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if w.NowMs() != 40000 {
		t.Fatalf("NowMs: got %d want 40000", w.NowMs())
	}

	torch := spawn(t, w, "TORCH")
	if n := w.Step(40100); n != 0 {
		t.Fatalf("resumed clock should not decay right away, got %d", n)
	}
	if n := w.Step(45001); n != 1 {
		t.Fatalf("expected decay one interval after resume, got %d", n)
	}
	if got := durOf(t, torch).Durability; got != 119 {
		t.Fatalf("durability: got %d want 119", got)
	}
	for _, e := range sink.entries {
		if e.Run != "run-2" {
			t.Fatalf("entry %s missing run id: %+v", e.Action, e)
		}
		if e.TimeMs < 40000 {
			t.Fatalf("entry %s before resumed time: %d", e.Action, e.TimeMs)
		}
	}
}
