package main

import (
	"path/filepath"
	"strings"
	"testing"

	persistlog "voxelcraft.ai/durability/internal/persistence/log"
	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/world"
)

func loadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// runScenario runs one server process against worldDir: it wears out one
// placed torch and one pickaxe, then closes the audit log.
func runScenario(t *testing.T, cats *catalogs.Catalogs, worldDir, run string, startMs int64) {
	t.Helper()
	audit := persistlog.NewAuditLogger(worldDir, run)
	w, err := world.New(world.WorldConfig{
		ID:         "replay_test",
		Durability: durability.DefaultConfig(),
		IDs:        ecs.SequentialIDs("E"),
		Audit:      []world.AuditSink{audit},
		RunID:      run,
		StartMs:    startMs,
	}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}

	torch, err := w.SpawnItem("TORCH", 1)
	if err != nil {
		t.Fatalf("spawn torch: %v", err)
	}
	placed, err := w.PlaceItem(torch.ID(), world.Vec3i{X: 2, Y: 1, Z: 0})
	if err != nil {
		t.Fatalf("place torch: %v", err)
	}
	w.Step(startMs + 6000)
	if err := w.Durability().Reduce(placed.ID(), 500); err != nil {
		t.Fatalf("reduce torch: %v", err)
	}

	pick, err := w.SpawnItem("WOOD_PICKAXE", 1)
	if err != nil {
		t.Fatalf("spawn pickaxe: %v", err)
	}
	w.Step(startMs + 7000)
	if err := w.Durability().Reduce(pick.ID(), 32); err != nil {
		t.Fatalf("reduce pickaxe: %v", err)
	}
	if err := audit.Close(); err != nil {
		t.Fatalf("close audit: %v", err)
	}
}

func readEntries(t *testing.T, worldDir string) []world.AuditEntry {
	t.Helper()
	dir := persistlog.AuditDir(worldDir)
	files, err := persistlog.AuditFiles(dir)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no audit files in %s", dir)
	}
	var out []world.AuditEntry
	for _, f := range files {
		es, err := persistlog.ReadAll(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		out = append(out, es...)
	}
	return out
}

func TestVerify_AcceptsWorldAuditTrail(t *testing.T) {
	cats := loadCatalogs(t)
	worldDir := t.TempDir()
	runScenario(t, cats, worldDir, "20260101T000000Z-aaaaaaaa", 0)
	entries := readEntries(t, worldDir)

	rep, err := verify(entries, cats)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.ItemsDestroyed != 1 || rep.BlocksReplaced != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.ByAction["DURABILITY_EXHAUSTED"] != 2 {
		t.Fatalf("exhausted count: got %d want 2", rep.ByAction["DURABILITY_EXHAUSTED"])
	}
}

func TestVerify_RejectsDoubleResolution(t *testing.T) {
	cats := loadCatalogs(t)
	worldDir := t.TempDir()
	runScenario(t, cats, worldDir, "20260101T000000Z-aaaaaaaa", 0)
	entries := readEntries(t, worldDir)

	// Replay the last pair (host action + exhaustion) a second time.
	n := len(entries)
	entries = append(entries, entries[n-2], entries[n-1])

	_, err := verify(entries, cats)
	if err == nil || !strings.Contains(err.Error(), "resolved twice") {
		t.Fatalf("expected double resolution error, got %v", err)
	}
}

func TestVerify_RejectsMissingHostAction(t *testing.T) {
	cats := loadCatalogs(t)
	entries := []world.AuditEntry{
		{TimeMs: 10, Action: "ITEM_SPAWN", Details: map[string]any{"entity_id": "E1"}},
		{TimeMs: 10, Action: "DURABILITY_EXHAUSTED", Reason: "ITEM_DESTROYED", Details: map[string]any{"entity_id": "E1"}},
	}
	_, err := verify(entries, cats)
	if err == nil || !strings.Contains(err.Error(), "without ENTITY_DESTROY") {
		t.Fatalf("expected missing destroy error, got %v", err)
	}
}

func TestVerify_RejectsTimeGoingBack(t *testing.T) {
	cats := loadCatalogs(t)
	entries := []world.AuditEntry{
		{TimeMs: 20, Action: "SET_BLOCK"},
		{TimeMs: 10, Action: "SET_BLOCK"},
	}
	if _, err := verify(entries, cats); err == nil {
		t.Fatalf("expected time error")
	}
}

func TestVerify_AcceptsRestartedWorld(t *testing.T) {
	cats := loadCatalogs(t)
	worldDir := t.TempDir()
	// Second run does not resume the clock and reuses entity ids.
	runScenario(t, cats, worldDir, "20260101T000000Z-aaaaaaaa", 0)
	runScenario(t, cats, worldDir, "20260101T000500Z-bbbbbbbb", 0)

	rep, err := verify(readEntries(t, worldDir), cats)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Runs != 2 || rep.ItemsDestroyed != 2 || rep.BlocksReplaced != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestVerify_ResumedClockIsMonotonicAcrossRuns(t *testing.T) {
	cats := loadCatalogs(t)
	worldDir := t.TempDir()
	runScenario(t, cats, worldDir, "20260101T000000Z-aaaaaaaa", 0)
	startMs, err := persistlog.LastTimeMs(worldDir)
	if err != nil {
		t.Fatalf("LastTimeMs: %v", err)
	}
	if startMs != 7000 {
		t.Fatalf("LastTimeMs: got %d want 7000", startMs)
	}
	runScenario(t, cats, worldDir, "20260101T000500Z-bbbbbbbb", startMs)

	entries := readEntries(t, worldDir)
	for i := 1; i < len(entries); i++ {
		if entries[i].TimeMs < entries[i-1].TimeMs {
			t.Fatalf("entry %d: time went back across runs: %d after %d", i, entries[i].TimeMs, entries[i-1].TimeMs)
		}
	}
	if _, err := verify(entries, cats); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerify_RejectsTimeGoingBackWithinRun(t *testing.T) {
	cats := loadCatalogs(t)
	entries := []world.AuditEntry{
		{TimeMs: 20, Run: "r1", Action: "SET_BLOCK"},
		{TimeMs: 5, Run: "r2", Action: "SET_BLOCK"},
		{TimeMs: 10, Run: "r1", Action: "SET_BLOCK"},
	}
	_, err := verify(entries, cats)
	if err == nil || !strings.Contains(err.Error(), "entry 2 (run r1): time went back") {
		t.Fatalf("expected time error in run r1, got %v", err)
	}
}
