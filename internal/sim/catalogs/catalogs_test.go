package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Blocks.Index["AIR"] != 0 {
		t.Fatalf("AIR must be palette id 0, got %d", c.Blocks.Index["AIR"])
	}
	torch, ok := c.Items.Defs["TORCH"]
	if !ok || !torch.Decay || !torch.RetainDurability || torch.MaxDurability <= 0 {
		t.Fatalf("unexpected TORCH def: %+v ok=%v", torch, ok)
	}
	p := c.DamageType("pickaxe")
	if p == nil {
		t.Fatalf("missing pickaxe damage type")
	}
	if _, ok := p.MaterialDamageMultiplier["stone"]; !ok {
		t.Fatalf("pickaxe should affect stone: %+v", p)
	}
	if c.DamageType("nope") != nil || c.DamageType("") != nil {
		t.Fatalf("unknown damage types must resolve to nil")
	}
	if c.Blocks.PaletteDigest == "" || c.Items.DefsDigest == "" || c.DamageTypes.Digest == "" {
		t.Fatalf("digests must be set")
	}
}

func writeCatalogs(t *testing.T, blocks, items string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(blocks), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(items), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_SchemaRejectsBadDurability(t *testing.T) {
	dir := writeCatalogs(t,
		`[{"id":"AIR"},{"id":"TORCH","max_durability":0}]`,
		`[]`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "blocks.json") {
		t.Fatalf("expected blocks.json schema error, got %v", err)
	}
}

func TestLoad_MissingAir(t *testing.T) {
	dir := writeCatalogs(t, `[{"id":"STONE"}]`, `[]`)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "missing AIR") {
		t.Fatalf("expected missing AIR error, got %v", err)
	}
}

func TestLoad_MissingDamageTypesAllowed(t *testing.T) {
	dir := writeCatalogs(t,
		`[{"id":"AIR"},{"id":"TORCH","categories":["wood"]}]`,
		`[{"id":"TORCH","kind":"BLOCK","place_as":"TORCH"}]`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.DamageTypes.ByID) != 0 {
		t.Fatalf("expected empty damage catalog, got %d", len(c.DamageTypes.ByID))
	}
}

func TestLoad_CrossCheck(t *testing.T) {
	dir := writeCatalogs(t,
		`[{"id":"AIR"}]`,
		`[{"id":"TORCH","kind":"BLOCK","place_as":"TORCH"}]`)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "place_as unknown block") {
		t.Fatalf("expected place_as error, got %v", err)
	}
}
