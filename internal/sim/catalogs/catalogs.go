package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelcraft.ai/durability/internal/sim/model"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type Catalogs struct {
	Blocks      BlockCatalog
	Items       ItemCatalog
	DamageTypes DamageCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID         string   `json:"id"`
	Solid      bool     `json:"solid"`
	Breakable  bool     `json:"breakable"`
	DropsItem  string   `json:"drops_item,omitempty"`
	Categories []string `json:"categories,omitempty"`

	MaxDurability    int  `json:"max_durability,omitempty"`
	Decay            bool `json:"decay,omitempty"`
	RetainDurability bool `json:"retain_durability,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"` // "BLOCK","TOOL","MATERIAL","FOOD","MECH"
	PlaceAs    string `json:"place_as,omitempty"`
	DamageType string `json:"damage_type,omitempty"`

	MaxDurability    int  `json:"max_durability,omitempty"`
	Decay            bool `json:"decay,omitempty"`
	RetainDurability bool `json:"retain_durability,omitempty"`
}

type DamageCatalog struct {
	ByID   map[string]model.DamageProfile
	Digest string
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadDamageTypes(filepath.Join(configDir, "damage_types.json"), &c.DamageTypes); err != nil {
		return nil, err
	}
	if err := c.crossCheck(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DamageType returns the profile for id, or nil when unknown.
func (c *Catalogs) DamageType(id string) *model.DamageProfile {
	if c == nil || id == "" {
		return nil
	}
	p, ok := c.DamageTypes.ByID[id]
	if !ok {
		return nil
	}
	return &p
}

func (c *Catalogs) crossCheck() error {
	for _, it := range c.Items.Defs {
		if it.PlaceAs != "" {
			if _, ok := c.Blocks.Defs[it.PlaceAs]; !ok {
				return fmt.Errorf("items.json: %s place_as unknown block %s", it.ID, it.PlaceAs)
			}
		}
		if it.DamageType != "" {
			if _, ok := c.DamageTypes.ByID[it.DamageType]; !ok {
				return fmt.Errorf("items.json: %s unknown damage_type %s", it.ID, it.DamageType)
			}
		}
	}
	for _, b := range c.Blocks.Defs {
		if b.DropsItem != "" {
			if _, ok := c.Items.Defs[b.DropsItem]; !ok {
				return fmt.Errorf("blocks.json: %s drops unknown item %s", b.ID, b.DropsItem)
			}
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// readValidated reads a catalog file and checks it against its embedded schema.
func readValidated(path, schemaName string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schemaRaw, err := schemaFS.ReadFile("schemas/" + schemaName)
	if err != nil {
		return nil, err
	}
	sch, err := jsonschema.CompileString(schemaName, string(schemaRaw))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", schemaName, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return raw, nil
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := readValidated(path, "blocks.schema.json")
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := readValidated(path, "items.schema.json")
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadDamageTypes(path string, out *DamageCatalog) error {
	raw, err := readValidated(path, "damage_types.schema.json")
	if err != nil {
		// Allow missing: every tool then deals untyped damage and never wears.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			out.ByID = map[string]model.DamageProfile{}
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []model.DamageProfile
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("damage_types.json: %w", err)
	}
	out.ByID = map[string]model.DamageProfile{}
	for _, d := range defs {
		if d.MaterialDamageMultiplier == nil {
			d.MaterialDamageMultiplier = map[string]float64{}
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
