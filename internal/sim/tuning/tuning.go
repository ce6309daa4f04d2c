package tuning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int        `yaml:"tick_rate_hz" toml:"tick_rate_hz" json:"tick_rate_hz" env:"VC_TICK_RATE_HZ"`
	Durability Durability `yaml:"durability" toml:"durability" json:"durability"`
}

type Durability struct {
	DecayIntervalMs  int64  `yaml:"decay_interval_ms" toml:"decay_interval_ms" json:"decay_interval_ms" env:"VC_DECAY_INTERVAL_MS"`
	DecayAmount      int    `yaml:"decay_amount" toml:"decay_amount" json:"decay_amount" env:"VC_DECAY_AMOUNT"`
	ToolWearPerBreak int    `yaml:"tool_wear_per_break" toml:"tool_wear_per_break" json:"tool_wear_per_break" env:"VC_TOOL_WEAR_PER_BREAK"`
	EmptyBlock       string `yaml:"empty_block" toml:"empty_block" json:"empty_block" env:"VC_EMPTY_BLOCK"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz: 20,
		Durability: Durability{
			DecayIntervalMs:  5000,
			DecayAmount:      1,
			ToolWearPerBreak: 1,
			EmptyBlock:       "AIR",
		},
	}
}

// Load reads a YAML (.yaml/.yml) or TOML (.toml) tuning file over the
// defaults, then applies VC_* environment overrides.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("%s: %w", name, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := ApplyEnv(&t); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func ApplyEnv(t *Tuning) error {
	if err := env.Parse(t); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0 (got %d)", t.TickRateHz)
	}
	d := t.Durability
	if d.DecayIntervalMs <= 0 {
		return fmt.Errorf("durability.decay_interval_ms must be > 0 (got %d)", d.DecayIntervalMs)
	}
	if d.DecayAmount <= 0 {
		return fmt.Errorf("durability.decay_amount must be > 0 (got %d)", d.DecayAmount)
	}
	if d.ToolWearPerBreak <= 0 {
		return fmt.Errorf("durability.tool_wear_per_break must be > 0 (got %d)", d.ToolWearPerBreak)
	}
	if strings.TrimSpace(d.EmptyBlock) == "" {
		return fmt.Errorf("durability.empty_block must not be empty")
	}
	return nil
}
