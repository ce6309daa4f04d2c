// Package world is the host for durable entities: a sparse block grid whose
// placed blocks are entities, plus carried item entities. It owns the entity
// store, the event dispatcher and the durability system, and audits every
// grid change.
package world

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

type Vec3i = model.Vec3i

var (
	ErrUnknownItem  = errors.New("unknown item")
	ErrUnknownBlock = errors.New("unknown block")
	ErrNotPlaceable = errors.New("item is not placeable")
	ErrOccupied     = errors.New("cell is occupied")
	ErrNoBlock      = errors.New("no block at position")
	ErrUnbreakable  = errors.New("block is unbreakable")
	ErrNotAnItem    = errors.New("entity is not an item")
)

type WorldConfig struct {
	ID         string
	Durability durability.Config
	Logger     zerolog.Logger
	// IDs overrides entity id generation (uuid by default).
	IDs   func() ecs.ID
	Audit []AuditSink
	// RunID tags every audit entry of this process.
	RunID string
	// StartMs resumes game time; the first decay pass is one interval later.
	StartMs int64
}

type World struct {
	cfg  WorldConfig
	cats *catalogs.Catalogs
	log  zerolog.Logger

	store *ecs.Store
	disp  *ecs.Dispatcher
	dur   *durability.System

	// Non-empty cells only; each has exactly one block entity.
	cells map[Vec3i]ecs.ID

	nowMs int64
	audit []AuditSink
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}
	empty := cfg.Durability.EmptyBlock
	if empty == "" {
		empty = durability.DefaultConfig().EmptyBlock
	}
	if _, ok := cats.Blocks.Defs[empty]; !ok {
		return nil, fmt.Errorf("world %s: empty block %s: %w", cfg.ID, empty, ErrUnknownBlock)
	}

	var storeOpts []ecs.Option
	if cfg.IDs != nil {
		storeOpts = append(storeOpts, ecs.WithIDs(cfg.IDs))
	}
	log := cfg.Logger.With().Str("world", cfg.ID).Logger()
	w := &World{
		cfg:   cfg,
		cats:  cats,
		log:   log,
		store: ecs.NewStore(storeOpts...),
		disp:  ecs.NewDispatcher(log),
		cells: map[Vec3i]ecs.ID{},
		audit: cfg.Audit,
	}
	w.dur = durability.New(w.store, w.disp, w, cfg.Durability,
		durability.WithLogger(log),
		durability.WithAudit(w.auditEvent),
	)
	if cfg.StartMs > 0 {
		w.nowMs = cfg.StartMs
		w.dur.Scheduler().Resume(cfg.StartMs)
	}
	return w, nil
}

func (w *World) ID() string                      { return w.cfg.ID }
func (w *World) Store() *ecs.Store               { return w.store }
func (w *World) Dispatcher() *ecs.Dispatcher     { return w.disp }
func (w *World) Durability() *durability.System  { return w.dur }
func (w *World) Catalogs() *catalogs.Catalogs    { return w.cats }
func (w *World) NowMs() int64                    { return w.nowMs }
func (w *World) AddAuditSink(s AuditSink)        { w.audit = append(w.audit, s) }
func (w *World) emptyBlock() string              { return w.dur.Config().EmptyBlock }

func (w *World) Entity(id ecs.ID) (*ecs.Entity, bool) { return w.store.Get(id) }

// Step advances game time and runs the decay scheduler. It returns the number
// of entities that received a decay reduction.
func (w *World) Step(nowMs int64) int {
	if nowMs > w.nowMs {
		w.nowMs = nowMs
	}
	return w.dur.Update(nowMs)
}

// BlockAt returns the block id at pos; unset cells hold the empty block.
func (w *World) BlockAt(pos Vec3i) string {
	id, ok := w.cells[pos]
	if !ok {
		return w.emptyBlock()
	}
	e, _ := w.store.Get(id)
	b, ok := ecs.Get[model.Block](e)
	if !ok {
		return w.emptyBlock()
	}
	return b.BlockID
}

func (w *World) BlockEntityAt(pos Vec3i) (*ecs.Entity, bool) {
	id, ok := w.cells[pos]
	if !ok {
		return nil, false
	}
	return w.store.Get(id)
}

// Cells returns the occupied positions.
func (w *World) Cells() []Vec3i {
	out := make([]Vec3i, 0, len(w.cells))
	for p := range w.cells {
		out = append(out, p)
	}
	sortVecs(out)
	return out
}
