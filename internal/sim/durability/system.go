// Package durability tracks consumable durability on items and blocks: it
// applies reductions, decays tagged entities over time, resolves exhaustion
// according to the entity's form and carries durability across the
// block<->item conversion.
package durability

import (
	"github.com/rs/zerolog"

	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

// Host performs the terminal actions on the world that owns the entities.
type Host interface {
	DestroyEntity(id ecs.ID) error
	SetBlock(pos model.Vec3i, block string) error
}

type AuditFunc func(actor, action string, pos model.Vec3i, reason string, details map[string]any)

type Config struct {
	DecayIntervalMs  int64
	DecayAmount      int
	ToolWearPerBreak int
	// EmptyBlock replaces a placed block whose durability is exhausted.
	EmptyBlock string
}

func DefaultConfig() Config {
	return Config{
		DecayIntervalMs:  DefaultDecayIntervalMs,
		DecayAmount:      1,
		ToolWearPerBreak: 1,
		EmptyBlock:       "AIR",
	}
}

type System struct {
	store *ecs.Store
	disp  *ecs.Dispatcher
	host  Host
	cfg   Config
	decay *DecayScheduler
	log   zerolog.Logger
	aud   AuditFunc
}

type Option func(*System)

func WithLogger(l zerolog.Logger) Option { return func(s *System) { s.log = l } }
func WithAudit(fn AuditFunc) Option     { return func(s *System) { s.aud = fn } }

// New builds the system and registers its handlers on disp.
func New(store *ecs.Store, disp *ecs.Dispatcher, host Host, cfg Config, opts ...Option) *System {
	def := DefaultConfig()
	if cfg.DecayAmount <= 0 {
		cfg.DecayAmount = def.DecayAmount
	}
	if cfg.ToolWearPerBreak <= 0 {
		cfg.ToolWearPerBreak = def.ToolWearPerBreak
	}
	if cfg.EmptyBlock == "" {
		cfg.EmptyBlock = def.EmptyBlock
	}
	s := &System{
		store: store,
		disp:  disp,
		host:  host,
		cfg:   cfg,
		decay: NewDecayScheduler(cfg.DecayIntervalMs),
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.register()
	return s
}

func (s *System) register() {
	dur := ecs.Kind[model.Durability]()

	ecs.Subscribe(s.disp, "durability.tool_wear", ecs.PriorityCritical, s.onBlockDestroyed, ecs.Kind[model.Block]())
	ecs.Subscribe(s.disp, "durability.reduce", ecs.PriorityNormal, s.onReduce, dur)
	ecs.Subscribe(s.disp, "durability.check_exhausted", ecs.PriorityNormal, s.checkExhausted, dur)

	// Carried form wins when an entity somehow has both forms.
	ecs.Subscribe(s.disp, "durability.destroy_item", ecs.PriorityTrivial, s.destroyItemOnExhausted, dur, ecs.Kind[model.Item]())
	ecs.Subscribe(s.disp, "durability.replace_block", ecs.PriorityTrivial, s.replaceBlockOnExhausted, dur, ecs.Kind[model.Block]())

	retain := ecs.Kind[model.RetainDurability]()
	ecs.Subscribe(s.disp, "durability.retain_on_drop", ecs.PriorityNormal, s.onBlockToItem, retain, dur)
	ecs.Subscribe(s.disp, "durability.retain_on_place", ecs.PriorityNormal, s.onBlockItemPlaced, retain, dur)
}

// Update is called once per sim tick with the current game time. When the
// decay interval has elapsed, every decaying entity loses DecayAmount.
func (s *System) Update(nowMs int64) int {
	if !s.decay.Due(nowMs) {
		return 0
	}
	targets := s.store.With(ecs.Kind[model.OverTimeReduce](), ecs.Kind[model.Durability]())
	for _, e := range targets {
		s.disp.Send(e, ReduceDurability{Amount: s.cfg.DecayAmount})
	}
	if len(targets) > 0 {
		s.log.Debug().Int64("now_ms", nowMs).Int("entities", len(targets)).Msg("decay pass")
	}
	return len(targets)
}

func (s *System) Scheduler() *DecayScheduler { return s.decay }
func (s *System) Config() Config             { return s.cfg }

func (s *System) audit(action string, pos model.Vec3i, reason string, details map[string]any) {
	if s.aud == nil {
		return
	}
	s.aud("SYSTEM", action, pos, reason, details)
}
