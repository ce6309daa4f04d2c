package ecs

import (
	"reflect"
	"slices"
	"sort"

	"github.com/rs/zerolog"
)

// Priority orders handlers of one event type; higher runs first.
type Priority int

const (
	PriorityTrivial  Priority = -100
	PriorityLow      Priority = 50
	PriorityNormal   Priority = 100
	PriorityHigh     Priority = 150
	PriorityCritical Priority = 200
)

func (p Priority) String() string {
	switch p {
	case PriorityTrivial:
		return "trivial"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "custom"
	}
}

// Consumable is implemented by events that at most one handler may act on.
type Consumable interface {
	Consume()
	IsConsumed() bool
}

// Consumer is embedded in consumable events. Such events must be sent by
// pointer so the flag is shared across handlers.
type Consumer struct {
	consumed bool
}

func (c *Consumer) Consume()         { c.consumed = true }
func (c *Consumer) IsConsumed() bool { return c.consumed }

type handler struct {
	name     string
	prio     Priority
	seq      int
	requires []reflect.Type
	fn       func(ev any, e *Entity)
}

// Dispatcher delivers events synchronously, in priority order, on the caller's
// goroutine. Nested Sends complete before the outer dispatch continues.
type Dispatcher struct {
	handlers map[reflect.Type][]handler
	seq      int
	log      zerolog.Logger
}

func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: map[reflect.Type][]handler{},
		log:      log,
	}
}

// Subscribe registers fn for events of type E. The handler only runs when the
// target entity carries every component in requires.
func Subscribe[E any](d *Dispatcher, name string, prio Priority, fn func(ev E, e *Entity), requires ...reflect.Type) {
	key := reflect.TypeFor[E]()
	d.seq++
	// Fresh slice: a Send in progress keeps iterating its own copy.
	hs := append(slices.Clone(d.handlers[key]), handler{
		name:     name,
		prio:     prio,
		seq:      d.seq,
		requires: requires,
		fn:       func(ev any, e *Entity) { fn(ev.(E), e) },
	})
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].prio != hs[j].prio {
			return hs[i].prio > hs[j].prio
		}
		return hs[i].seq < hs[j].seq
	})
	d.handlers[key] = hs
}

// Send delivers ev to the handlers registered for its dynamic type. Delivery
// stops once the target is destroyed or a consumable event is consumed.
func (d *Dispatcher) Send(e *Entity, ev any) {
	if !e.Alive() || ev == nil {
		return
	}
	key := reflect.TypeOf(ev)
	hs := d.handlers[key]
	if len(hs) == 0 {
		return
	}
	c, consumable := ev.(Consumable)
	for _, h := range hs {
		if !e.Alive() {
			return
		}
		if consumable && c.IsConsumed() {
			return
		}
		if !e.HasKinds(h.requires...) {
			continue
		}
		if d.log.GetLevel() <= zerolog.TraceLevel {
			d.log.Trace().Str("event", key.String()).Str("handler", h.name).Stringer("priority", h.prio).Str("entity", string(e.ID())).Msg("dispatch")
		}
		h.fn(ev, e)
	}
}

// Handlers lists the registered handler names for E in delivery order.
func Handlers[E any](d *Dispatcher) []string {
	hs := d.handlers[reflect.TypeFor[E]()]
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.name)
	}
	return out
}
