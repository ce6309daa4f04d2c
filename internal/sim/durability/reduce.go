package durability

import (
	"errors"
	"fmt"

	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
)

var ErrInvalidAmount = errors.New("reduction amount must be positive")

// Apply subtracts amount from st and clamps at zero.
func Apply(st *model.Durability, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	st.Durability -= amount
	if st.Durability < 0 {
		st.Durability = 0
	}
	return nil
}

// Reduce sends a ReduceDurability request to the entity. Entities without a
// Durability component ignore it.
func (s *System) Reduce(id ecs.ID, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	e, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("reduce %s: %w", id, ecs.ErrNoEntity)
	}
	s.disp.Send(e, ReduceDurability{Amount: amount})
	return nil
}

func (s *System) onReduce(ev ReduceDurability, e *ecs.Entity) {
	st, _ := ecs.Get[model.Durability](e)
	before := st.Durability
	if err := Apply(st, ev.Amount); err != nil {
		// Requests that bypassed Reduce are dropped rather than applied.
		s.log.Warn().Err(err).Str("entity", string(e.ID())).Msg("durability: bad reduce request")
		return
	}
	s.log.Debug().
		Str("entity", string(e.ID())).
		Int("from", before).
		Int("to", st.Durability).
		Int("max", st.MaxDurability).
		Msg("durability reduced")
	s.disp.Send(e, DurabilityReduced{})
}
