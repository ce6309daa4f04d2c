package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
)

var ErrNoEntity = errors.New("no such entity")

// Store owns every live entity of one world. It is not safe for concurrent
// use; the sim mutates it from a single goroutine.
type Store struct {
	entities map[ID]*Entity
	newID    func() ID
}

type Option func(*Store)

// WithIDs overrides the entity id generator (uuid by default).
func WithIDs(fn func() ID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// SequentialIDs yields prefix1, prefix2, ... and is handy for deterministic runs.
func SequentialIDs(prefix string) func() ID {
	var n atomic.Uint64
	return func() ID {
		return ID(fmt.Sprintf("%s%d", prefix, n.Add(1)))
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entities: map[ID]*Entity{},
		newID:    func() ID { return ID(uuid.NewString()) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Create() *Entity {
	id := s.newID()
	for s.entities[id] != nil {
		id = s.newID()
	}
	e := &Entity{id: id, comps: map[reflect.Type]any{}, alive: true}
	s.entities[id] = e
	return e
}

func (s *Store) Get(id ID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Destroy unregisters the entity. Handlers still holding the pointer observe
// Alive() == false.
func (s *Store) Destroy(id ID) error {
	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("destroy %s: %w", id, ErrNoEntity)
	}
	e.alive = false
	delete(s.entities, id)
	return nil
}

// With returns the entities carrying every listed component, sorted by id.
func (s *Store) With(kinds ...reflect.Type) []*Entity {
	out := make([]*Entity, 0)
	for _, e := range s.entities {
		if e.HasKinds(kinds...) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *Store) Len() int { return len(s.entities) }
