package ecs

import "reflect"

type ID string

// Entity is an identifier plus a set of typed optional components. Components
// are stored by value; Get returns a pointer into the entity's own copy.
type Entity struct {
	id    ID
	comps map[reflect.Type]any
	alive bool
}

func (e *Entity) ID() ID {
	if e == nil {
		return ""
	}
	return e.id
}

// Alive reports whether the entity is still registered with its store.
func (e *Entity) Alive() bool { return e != nil && e.alive }

// Kind returns the component key for T.
func Kind[T any]() reflect.Type { return reflect.TypeFor[T]() }

func Get[T any](e *Entity) (*T, bool) {
	if e == nil || e.comps == nil {
		return nil, false
	}
	v, ok := e.comps[Kind[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

func Has[T any](e *Entity) bool {
	_, ok := Get[T](e)
	return ok
}

// Set attaches c, or overwrites the existing component of the same type.
// The entity keeps its own copy; later changes to c are not observed.
func Set[T any](e *Entity, c T) {
	if e == nil {
		return
	}
	if e.comps == nil {
		e.comps = map[reflect.Type]any{}
	}
	if cur, ok := e.comps[Kind[T]()]; ok {
		*cur.(*T) = c
		return
	}
	cp := c
	e.comps[Kind[T]()] = &cp
}

func Remove[T any](e *Entity) {
	if e == nil || e.comps == nil {
		return
	}
	delete(e.comps, Kind[T]())
}

// HasKinds reports whether every listed component is present.
func (e *Entity) HasKinds(kinds ...reflect.Type) bool {
	if e == nil {
		return false
	}
	for _, k := range kinds {
		if _, ok := e.comps[k]; !ok {
			return false
		}
	}
	return true
}
