package resource

import (
	"fmt"
	"sync"
	"time"

	"github.com/kelindar/event"
)

// ChangeAction names the kind of edit a ChangeEvent reports.
type ChangeAction string

const (
	ChangeInsert ChangeAction = "insert"
	ChangeModify ChangeAction = "modify"
	ChangeErase  ChangeAction = "erase"
)

// ChangeEvent is published once per logical edit, regardless of how many
// fields of the resource changed (spec §4.3).
type ChangeEvent struct {
	ID           string
	ResourceType Type
	Action       ChangeAction
	Version      Version
}

// changeEventType is the kelindar/event type identifier for ChangeEvent.
const changeEventType uint32 = 1

// Type implements the event.Event interface required by kelindar/event.
func (ChangeEvent) Type() uint32 { return changeEventType }

// Store is an indexed collection of resources with monotonic per-resource
// versions and a change-notification signal. A node keeps two instances:
// one for IS-04 resources, one for their IS-05 connection twins (spec
// §4.3).
type Store struct {
	mu         sync.RWMutex
	byID       map[string]Resource
	byType     map[Type]map[string]struct{}
	dispatcher *event.Dispatcher
	now        func() time.Time
}

// NewStore creates an empty Store. now defaults to time.Now and is a seam
// for deterministic version-stamp tests.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		byID:       make(map[string]Resource),
		byType:     make(map[Type]map[string]struct{}),
		dispatcher: event.NewDispatcher(),
		now:        now,
	}
}

// Subscribe registers a handler for every ChangeEvent the store publishes.
// It returns an unsubscribe function.
func (s *Store) Subscribe(handler func(ChangeEvent)) func() {
	return event.Subscribe(s.dispatcher, handler)
}

func (s *Store) publish(ev ChangeEvent) {
	event.Publish(s.dispatcher, ev)
}

// Insert adds a new resource, stamping its version to now. It is an error
// to insert a resource whose id already exists.
func (s *Store) Insert(r Resource) error {
	env := r.Envelope()

	s.mu.Lock()
	if _, exists := s.byID[env.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("resource: duplicate id %q", env.ID)
	}
	env.Version = NewVersion(s.now())
	s.byID[env.ID] = r
	if s.byType[env.ResourceType] == nil {
		s.byType[env.ResourceType] = make(map[string]struct{})
	}
	s.byType[env.ResourceType][env.ID] = struct{}{}
	version := env.Version
	rt := env.ResourceType
	s.mu.Unlock()

	s.publish(ChangeEvent{ID: env.ID, ResourceType: rt, Action: ChangeInsert, Version: version})
	return nil
}

// Modify looks up a resource by id and applies fn to it while holding the
// store's write lock, then bumps its version and emits one ChangeEvent.
// fn mutates the resource in place (all Resource implementations are
// pointer types).
func (s *Store) Modify(id string, fn func(Resource) error) error {
	s.mu.Lock()
	r, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("resource: not found: %q", id)
	}
	if err := fn(r); err != nil {
		s.mu.Unlock()
		return err
	}
	env := r.Envelope()
	next := NewVersion(s.now())
	if !next.After(env.Version) {
		next = Version{Seconds: env.Version.Seconds, Nanos: env.Version.Nanos + 1}
		if next.Nanos >= int64(time.Second) {
			next = Version{Seconds: next.Seconds + 1}
		}
	}
	env.Version = next
	version := env.Version
	rt := env.ResourceType
	s.mu.Unlock()

	s.publish(ChangeEvent{ID: id, ResourceType: rt, Action: ChangeModify, Version: version})
	return nil
}

// Erase removes a resource by id, returning the removed value.
func (s *Store) Erase(id string) (Resource, error) {
	s.mu.Lock()
	r, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("resource: not found: %q", id)
	}
	env := r.Envelope()
	delete(s.byID, id)
	if set := s.byType[env.ResourceType]; set != nil {
		delete(set, id)
	}
	rt := env.ResourceType
	version := env.Version
	s.mu.Unlock()

	s.publish(ChangeEvent{ID: id, ResourceType: rt, Action: ChangeErase, Version: version})
	return r, nil
}

// Find returns the resource with the given id, if it exists in the store
// and (when t is non-empty) matches the expected type.
func (s *Store) Find(id string, t Type) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	if t != "" && r.Envelope().ResourceType != t {
		return nil, false
	}
	return r, true
}

// FindByTag returns the first resource of type t whose tag key holds
// value, used for the internal-id reverse lookup of spec §3.
func (s *Store) FindByTag(t Type, key, value string) (Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.byType[t] {
		r := s.byID[id]
		if r.Envelope().TagOne(key) == value {
			return r, true
		}
	}
	return nil, false
}

// Iter returns every resource of the given type. The order is unspecified
// (spec §4.6: "insertion-order-independent JSON order").
func (s *Store) Iter(t Type) []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byType[t]
	out := make([]Resource, 0, len(ids))
	for id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of resources of the given type.
func (s *Store) Len(t Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byType[t])
}
