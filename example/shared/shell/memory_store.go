package shell

import (
	"context"
	"errors"
	"sync"

	"github.com/pericialabs/coordination-go/coordination"
)

var (
	// ErrDuplicateID is returned when adding an entity whose ID is already taken.
	ErrDuplicateID = errors.New("entity with this id already exists")

	// ErrEntityNotFound is returned when updating an entity that does not exist.
	ErrEntityNotFound = errors.New("entity does not exist")
)

// Store is a concurrency-safe in-memory entity store. It never hands out
// direct mutation access; all writes go through a Session opened per
// unit-of-work scope, so mutations only become visible when the scope
// commits and flushes the session.
//
// Every applied mutation bumps a per-ID version counter. Sessions record the
// version they first read for an ID and flushing re-checks it, so a lost
// write race surfaces as ErrStorageConflict instead of a silent overwrite.
type Store[ID comparable, E any] struct {
	mu       sync.RWMutex
	entities map[ID]E
	versions map[ID]uint64
	order    []ID
	identify func(E) ID
}

// NewStore creates an empty Store using identify to extract entity IDs.
func NewStore[ID comparable, E any](identify func(E) ID) *Store[ID, E] {
	return &Store[ID, E]{
		entities: make(map[ID]E),
		versions: make(map[ID]uint64),
		identify: identify,
	}
}

// NewUserStore creates an in-memory store for User entities.
func NewUserStore() *Store[string, User] {
	return NewStore(func(u User) string { return u.ID })
}

// NewBuffetStore creates an in-memory store for Buffet entities.
func NewBuffetStore() *Store[string, Buffet] {
	return NewStore(func(b Buffet) string { return b.ID })
}

// NewInvestigationStore creates an in-memory store for Investigation entities.
func NewInvestigationStore() *Store[string, Investigation] {
	return NewStore(func(i Investigation) string { return i.ID })
}

// OpenSession opens a new session against this store. Each unit-of-work
// scope should open its own session and enlist it.
func (s *Store[ID, E]) OpenSession() *Session[ID, E] {
	return &Session[ID, E]{
		store:    s,
		observed: make(map[ID]uint64),
	}
}

// Get reads an entity directly from the store, outside any scope.
func (s *Store[ID, E]) Get(id ID) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, exists := s.entities[id]

	return entity, exists
}

// Len returns the number of committed entities in the store.
func (s *Store[ID, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entities)
}

type mutationKind int

const (
	mutationAdd mutationKind = iota
	mutationUpdate
	mutationDelete
)

type mutation[ID comparable, E any] struct {
	kind   mutationKind
	id     ID
	entity E
}

// Session is a per-scope view of a Store. Reads see the committed state plus
// this session's own staged mutations; writes are staged until Flush applies
// them under the store lock.
//
// Flush records an undo entry per applied mutation. A scope that fails after
// this session flushed (another participant conflicted, the transaction did
// not commit) calls Discard, which replays the undo log in reverse, so a
// failed commit leaves the store exactly as it was across all participants.
type Session[ID comparable, E any] struct {
	store    *Store[ID, E]
	staged   []mutation[ID, E]
	undo     []mutation[ID, E]
	observed map[ID]uint64
}

// GetByID returns the entity as this session sees it, staged mutations included.
func (s *Session[ID, E]) GetByID(_ context.Context, id ID) (E, bool, error) {
	s.store.mu.RLock()
	entity, exists := s.store.entities[id]
	version := s.store.versions[id]
	s.store.mu.RUnlock()

	// First read wins: the session validates against the state it based
	// its decisions on, not against later re-reads.
	if _, seen := s.observed[id]; !seen {
		s.observed[id] = version
	}

	for _, m := range s.staged {
		if m.id != id {
			continue
		}

		switch m.kind {
		case mutationAdd, mutationUpdate:
			entity, exists = m.entity, true
		case mutationDelete:
			var zero E
			entity, exists = zero, false
		}
	}

	return entity, exists, nil
}

// List returns entities in insertion order as this session sees them.
// A non-positive limit means no limit.
func (s *Session[ID, E]) List(_ context.Context, offset int, limit int) ([]E, error) {
	entities, order := s.snapshot()

	result := make([]E, 0, len(entities))
	seen := make(map[ID]struct{}, len(entities))

	for _, id := range order {
		if _, alreadySeen := seen[id]; alreadySeen {
			continue
		}
		seen[id] = struct{}{}

		if entity, exists := entities[id]; exists {
			result = append(result, entity)
		}
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []E{}, nil
	}

	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

// Add stages the insertion of a new entity.
func (s *Session[ID, E]) Add(ctx context.Context, entity E) (E, error) {
	id := s.store.identify(entity)

	if _, exists, _ := s.GetByID(ctx, id); exists {
		var zero E
		return zero, ErrDuplicateID
	}

	s.staged = append(s.staged, mutation[ID, E]{kind: mutationAdd, id: id, entity: entity})

	return entity, nil
}

// Update stages the replacement of an existing entity.
func (s *Session[ID, E]) Update(ctx context.Context, entity E) (E, error) {
	id := s.store.identify(entity)

	if _, exists, _ := s.GetByID(ctx, id); !exists {
		var zero E
		return zero, ErrEntityNotFound
	}

	s.staged = append(s.staged, mutation[ID, E]{kind: mutationUpdate, id: id, entity: entity})

	return entity, nil
}

// Delete stages the removal of an entity.
// It reports whether the entity existed in this session's view.
func (s *Session[ID, E]) Delete(ctx context.Context, id ID) (bool, error) {
	if _, exists, _ := s.GetByID(ctx, id); !exists {
		return false, nil
	}

	s.staged = append(s.staged, mutation[ID, E]{kind: mutationDelete, id: id})

	return true, nil
}

// Flush applies all staged mutations to the backing store under its write
// lock. Mutations are validated first so a conflict applies nothing: staged
// operations must still be consistent with the store, and every touched ID
// must still carry the version this session first read. A concurrent session
// that won the race surfaces as ErrStorageConflict, which RetryOnConflict
// treats as retryable.
//
// Each applied mutation is recorded in the session's undo log so a later
// Discard can revert it (see Discard).
func (s *Session[ID, E]) Flush(_ context.Context, _ coordination.Transaction) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := s.validateStagedLocked(); err != nil {
		return err
	}

	for _, m := range s.staged {
		switch m.kind {
		case mutationAdd:
			s.undo = append(s.undo, mutation[ID, E]{kind: mutationDelete, id: m.id})
			s.store.entities[m.id] = m.entity
			s.store.order = append(s.store.order, m.id)
		case mutationUpdate:
			s.undo = append(s.undo, mutation[ID, E]{kind: mutationUpdate, id: m.id, entity: s.store.entities[m.id]})
			s.store.entities[m.id] = m.entity
		case mutationDelete:
			s.undo = append(s.undo, mutation[ID, E]{kind: mutationAdd, id: m.id, entity: s.store.entities[m.id]})
			delete(s.store.entities, m.id)
			s.store.removeFromOrderLocked(m.id)
		}

		s.store.versions[m.id]++
	}

	s.staged = nil

	return nil
}

func (s *Session[ID, E]) validateStagedLocked() error {
	exists := make(map[ID]bool, len(s.store.entities)+len(s.staged))
	for id := range s.store.entities {
		exists[id] = true
	}

	versionChecked := make(map[ID]bool, len(s.staged))

	for _, m := range s.staged {
		switch m.kind {
		case mutationAdd:
			if exists[m.id] {
				return ErrStorageConflict
			}
			exists[m.id] = true
		case mutationUpdate:
			if !exists[m.id] {
				return ErrStorageConflict
			}
		case mutationDelete:
			exists[m.id] = false
		}

		if versionChecked[m.id] {
			continue
		}
		versionChecked[m.id] = true

		if observedVersion, seen := s.observed[m.id]; seen {
			if s.store.versions[m.id] != observedVersion {
				return ErrStorageConflict
			}
		}
	}

	return nil
}

// Discard drops all staged mutations and reverts any that a previous Flush
// already applied. The unit of work calls it on every participant when a
// commit fails, which restores atomicity across sessions: a participant that
// flushed before another one conflicted takes its mutations back.
func (s *Session[ID, E]) Discard() {
	s.staged = nil

	if len(s.undo) == 0 {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for i := len(s.undo) - 1; i >= 0; i-- {
		m := s.undo[i]

		switch m.kind {
		case mutationAdd:
			s.store.entities[m.id] = m.entity
			s.store.order = append(s.store.order, m.id)
		case mutationUpdate:
			s.store.entities[m.id] = m.entity
		case mutationDelete:
			delete(s.store.entities, m.id)
			s.store.removeFromOrderLocked(m.id)
		}

		s.store.versions[m.id]++
	}

	s.undo = nil
}

func (s *Session[ID, E]) snapshot() (map[ID]E, []ID) {
	s.store.mu.RLock()
	entities := make(map[ID]E, len(s.store.entities))
	for id, entity := range s.store.entities {
		entities[id] = entity
	}
	order := make([]ID, len(s.store.order))
	copy(order, s.store.order)
	s.store.mu.RUnlock()

	for _, m := range s.staged {
		switch m.kind {
		case mutationAdd:
			entities[m.id] = m.entity
			order = append(order, m.id)
		case mutationUpdate:
			entities[m.id] = m.entity
		case mutationDelete:
			delete(entities, m.id)
		}
	}

	return entities, order
}

func (s *Store[ID, E]) removeFromOrderLocked(id ID) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

var (
	_ coordination.Repository[string, User] = (*Session[string, User])(nil)
	_ coordination.Participant              = (*Session[string, User])(nil)
)
