package atestados

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Store interface {
	Create(ctx context.Context, a *Atestado) error
	Update(ctx context.Context, a *Atestado) error
	GetByID(ctx context.Context, id int64) (*Atestado, error)
	List(ctx context.Context) ([]*Atestado, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
}

// InMemoryStore is a threadsafe in-memory store for tests. DeleteHook, when
// set, runs after a successful Delete; tests use it to model the cascade the
// database applies to dependent rows.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[int64]*Atestado
	nextID     int64
	now        func() time.Time
	DeleteHook func(id int64)
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[int64]*Atestado),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, a *Atestado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Numero == a.Numero {
			return ErrDuplicateNumero
		}
	}
	if a.Estado == "" {
		a.Estado = EstadoActivo
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) Update(ctx context.Context, a *Atestado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[a.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range s.byID {
		if id != a.ID && existing.Numero == a.Numero {
			return ErrDuplicateNumero
		}
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = s.now()
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, id int64) (*Atestado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Atestado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Atestado, 0, len(s.byID))
	for _, a := range s.byID {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.After(out[j].Fecha) })
	return out, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.byID, id)
	hook := s.DeleteHook
	s.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return nil
}

func (s *InMemoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *InMemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &Stats{}
	for _, a := range s.byID {
		st.Total++
		switch a.Estado {
		case EstadoActivo:
			st.Activos++
		case EstadoCerrado:
			st.Cerrados++
		}
	}
	return st, nil
}
