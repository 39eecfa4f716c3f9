package plantillas

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Store interface {
	Create(ctx context.Context, p *Plantilla) error
	Update(ctx context.Context, p *Plantilla) error
	GetByID(ctx context.Context, id int64) (*Plantilla, error)
	List(ctx context.Context) ([]*Plantilla, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	InUse(ctx context.Context, id int64) (bool, error)
}

// InMemoryStore is a threadsafe in-memory store for tests
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]*Plantilla
	inUse  map[int64]bool
	nextID int64
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[int64]*Plantilla),
		inUse: make(map[int64]bool),
		now:   time.Now,
	}
}

// SetInUse marks a plantilla as referenced by a diligencia. Tests use this to
// exercise the delete guard without wiring a real diligencia store.
func (s *InMemoryStore) SetInUse(id int64, used bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inUse[id] = used
}

func (s *InMemoryStore) Create(ctx context.Context, p *Plantilla) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == p.Name {
			return ErrDuplicateName
		}
	}
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.byID[p.ID] = clonePlantilla(p)
	return nil
}

func (s *InMemoryStore) Update(ctx context.Context, p *Plantilla) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range s.byID {
		if id != p.ID && existing.Name == p.Name {
			return ErrDuplicateName
		}
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now()
	s.byID[p.ID] = clonePlantilla(p)
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, id int64) (*Plantilla, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePlantilla(p), nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*Plantilla, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Plantilla, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, clonePlantilla(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	if s.inUse[id] {
		return ErrInUse
	}
	delete(s.byID, id)
	return nil
}

func (s *InMemoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *InMemoryStore) InUse(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inUse[id], nil
}

func clonePlantilla(p *Plantilla) *Plantilla {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Variables != nil {
		cp.Variables = append([]string(nil), p.Variables...)
	}
	return &cp
}
