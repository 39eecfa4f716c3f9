package diligencias

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists diligencias. Create, UpdateTexto and Reorder are atomic:
// either every statement applies or none does.
type Store interface {
	// Create assigns ID, Orden (max existing orden for the atestado plus
	// one, starting at 1) and timestamps, and persists the given value rows
	// in the same transaction. The orden read and the insert share one
	// transaction but not one lock: two concurrent creates for the same
	// atestado can still produce duplicate orden values under
	// read-committed, matching the behavior this system replicates.
	Create(ctx context.Context, d *Diligencia, valores []ValorVariable) error
	// UpdateTexto rewrites texto_final and replaces all value rows
	// wholesale.
	UpdateTexto(ctx context.Context, id int64, textoFinal string, valores []ValorVariable) (*Diligencia, error)
	GetByID(ctx context.Context, id int64) (*Detalle, error)
	// ListByAtestado orders by orden ascending, ties broken by created_at
	// ascending.
	ListByAtestado(ctx context.Context, atestadoID int64) ([]*Detalle, error)
	Delete(ctx context.Context, id int64) error
	// Reorder applies each position to the row matching both id and
	// atestadoID; ids belonging to another atestado are silently skipped.
	Reorder(ctx context.Context, atestadoID int64, positions []Posicion) error
}

// InMemoryStore is a threadsafe in-memory store for tests. PlantillaInfo may
// be set to resolve template name/content on reads.
type InMemoryStore struct {
	mu            sync.RWMutex
	byID          map[int64]*entry
	nextID        int64
	seq           int64
	now           func() time.Time
	PlantillaInfo func(id int64) (name, content string)
}

type entry struct {
	d       Diligencia
	valores []ValorVariable
	seq     int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[int64]*entry),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, d *Diligencia, valores []ValorVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxOrden := 0
	for _, e := range s.byID {
		if e.d.AtestadoID == d.AtestadoID && e.d.Orden > maxOrden {
			maxOrden = e.d.Orden
		}
	}
	s.nextID++
	s.seq++
	d.ID = s.nextID
	d.Orden = maxOrden + 1
	d.CreatedAt = s.now()
	d.UpdatedAt = d.CreatedAt
	s.byID[d.ID] = &entry{d: *d, valores: cloneValores(valores), seq: s.seq}
	return nil
}

func (s *InMemoryStore) UpdateTexto(ctx context.Context, id int64, textoFinal string, valores []ValorVariable) (*Diligencia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.d.TextoFinal = textoFinal
	e.d.UpdatedAt = s.now()
	e.valores = cloneValores(valores)
	cp := e.d
	return &cp, nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, id int64) (*Detalle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.detalle(e), nil
}

func (s *InMemoryStore) ListByAtestado(ctx context.Context, atestadoID int64) ([]*Detalle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*entry, 0)
	for _, e := range s.byID {
		if e.d.AtestadoID == atestadoID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].d.Orden != entries[j].d.Orden {
			return entries[i].d.Orden < entries[j].d.Orden
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]*Detalle, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.detalle(e))
	}
	return out, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// DeleteByAtestado removes every entry of the given atestado, together with
// its value rows. It models the ON DELETE CASCADE the postgres schema
// enforces when the owning atestado row is deleted.
func (s *InMemoryStore) DeleteByAtestado(atestadoID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.byID {
		if e.d.AtestadoID == atestadoID {
			delete(s.byID, id)
		}
	}
}

func (s *InMemoryStore) Reorder(ctx context.Context, atestadoID int64, positions []Posicion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pos := range positions {
		e, ok := s.byID[pos.ID]
		if !ok || e.d.AtestadoID != atestadoID {
			continue
		}
		e.d.Orden = pos.Orden
		e.d.UpdatedAt = s.now()
	}
	return nil
}

func (s *InMemoryStore) detalle(e *entry) *Detalle {
	det := &Detalle{Diligencia: e.d, Valores: cloneValores(e.valores)}
	if s.PlantillaInfo != nil {
		det.PlantillaNombre, det.PlantillaContent = s.PlantillaInfo(e.d.PlantillaID)
	}
	return det
}

func cloneValores(v []ValorVariable) []ValorVariable {
	out := make([]ValorVariable, len(v))
	copy(out, v)
	return out
}
