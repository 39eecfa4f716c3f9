package plantillas

import "context"

// Service owns template semantics: Variables is recomputed from Content on
// every write, and deletion is blocked while any diligencia references the
// template.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, name, description, content string) (*Plantilla, error) {
	p := &Plantilla{
		Name:        name,
		Description: description,
		Content:     content,
		Variables:   Extract(content),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, name, description, content string) (*Plantilla, error) {
	p := &Plantilla{
		ID:          id,
		Name:        name,
		Description: description,
		Content:     content,
		Variables:   Extract(content),
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Plantilla, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Plantilla, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	// The InUse pre-check gives a clean ErrInUse; a reference created
	// between it and the delete is still caught by the diligencias foreign
	// key, which the postgres store maps to the same error.
	used, err := s.store.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrInUse
	}
	return s.store.Delete(ctx, id)
}
