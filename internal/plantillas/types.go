package plantillas

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("plantilla not found")
	ErrDuplicateName = errors.New("plantilla name already exists")
	ErrInUse         = errors.New("plantilla is referenced by diligencias")
)

// Plantilla is a reusable narrative template. Variables is derived from
// Content on every write and is never accepted from the client.
type Plantilla struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Variables   []string  `json:"variables"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
