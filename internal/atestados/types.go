package atestados

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("atestado not found")
	ErrDuplicateNumero = errors.New("atestado numero already exists")
)

const (
	EstadoActivo  = "activo"
	EstadoCerrado = "cerrado"
)

// Atestado is a police case file. TotalDiligencias is derived on listing and
// never stored.
type Atestado struct {
	ID               int64     `json:"id"`
	Numero           string    `json:"numero"`
	Fecha            time.Time `json:"fecha"`
	Descripcion      string    `json:"descripcion"`
	Estado           string    `json:"estado"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	TotalDiligencias int       `json:"total_diligencias"`
}

// Stats summarizes case files by estado.
type Stats struct {
	Total    int `json:"total"`
	Activos  int `json:"activos"`
	Cerrados int `json:"cerrados"`
}
