package diligencias

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("diligencia not found")
	ErrAtestadoNotFound  = errors.New("atestado not found")
	ErrPlantillaNotFound = errors.New("plantilla not found")
)

// Diligencia is one ordered narrative entry within an atestado. AtestadoID
// and PlantillaID are fixed at creation; only TextoFinal and Orden change.
type Diligencia struct {
	ID          int64     `json:"id"`
	AtestadoID  int64     `json:"atestado_id"`
	PlantillaID int64     `json:"plantilla_id"`
	TextoFinal  string    `json:"texto_final"`
	Orden       int       `json:"orden"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValorVariable is one stored variable/value pair of a diligencia.
type ValorVariable struct {
	Variable string `json:"variable"`
	Valor    string `json:"valor"`
}

// Detalle is a diligencia with its template name/content and stored values,
// the shape reads return.
type Detalle struct {
	Diligencia
	PlantillaNombre  string          `json:"plantilla_nombre"`
	PlantillaContent string          `json:"plantilla_content"`
	Valores          []ValorVariable `json:"valores"`
}

// ValuePair is a client-supplied variable/value pair.
type ValuePair struct {
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

// Posicion is one entry of a reorder request.
type Posicion struct {
	ID    int64 `json:"id"`
	Orden int   `json:"orden"`
}
