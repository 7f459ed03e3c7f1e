package entity

import "time"

// Product es la vista mínima del producto que necesita el motor de lotes.
// El catálogo completo lo administra la capa CRUD.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
