package entity

import "time"

// Location representa una sucursal o bodega donde se almacenan lotes.
type Location struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
